package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hemmendinger/dp2j/internal/config"
	"github.com/hemmendinger/dp2j/internal/jira"
)

const testToken = "tok-secret-123"

const testPlan = `# Checkout dev plan

## EPIC: Checkout
**Labels:** web
**Assignee:** lead@acme.test

Rebuild checkout.

## STORY 1: Cart
**Assignee:** dev@acme.test
**Time Estimate:** 3 days

### TASK 1.1: Cart API
**Assignee:** dev@acme.test
**Time Estimate:** ~4-6 hours

#### SUBTASK 1.1.1: Schema
**Assignee:** dev@acme.test

## STORY 2: Payment
**Assignee:** pay@acme.test

### TASK 2.1: Provider
**Assignee:** pay@acme.test
`

// fakeIssue is one issue held by fakeTracker.
type fakeIssue struct {
	Key     string
	Summary string
	Status  string
	Labels  []string
	Request jira.IssueRequest
}

// fakeTracker serves the subset of the REST API the commands use.
type fakeTracker struct {
	t *testing.T

	mu          sync.Mutex
	next        int
	order       []string
	issues      map[string]*fakeIssue
	deleted     []string
	comments    map[string][]string
	transitions []jira.Transition
	failSummary string // create fails when the summary contains this
	failDelete  string // delete of this key fails
}

var labelsJQL = regexp.MustCompile(`^labels = "(.+)"$`)

func newFakeTracker(t *testing.T) (*fakeTracker, string) {
	t.Helper()
	f := &fakeTracker{
		t:        t,
		issues:   make(map[string]*fakeIssue),
		comments: make(map[string][]string),
		transitions: []jira.Transition{
			{ID: "11", Name: "Start work", To: jira.Status{Name: "In Progress"}},
			{ID: "31", Name: "Finish", To: jira.Status{Name: "Done"}},
		},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func (f *fakeTracker) seed(key, summary string, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[key] = &fakeIssue{Key: key, Summary: summary, Status: "To Do", Labels: labels}
	f.order = append(f.order, key)
}

func (f *fakeTracker) created() []*fakeIssue {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeIssue
	for _, key := range f.order {
		if issue, ok := f.issues[key]; ok && issue.Request.Fields.Summary != "" {
			out = append(out, issue)
		}
	}
	return out
}

func (f *fakeTracker) status(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if issue, ok := f.issues[key]; ok {
		return issue.Status
	}
	return ""
}

func (f *fakeTracker) setStatus(key, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[key].Status = status
}

func (f *fakeTracker) failCreate(summary string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSummary = summary
}

func (f *fakeTracker) failDeleteOf(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete = key
}

func (f *fakeTracker) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *fakeTracker) commentsOn(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.comments[key]...)
}

func (f *fakeTracker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/rest/api/3")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	switch {
	case r.Method == "POST" && path == "/issue":
		var req jira.IssueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if f.failSummary != "" && strings.Contains(req.Fields.Summary, f.failSummary) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"errorMessages":["issue type rejected"]}`)
			return
		}
		f.next++
		key := fmt.Sprintf("PRJ-%d", f.next)
		f.issues[key] = &fakeIssue{
			Key:     key,
			Summary: req.Fields.Summary,
			Status:  "To Do",
			Labels:  req.Fields.Labels,
			Request: req,
		}
		f.order = append(f.order, key)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":"%d","key":%q}`, 10000+f.next, key)

	case r.Method == "GET" && path == "/user/search":
		q := r.URL.Query().Get("query")
		fmt.Fprintf(w, `[{"accountId":%q}]`, "acc-"+q)

	case r.Method == "GET" && path == "/search":
		m := labelsJQL.FindStringSubmatch(r.URL.Query().Get("jql"))
		if m == nil {
			http.Error(w, "bad jql", http.StatusBadRequest)
			return
		}
		var found []jira.Issue
		for _, key := range f.order {
			issue, ok := f.issues[key]
			if !ok {
				continue
			}
			for _, l := range issue.Labels {
				if l == m[1] {
					found = append(found, f.view(issue))
					break
				}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"total": len(found), "issues": found})

	case len(parts) == 2 && parts[0] == "issue":
		issue, ok := f.issues[parts[1]]
		if !ok {
			http.Error(w, `{"errorMessages":["Issue does not exist"]}`, http.StatusNotFound)
			return
		}
		switch r.Method {
		case "GET":
			_ = json.NewEncoder(w).Encode(f.view(issue))
		case "DELETE":
			if issue.Key == f.failDelete {
				http.Error(w, `{"errorMessages":["subtasks must be deleted first"]}`, http.StatusBadRequest)
				return
			}
			delete(f.issues, issue.Key)
			f.deleted = append(f.deleted, issue.Key)
			w.WriteHeader(http.StatusNoContent)
		}

	case len(parts) == 3 && parts[0] == "issue" && parts[2] == "transitions":
		issue, ok := f.issues[parts[1]]
		if !ok {
			http.Error(w, "", http.StatusNotFound)
			return
		}
		if r.Method == "GET" {
			_ = json.NewEncoder(w).Encode(map[string]any{"transitions": f.transitions})
			return
		}
		var req struct {
			Transition struct {
				ID string `json:"id"`
			} `json:"transition"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, tr := range f.transitions {
			if tr.ID == req.Transition.ID {
				issue.Status = tr.To.Name
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 3 && parts[0] == "issue" && parts[2] == "comment":
		var c jira.Comment
		_ = json.NewDecoder(r.Body).Decode(&c)
		data, _ := json.Marshal(c.Body)
		f.comments[parts[1]] = append(f.comments[parts[1]], string(data))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"1"}`)

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL)
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (f *fakeTracker) view(issue *fakeIssue) jira.Issue {
	return jira.Issue{
		Key: issue.Key,
		Fields: jira.IssueStatus{
			Summary: issue.Summary,
			Status:  jira.Status{Name: issue.Status},
		},
	}
}

// newTestApp returns an app rooted at root talking to apiURL, with stdin
// empty and not a terminal.
func newTestApp(t *testing.T, root, apiURL string) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Root = root
	cfg.APIURL = apiURL
	cfg.Email = "bot@example.com"
	cfg.APIToken = config.Secret(testToken)
	cfg.ProjectKey = "PRJ"

	out := &bytes.Buffer{}
	return &app{
		root: root,
		cfg:  cfg,
		log:  zap.NewNop(),
		out:  out,
		in:   bufio.NewReader(strings.NewReader("")),
		clientOpts: []jira.Option{
			jira.WithBackoff(1, time.Millisecond),
			jira.WithRateLimit(1000, 100),
		},
	}, out
}

// answer makes the app interactive and feeds it the given input.
func answer(a *app, input string) {
	a.in = bufio.NewReader(strings.NewReader(input))
	a.interactive = true
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
