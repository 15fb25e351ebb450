package jira

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkflow struct {
	status      string
	transitions string
	applied     []string
}

func (f *fakeWorkflow) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/rest/api/3/issue/PRJ-1":
			_, _ = io.WriteString(w, `{"key":"PRJ-1","fields":{"status":{"name":"`+f.status+`"}}}`)
		case r.Method == "GET" && r.URL.Path == "/rest/api/3/issue/PRJ-1/transitions":
			_, _ = io.WriteString(w, f.transitions)
		case r.Method == "POST" && r.URL.Path == "/rest/api/3/issue/PRJ-1/transitions":
			var req transitionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.applied = append(f.applied, req.Transition.ID)
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

const workflowTransitions = `{"transitions":[
	{"id":"11","name":"Start work","to":{"name":"In Progress"}},
	{"id":"21","name":"Finish","to":{"name":"Done"}}
]}`

func TestTransitionTo_ByTargetStatus(t *testing.T) {
	wf := &fakeWorkflow{status: "To Do", transitions: workflowTransitions}
	c := newTestClient(t, wf.handler(t))

	res, err := c.TransitionTo(context.Background(), "PRJ-1", "in progress")
	require.NoError(t, err)
	assert.Equal(t, "To Do", res.From)
	assert.Equal(t, "In Progress", res.To)
	assert.False(t, res.Unchanged)
	assert.Equal(t, []string{"11"}, wf.applied)
}

func TestTransitionTo_ByTransitionName(t *testing.T) {
	wf := &fakeWorkflow{status: "In Progress", transitions: workflowTransitions}
	c := newTestClient(t, wf.handler(t))

	res, err := c.TransitionTo(context.Background(), "PRJ-1", "FINISH")
	require.NoError(t, err)
	assert.Equal(t, "Done", res.To)
	assert.Equal(t, []string{"21"}, wf.applied)
}

func TestTransitionTo_AlreadyThere(t *testing.T) {
	wf := &fakeWorkflow{status: "Done", transitions: workflowTransitions}
	c := newTestClient(t, wf.handler(t))

	res, err := c.TransitionTo(context.Background(), "PRJ-1", "done")
	require.NoError(t, err)
	assert.True(t, res.Unchanged)
	assert.Empty(t, wf.applied)
}

func TestTransitionTo_Unavailable(t *testing.T) {
	wf := &fakeWorkflow{status: "To Do", transitions: workflowTransitions}
	c := newTestClient(t, wf.handler(t))

	_, err := c.TransitionTo(context.Background(), "PRJ-1", "Blocked")
	require.Error(t, err)

	var tErr *TransitionError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "To Do", tErr.Current)
	assert.Len(t, tErr.Available, 2)
	assert.Contains(t, err.Error(), "Start work (-> In Progress)")
	assert.Empty(t, wf.applied)
}

func TestTransitionError_NoneAvailable(t *testing.T) {
	err := &TransitionError{Key: "PRJ-1", Target: "Done", Current: "Closed"}
	assert.Contains(t, err.Error(), "available: none")
}
