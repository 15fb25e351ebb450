// Package importer turns a parsed plan into tracker issues, parent before
// child, and cleans up import batches.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hemmendinger/dp2j/internal/adf"
	"github.com/hemmendinger/dp2j/internal/config"
	"github.com/hemmendinger/dp2j/internal/jira"
	"github.com/hemmendinger/dp2j/internal/plan"
	"github.com/hemmendinger/dp2j/internal/style"
)

// DryRunSuffix is appended to a node id to form its placeholder key in dry runs.
const DryRunSuffix = "-DRYRUN"

// IssueClient is the part of the tracker client the importer needs.
type IssueClient interface {
	CreateIssue(ctx context.Context, req jira.IssueRequest) (*jira.CreatedIssue, error)
	UserByEmail(ctx context.Context, email string) string
}

// Options configures one import run.
type Options struct {
	ProjectKey      string
	IssueTypes      config.IssueTypes
	TasksAsSubtasks bool // create plan Tasks as subtasks of their Story
	DryRun          bool
	BatchID         string
	SourcePath      string // plan path named in the audit trail
	EpicCount       int    // epics in this import; plan ids prefix epic summaries only above 1
	Now             func() time.Time
	Out             io.Writer // progress lines and dry-run payloads
	Log             *zap.Logger
}

// Result describes a finished (or aborted) import.
type Result struct {
	EpicKey string
	Keys    *plan.KeyMap
	DryRun  bool
}

// Created reports how many issues were created, or would have been.
func (r *Result) Created() int {
	return r.Keys.Len()
}

// Creator creates the issues for a plan.
type Creator struct {
	client IssueClient
	opts   Options
	keys   *plan.KeyMap
	at     time.Time
}

// NewCreator returns a Creator. client may be nil for dry runs.
func NewCreator(client IssueClient, opts Options) *Creator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.EpicCount == 0 {
		opts.EpicCount = 1
	}
	def := config.DefaultIssueTypes()
	if opts.IssueTypes.Epic == "" {
		opts.IssueTypes.Epic = def.Epic
	}
	if opts.IssueTypes.Story == "" {
		opts.IssueTypes.Story = def.Story
	}
	if opts.IssueTypes.Task == "" {
		opts.IssueTypes.Task = def.Task
	}
	if opts.IssueTypes.Subtask == "" {
		opts.IssueTypes.Subtask = def.Subtask
	}
	return &Creator{client: client, opts: opts, keys: plan.NewKeyMap()}
}

// Import creates the epic, then each story followed by its tasks and each
// task's subtasks. A plan without an epic creates nothing. The first failed
// create stops the run; the returned Result still holds every key created
// before it.
func (c *Creator) Import(ctx context.Context, p *plan.Plan) (*Result, error) {
	res := &Result{Keys: c.keys, DryRun: c.opts.DryRun}
	if p == nil || p.Epic == nil {
		return res, nil
	}
	if !c.opts.DryRun && c.client == nil {
		return res, fmt.Errorf("no tracker client for a real import")
	}
	c.at = c.opts.Now()

	epicKey, err := c.create(ctx, plan.KindEpic, p.Epic.Item, "")
	if err != nil {
		return res, err
	}
	res.EpicKey = epicKey

	for _, s := range p.Stories {
		storyKey, err := c.create(ctx, plan.KindStory, s.Item, epicKey)
		if err != nil {
			return res, err
		}
		for _, t := range s.Tasks {
			taskKey, err := c.create(ctx, plan.KindTask, t.Item, storyKey)
			if err != nil {
				return res, err
			}
			parent := taskKey
			if c.opts.TasksAsSubtasks {
				parent = storyKey
			}
			for _, st := range t.Subtasks {
				if _, err := c.create(ctx, plan.KindSubtask, st.Item, parent); err != nil {
					return res, err
				}
			}
		}
	}
	return res, nil
}

var progress = map[plan.Kind]struct {
	indent string
	icon   string
	label  string
}{
	plan.KindEpic:    {"", "📦", "Epic"},
	plan.KindStory:   {"  ", "📖", "Story"},
	plan.KindTask:    {"    ", "📋", "Task"},
	plan.KindSubtask: {"      ", "⚡", "Subtask"},
}

func (c *Creator) create(ctx context.Context, kind plan.Kind, item plan.Item, parentKey string) (string, error) {
	req := c.Request(ctx, kind, item, parentKey)
	p := progress[kind]
	fmt.Fprintf(c.opts.Out, "%s%s Creating %s: %s\n", p.indent, p.icon, p.label, req.Fields.Summary)

	if c.opts.DryRun {
		key := item.ID + DryRunSuffix
		data, err := json.MarshalIndent(req, p.indent+"   ", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding %s: %w", item.ID, err)
		}
		fmt.Fprintf(c.opts.Out, "%s   %s Would create: %s\n", p.indent, style.Bold.Render("[DRY RUN]"), data)
		c.keys.Set(item.ID, key)
		return key, nil
	}

	created, err := c.client.CreateIssue(ctx, req)
	if err != nil {
		fmt.Fprintf(c.opts.Out, "%s   %s Failed to create %s\n", p.indent, style.ErrorPrefix, strings.ToLower(p.label))
		return "", fmt.Errorf("creating %s %s: %w", kind, item.ID, err)
	}
	fmt.Fprintf(c.opts.Out, "%s   %s Created: %s\n", p.indent, style.SuccessPrefix, style.Key.Render(created.Key))
	c.opts.Log.Debug("issue created",
		zap.String("id", item.ID),
		zap.String("key", created.Key),
		zap.String("parent", parentKey))
	c.keys.Set(item.ID, created.Key)
	return created.Key, nil
}

// Request builds the create payload for one plan node. Assignee lookup is
// skipped in dry runs.
func (c *Creator) Request(ctx context.Context, kind plan.Kind, item plan.Item, parentKey string) jira.IssueRequest {
	fields := jira.IssueFields{
		Project:     jira.ProjectRef{Key: c.opts.ProjectKey},
		IssueType:   jira.IssueTypeRef{Name: c.issueType(kind)},
		Summary:     c.summary(kind, item),
		Description: c.description(item.Description),
		Labels:      c.labels(item.Labels),
	}
	if parentKey != "" {
		fields.Parent = &jira.IssueRef{Key: parentKey}
	}
	if kind != plan.KindEpic && item.Estimate != "" {
		if est := plan.ParseTimeEstimate(item.Estimate); est != "" {
			fields.TimeTracking = &jira.TimeTracking{OriginalEstimate: est}
		}
	}
	if item.Assignee != "" && !c.opts.DryRun && c.client != nil {
		if accountID := c.client.UserByEmail(ctx, item.Assignee); accountID != "" {
			fields.Assignee = &jira.UserRef{AccountID: accountID}
		}
	}
	return jira.IssueRequest{Fields: fields}
}

func (c *Creator) issueType(kind plan.Kind) string {
	switch kind {
	case plan.KindEpic:
		return c.opts.IssueTypes.Epic
	case plan.KindStory:
		return c.opts.IssueTypes.Story
	case plan.KindTask:
		if c.opts.TasksAsSubtasks {
			return c.opts.IssueTypes.Subtask
		}
		return c.opts.IssueTypes.Task
	default:
		return c.opts.IssueTypes.Subtask
	}
}

func (c *Creator) summary(kind plan.Kind, item plan.Item) string {
	if kind == plan.KindEpic && c.opts.EpicCount <= 1 {
		return strings.TrimSpace(item.Summary)
	}
	return plan.SummaryWithPlanID(item.ID, item.Summary)
}

func (c *Creator) description(text string) *adf.Document {
	doc := adf.FromMarkdown(text)
	if c.opts.BatchID != "" && c.opts.SourcePath != "" {
		doc = adf.PrependAuditTrail(doc, c.opts.SourcePath, c.opts.BatchID, c.at)
	}
	return &doc
}

func (c *Creator) labels(own []string) []string {
	labels := append([]string(nil), own...)
	if label := BatchLabel(c.opts.BatchID); label != "" {
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}
