package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemmendinger/dp2j/internal/history"
	"github.com/hemmendinger/dp2j/internal/importer"
)

func setupImport(t *testing.T) (*fakeTracker, *app, string, func() string) {
	t.Helper()
	tracker, url := newFakeTracker(t)
	root := t.TempDir()
	planFile := writeFile(t, filepath.Join(root, "docs", "plan.md"), testPlan)
	a, out := newTestApp(t, root, url)
	return tracker, a, planFile, out.String
}

func TestImport_PreviewOnly(t *testing.T) {
	tracker, a, planFile, output := setupImport(t)

	require.NoError(t, runImport(context.Background(), a, planFile, importOpts{}))

	assert.Empty(t, tracker.created())
	out := output()
	assert.Contains(t, out, "Mode: PREVIEW")
	assert.Contains(t, out, "Epic: Checkout")
	assert.Contains(t, out, "Stories: 2")
	assert.Contains(t, out, "Tasks: 2")
	assert.Contains(t, out, "Subtasks: 1")
	assert.Contains(t, out, "Total Issues: 6")
	assert.Contains(t, out, "--create")
}

func TestImport_DryRun(t *testing.T) {
	tracker, a, planFile, output := setupImport(t)

	require.NoError(t, runImport(context.Background(), a, planFile, importOpts{DryRun: true, Create: true}))

	assert.Empty(t, tracker.created())
	out := output()
	assert.Contains(t, out, "Mode: DRY RUN")
	assert.Contains(t, out, "Would create:")
	assert.Contains(t, out, `"summary": "1.1 Cart API"`)
	assert.Contains(t, out, "6 issue(s) would be created")

	_, err := os.Stat(a.cfg.Resolve(a.cfg.MappingFile))
	assert.True(t, os.IsNotExist(err), "dry run must not write a mapping")
	_, ok := a.history().Get("docs/plan.md")
	assert.False(t, ok, "dry run must not record history")
}

func TestImport_Create(t *testing.T) {
	tracker, a, planFile, output := setupImport(t)

	require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true}))

	created := tracker.created()
	require.Len(t, created, 6)

	epic := created[0].Request.Fields
	assert.Equal(t, "Checkout", epic.Summary)
	assert.Equal(t, "Epic", epic.IssueType.Name)
	assert.Equal(t, "PRJ", epic.Project.Key)
	assert.Nil(t, epic.Parent)
	require.NotNil(t, epic.Assignee)
	assert.Equal(t, "acc-lead@acme.test", epic.Assignee.AccountID)

	story := created[1].Request.Fields
	assert.Equal(t, "1 Cart", story.Summary)
	assert.Equal(t, "PRJ-1", story.Parent.Key)
	assert.Equal(t, "3d", story.TimeTracking.OriginalEstimate)

	task := created[2].Request.Fields
	assert.Equal(t, "PRJ-2", task.Parent.Key)
	assert.Equal(t, "Task", task.IssueType.Name)

	subtask := created[3].Request.Fields
	assert.Equal(t, "PRJ-3", subtask.Parent.Key)
	assert.Equal(t, "Subtask", subtask.IssueType.Name)

	// Every issue carries the same batch label.
	var batchLabel string
	for _, l := range epic.Labels {
		if strings.HasPrefix(l, importer.BatchLabelPrefix) {
			batchLabel = l
		}
	}
	require.NotEmpty(t, batchLabel)
	assert.Contains(t, epic.Labels, "web")
	for _, issue := range created {
		assert.Contains(t, issue.Labels, batchLabel, issue.Key)
	}
	batchID := strings.TrimPrefix(batchLabel, importer.BatchLabelPrefix)

	m, err := importer.LoadMapping(a.cfg.Resolve(a.cfg.MappingFile))
	require.NoError(t, err)
	assert.Equal(t, batchID, m.BatchID)
	assert.Equal(t, "docs/plan.md", m.FilePath)
	assert.Equal(t, []string{"EPIC", "STORY-1", "TASK-1.1", "SUBTASK-1.1.1", "STORY-2", "TASK-2.1"}, m.Issues.IDs())

	entry, ok := a.history().Get("docs/plan.md")
	require.True(t, ok)
	assert.Equal(t, "PRJ-1", entry.EpicKey)
	assert.Equal(t, batchID, entry.BatchID)
	assert.Equal(t, 6, entry.IssueCount)

	out := output()
	assert.Contains(t, out, "Import history updated")
	assert.Contains(t, out, "dp2j cleanup --batch "+batchID)
	assert.NotContains(t, out, testToken)

	// The plan is left alone without --update-file.
	data, err := os.ReadFile(planFile)
	require.NoError(t, err)
	assert.Equal(t, testPlan, string(data))
}

func TestImport_ProjectOverrideAndTasksAsSubtasks(t *testing.T) {
	tracker, a, planFile, _ := setupImport(t)

	require.NoError(t, runImport(context.Background(), a, planFile, importOpts{
		Create:          true,
		Project:         "OPS",
		TasksAsSubtasks: true,
	}))

	created := tracker.created()
	require.Len(t, created, 6)
	for _, issue := range created {
		assert.Equal(t, "OPS", issue.Request.Fields.Project.Key)
	}
	task := created[2].Request.Fields
	assert.Equal(t, "Subtask", task.IssueType.Name)
	assert.Equal(t, "PRJ-2", task.Parent.Key)
	// Subtasks hang off the story, not the task.
	assert.Equal(t, "PRJ-2", created[3].Request.Fields.Parent.Key)
}

func TestImport_UpdateFile(t *testing.T) {
	_, a, planFile, _ := setupImport(t)

	require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true, UpdateFile: true}))

	data, err := os.ReadFile(planFile)
	require.NoError(t, err)
	text := string(data)
	base := a.cfg.APIURL
	assert.Contains(t, text, "## EPIC: Checkout\n**Tracker:** [PRJ-1]("+base+"/browse/PRJ-1)\n")
	assert.Contains(t, text, "### TASK 1.1: Cart API\n**Tracker:** [PRJ-3]("+base+"/browse/PRJ-3)\n")
	assert.Contains(t, text, "#### SUBTASK 1.1.1: Schema\n**Tracker:** [PRJ-4]("+base+"/browse/PRJ-4)\n")
	assert.Equal(t, 6, strings.Count(text, "**Tracker:**"))
}

func TestImport_AlreadyImported(t *testing.T) {
	seed := func(t *testing.T, a *app) {
		t.Helper()
		require.NoError(t, a.history().Put("docs/plan.md", history.Entry{
			EpicKey:    "PRJ-99",
			ImportDate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			BatchID:    "old-batch",
			IssueCount: 6,
		}))
	}

	t.Run("non-interactive refuses", func(t *testing.T) {
		tracker, a, planFile, _ := setupImport(t)
		seed(t, a)

		err := runImport(context.Background(), a, planFile, importOpts{Create: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--force")
		assert.Empty(t, tracker.created())
	})

	t.Run("skip", func(t *testing.T) {
		tracker, a, planFile, output := setupImport(t)
		seed(t, a)
		answer(a, "1\n")

		require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true}))
		assert.Empty(t, tracker.created())
		assert.Contains(t, output(), "already imported")
		assert.Contains(t, output(), "PRJ-99")
		assert.Contains(t, output(), "Import cancelled")
	})

	t.Run("invalid choice cancels", func(t *testing.T) {
		tracker, a, planFile, _ := setupImport(t)
		seed(t, a)
		answer(a, "7\n")

		require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true}))
		assert.Empty(t, tracker.created())
	})

	t.Run("re-import needs yes", func(t *testing.T) {
		tracker, a, planFile, output := setupImport(t)
		seed(t, a)
		answer(a, "2\ny\n")

		require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true}))
		assert.Empty(t, tracker.created())
		assert.Contains(t, output(), "duplicate issues")
	})

	t.Run("re-import confirmed", func(t *testing.T) {
		tracker, a, planFile, _ := setupImport(t)
		seed(t, a)
		answer(a, "2\nYES\n")

		require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true}))
		assert.Len(t, tracker.created(), 6)

		entry, _ := a.history().Get("docs/plan.md")
		assert.Equal(t, "PRJ-1", entry.EpicKey)
	})

	t.Run("continue", func(t *testing.T) {
		tracker, a, planFile, _ := setupImport(t)
		seed(t, a)
		answer(a, "3\n")

		require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true}))
		assert.Len(t, tracker.created(), 6)
	})

	t.Run("force skips the check", func(t *testing.T) {
		tracker, a, planFile, output := setupImport(t)
		seed(t, a)

		require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true, Force: true}))
		assert.Len(t, tracker.created(), 6)
		assert.NotContains(t, output(), "already imported")
	})

	t.Run("dry run skips the check", func(t *testing.T) {
		tracker, a, planFile, _ := setupImport(t)
		seed(t, a)

		require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true, DryRun: true}))
		assert.Empty(t, tracker.created())
	})
}

func TestImport_FailureKeepsPartialMapping(t *testing.T) {
	tracker, a, planFile, output := setupImport(t)
	tracker.failCreate("Cart API")

	err := runImport(context.Background(), a, planFile, importOpts{Create: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import failed")
	assert.Contains(t, err.Error(), "TASK-1.1")
	assert.NotContains(t, err.Error(), testToken)

	assert.Len(t, tracker.created(), 2)

	m, err := importer.LoadMapping(a.cfg.Resolve(a.cfg.MappingFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"EPIC", "STORY-1"}, m.Issues.IDs())

	_, ok := a.history().Get("docs/plan.md")
	assert.False(t, ok, "failed import must not record history")
	assert.Contains(t, output(), "dp2j cleanup --batch "+m.BatchID)
}

func TestImport_MissingCredentials(t *testing.T) {
	tracker, a, planFile, _ := setupImport(t)
	a.cfg.APIToken = ""
	a.cfg.ProjectKey = ""

	err := runImport(context.Background(), a, planFile, importOpts{Create: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JIRA_API_TOKEN")
	assert.Contains(t, err.Error(), "JIRA_PROJECT_KEY")
	assert.Empty(t, tracker.created())

	// Preview and dry run work without credentials.
	require.NoError(t, runImport(context.Background(), a, planFile, importOpts{}))
	require.NoError(t, runImport(context.Background(), a, planFile, importOpts{DryRun: true}))
}

func TestImport_MissingPlan(t *testing.T) {
	_, a, _, _ := setupImport(t)

	err := runImport(context.Background(), a, filepath.Join(a.root, "nope.md"), importOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.md")
}

func TestImport_NoEpic(t *testing.T) {
	tracker, a, _, output := setupImport(t)
	planFile := writeFile(t, filepath.Join(a.root, "stories.md"), "## STORY 1: Orphan\n\n### TASK 1.1: Work\n")

	require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true}))
	assert.Empty(t, tracker.created())
	assert.Contains(t, output(), "Epic: None")
	assert.Contains(t, output(), "nothing to import")
}

func TestImport_Hooks(t *testing.T) {
	t.Run("pre-import builtin blocks", func(t *testing.T) {
		tracker, a, _, _ := setupImport(t)
		writeFile(t, filepath.Join(a.root, ".dp2j", "hooks.json"),
			`{"hooks":{"pre-import":[{"type":"builtin","builtin":"require-assignees"}]}}`)
		planFile := writeFile(t, filepath.Join(a.root, "unassigned.md"), "## EPIC: Solo\n\n## STORY 1: Nobody\n")

		err := runImport(context.Background(), a, planFile, importOpts{Create: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pre-import blocked by hook")
		assert.Contains(t, err.Error(), "EPIC")
		assert.Empty(t, tracker.created())
	})

	t.Run("post-import command sees the batch", func(t *testing.T) {
		_, a, planFile, output := setupImport(t)
		writeFile(t, filepath.Join(a.root, ".dp2j", "hooks.json"),
			`{"hooks":{
				"pre-import":[{"type":"builtin","builtin":"warn-missing-estimates"}],
				"post-import":[{"type":"command","cmd":"echo imported $DP2J_EPIC_KEY from $DP2J_PLAN_FILE"}]
			}}`)

		require.NoError(t, runImport(context.Background(), a, planFile, importOpts{Create: true}))
		out := output()
		assert.Contains(t, out, "without a time estimate: SUBTASK-1.1.1, STORY-2, TASK-2.1")
		assert.Contains(t, out, "imported PRJ-1 from docs/plan.md")
	})
}
