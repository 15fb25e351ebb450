package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemmendinger/dp2j/internal/importer"
	"github.com/hemmendinger/dp2j/internal/plan"
)

func saveTestMapping(t *testing.T, path string) {
	t.Helper()
	keys := plan.NewKeyMap()
	keys.Set("EPIC", "PRJ-1")
	keys.Set("STORY-1", "PRJ-2")
	keys.Set("TASK-1.1", "PRJ-3")
	require.NoError(t, importer.SaveMapping(path, importer.Mapping{
		BatchID:   "b1",
		CreatedAt: time.Now().UTC(),
		FilePath:  "plan.md",
		Issues:    keys,
	}))
}

func TestLink(t *testing.T) {
	root := t.TempDir()
	a, out := newTestApp(t, root, "https://acme.atlassian.net")
	planFile := writeFile(t, filepath.Join(root, "plan.md"), testPlan)
	saveTestMapping(t, a.cfg.Resolve(a.cfg.MappingFile))

	require.NoError(t, runLink(a, planFile, ""))
	assert.Contains(t, out.String(), "Linked 3 issue(s)")

	data, err := os.ReadFile(planFile)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "## STORY 1: Cart\n**Tracker:** [PRJ-2](https://acme.atlassian.net/browse/PRJ-2)\n")
	assert.Equal(t, 3, strings.Count(text, "**Tracker:**"))

	// A second run leaves the plan as it is.
	require.NoError(t, runLink(a, planFile, ""))
	again, err := os.ReadFile(planFile)
	require.NoError(t, err)
	assert.Equal(t, text, string(again))
}

func TestLink_ExplicitMapping(t *testing.T) {
	root := t.TempDir()
	a, _ := newTestApp(t, root, "https://acme.atlassian.net")
	planFile := writeFile(t, filepath.Join(root, "plan.md"), testPlan)
	mapping := filepath.Join(root, "old-mapping.json")
	saveTestMapping(t, mapping)

	require.NoError(t, runLink(a, planFile, mapping))
	data, err := os.ReadFile(planFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[PRJ-3]")
}

func TestLink_Errors(t *testing.T) {
	root := t.TempDir()
	a, _ := newTestApp(t, root, "https://acme.atlassian.net")
	planFile := writeFile(t, filepath.Join(root, "plan.md"), testPlan)

	err := runLink(a, planFile, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading mapping")

	saveTestMapping(t, a.cfg.Resolve(a.cfg.MappingFile))
	a.cfg.APIURL = ""
	err = runLink(a, planFile, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JIRA_API_URL")
}

func TestWriteLinks_KeepsMode(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "plan.md"), testPlan)
	require.NoError(t, os.Chmod(path, 0600))

	keys := plan.NewKeyMap()
	keys.Set("EPIC", "PRJ-1")
	require.NoError(t, writeLinks(path, testPlan, keys, "https://acme.atlassian.net"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
