package importer

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/hemmendinger/dp2j/internal/plan"
)

func TestSaveAndLoadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jira-issue-mapping.json")

	keys := plan.NewKeyMap()
	keys.Set("EPIC", "PRJ-1")
	keys.Set("STORY-2", "PRJ-2")
	keys.Set("STORY-10", "PRJ-3")

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := SaveMapping(path, Mapping{BatchID: "b-1", CreatedAt: at, FilePath: "docs/plan.md", Issues: keys}); err != nil {
		t.Fatalf("SaveMapping: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{`"batchId": "b-1"`, `"filePath": "docs/plan.md"`, `"createdAt": "2024-05-01T12:00:00Z"`} {
		if !strings.Contains(text, want) {
			t.Errorf("mapping missing %s:\n%s", want, text)
		}
	}
	// Creation order, not key order.
	if strings.Index(text, "STORY-2") > strings.Index(text, "STORY-10") {
		t.Errorf("issues not in creation order:\n%s", text)
	}

	m, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if m.BatchID != "b-1" || m.FilePath != "docs/plan.md" || !m.CreatedAt.Equal(at) {
		t.Errorf("mapping = %+v", m)
	}
	if strings.Join(m.Issues.IDs(), ",") != "EPIC,STORY-2,STORY-10" {
		t.Errorf("ids = %v", m.Issues.IDs())
	}
	if key, _ := m.Issues.Get("STORY-10"); key != "PRJ-3" {
		t.Errorf("STORY-10 = %q", key)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain")
	}
}

func TestSaveMapping_NilIssues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	if err := SaveMapping(path, Mapping{BatchID: "x"}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"issues": {}`) {
		t.Errorf("expected empty issues object:\n%s", data)
	}
}

func TestLoadMapping_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadMapping(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"issues": {"EPIC": 5}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMapping(bad); err == nil {
		t.Error("expected error for non-string key")
	}
}

func TestNewBatchID(t *testing.T) {
	now := time.UnixMilli(1714564800000)
	id := NewBatchID(now)

	if !regexp.MustCompile(`^[0-9a-z]+-[0-9a-f]{8}$`).MatchString(id) {
		t.Errorf("NewBatchID = %q, want base36-hex8", id)
	}
	if !strings.HasPrefix(id, "lvnrm2o0-") {
		t.Errorf("NewBatchID = %q, want base36 timestamp prefix lvnrm2o0", id)
	}
	if NewBatchID(now) == id {
		t.Error("two ids at the same instant should differ")
	}
}

func TestBatchLabel(t *testing.T) {
	if got := BatchLabel("abc"); got != "import-batch-abc" {
		t.Errorf("BatchLabel = %q", got)
	}
	if got := BatchLabel(""); got != "" {
		t.Errorf("BatchLabel(\"\") = %q", got)
	}
}
