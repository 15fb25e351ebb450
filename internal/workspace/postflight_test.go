package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func ageFile(t *testing.T, path string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestPostflight_MappingWritten(t *testing.T) {
	root := setupTestProject(t)
	mapping := filepath.Join(root, "jira-issue-mapping.json")
	writeTestFile(t, mapping, "{}")

	report, err := Postflight(PostflightOptions{MappingFile: mapping})
	if err != nil {
		t.Fatalf("Postflight: %v", err)
	}
	if !report.MappingWritten {
		t.Error("expected MappingWritten")
	}
	if len(report.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", report.Warnings)
	}
}

func TestPostflight_MappingMissing(t *testing.T) {
	root := setupTestProject(t)

	report, err := Postflight(PostflightOptions{MappingFile: filepath.Join(root, "jira-issue-mapping.json")})
	if err != nil {
		t.Fatalf("Postflight: %v", err)
	}
	if report.MappingWritten || len(report.Warnings) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestPostflight_DryRunSkipsMappingCheck(t *testing.T) {
	root := setupTestProject(t)

	report, err := Postflight(PostflightOptions{
		MappingFile: filepath.Join(root, "jira-issue-mapping.json"),
		DryRun:      true,
	})
	if err != nil {
		t.Fatalf("Postflight: %v", err)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("dry run should not warn, got %v", report.Warnings)
	}
}

func TestPostflight_RemovesStaleTemp(t *testing.T) {
	root := setupTestProject(t)
	history := filepath.Join(root, ".jira-import-history.json")
	tmp := history + ".tmp"
	writeTestFile(t, tmp, "{")
	ageFile(t, tmp, time.Hour)

	report, err := Postflight(PostflightOptions{HistoryFile: history})
	if err != nil {
		t.Fatalf("Postflight: %v", err)
	}
	if report.TempFilesRemoved != 1 {
		t.Errorf("TempFilesRemoved = %d, want 1", report.TempFilesRemoved)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("stale temp file should be removed")
	}
}

func TestPostflight_KeepsFreshTemp(t *testing.T) {
	root := setupTestProject(t)
	history := filepath.Join(root, ".jira-import-history.json")
	writeTestFile(t, history+".tmp", "{")

	report, err := Postflight(PostflightOptions{HistoryFile: history})
	if err != nil {
		t.Fatalf("Postflight: %v", err)
	}
	if report.TempFilesRemoved != 0 {
		t.Errorf("fresh temp file should be kept, removed %d", report.TempFilesRemoved)
	}
}

func TestPostflight_DryRunKeepsStaleTemp(t *testing.T) {
	root := setupTestProject(t)
	history := filepath.Join(root, ".jira-import-history.json")
	tmp := history + ".tmp"
	writeTestFile(t, tmp, "{")
	ageFile(t, tmp, time.Hour)

	report, err := Postflight(PostflightOptions{HistoryFile: history, DryRun: true})
	if err != nil {
		t.Fatalf("Postflight: %v", err)
	}
	if report.TempFilesRemoved != 1 {
		t.Errorf("dry run should count the file, got %d", report.TempFilesRemoved)
	}
	if _, err := os.Stat(tmp); err != nil {
		t.Error("dry run should not remove the file")
	}
}
