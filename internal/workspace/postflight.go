package workspace

import (
	"fmt"
	"os"
	"time"
)

// staleTempAge is how old a leftover .tmp file must be before it is removed.
const staleTempAge = time.Minute

// PostflightReport contains the results of a postflight cleanup.
type PostflightReport struct {
	TempFilesRemoved int
	MappingWritten   bool
	Warnings         []string
}

// PostflightOptions configures postflight cleanup behavior.
type PostflightOptions struct {
	MappingFile string
	HistoryFile string
	DryRun      bool
}

// Postflight runs after an import. It confirms the mapping file was written
// and removes temp files left by interrupted history or mapping writes.
func Postflight(opts PostflightOptions) (*PostflightReport, error) {
	report := &PostflightReport{}

	// 1. Mapping file should exist after a real import
	if !opts.DryRun && opts.MappingFile != "" {
		if _, err := os.Stat(opts.MappingFile); err == nil {
			report.MappingWritten = true
		} else {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Mapping file %s not found", opts.MappingFile))
		}
	}

	// 2. Clean temp files from interrupted writes
	for _, path := range []string{opts.MappingFile, opts.HistoryFile} {
		if path == "" {
			continue
		}
		removed, err := removeStaleTemp(path+".tmp", opts.DryRun)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("Failed to remove %s.tmp: %v", path, err))
			continue
		}
		if removed {
			report.TempFilesRemoved++
		}
	}

	return report, nil
}

// removeStaleTemp deletes path when it is older than staleTempAge. In dry-run
// mode it only reports whether it would.
func removeStaleTemp(path string, dryRun bool) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if time.Since(info.ModTime()) < staleTempAge {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	if err := os.Remove(path); err != nil {
		return false, err
	}
	return true, nil
}
