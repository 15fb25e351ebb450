package workspace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PreflightReport contains the results of a preflight check.
type PreflightReport struct {
	PlanFile       string
	MappingExists  bool
	EnvFileIgnored bool
	EnvFilePresent bool
	Warnings       []string
}

// PreflightOptions configures the checks run before an import.
type PreflightOptions struct {
	Root        string
	PlanFile    string
	MappingFile string
	EnvFile     string
}

// Preflight checks the workspace before an import. A missing, unreadable or
// empty plan file is an error; everything else is reported as a warning.
func Preflight(opts PreflightOptions) (*PreflightReport, error) {
	report := &PreflightReport{PlanFile: opts.PlanFile}

	// 1. Plan file must be a readable, non-empty regular file
	info, err := os.Stat(opts.PlanFile)
	if err != nil {
		return nil, fmt.Errorf("plan file %s: %w", opts.PlanFile, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("plan file %s is a directory", opts.PlanFile)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("plan file %s is empty", opts.PlanFile)
	}

	// 2. An existing mapping file will be overwritten
	if opts.MappingFile != "" {
		if _, err := os.Stat(opts.MappingFile); err == nil {
			report.MappingExists = true
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Mapping file %s exists and will be overwritten", filepath.Base(opts.MappingFile)))
		}
	}

	// 3. Credentials file should never be committed
	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			report.EnvFilePresent = true
			ignored, err := isGitIgnored(opts.Root, filepath.Base(opts.EnvFile))
			if err != nil {
				report.Warnings = append(report.Warnings, fmt.Sprintf("Failed to read .gitignore: %v", err))
			}
			report.EnvFileIgnored = ignored
			if err == nil && !ignored {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("%s is not listed in .gitignore", filepath.Base(opts.EnvFile)))
			}
		}
	}

	return report, nil
}

// isGitIgnored reports whether the root .gitignore names file literally or
// through a leading-slash or trailing-star pattern. A missing .gitignore
// ignores nothing.
func isGitIgnored(root, file string) (bool, error) {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		pattern := strings.TrimSpace(sc.Text())
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		pattern = strings.TrimPrefix(pattern, "/")
		if pattern == file {
			return true, nil
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok && strings.HasPrefix(file, prefix) {
			return true, nil
		}
	}
	return false, sc.Err()
}
