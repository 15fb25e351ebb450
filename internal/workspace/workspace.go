// Package workspace provides project root detection and import pre/postflight checks.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound indicates no project root marker was found.
var ErrNotFound = errors.New("not in a project (no .dp2j.toml, .env.jira or .git found)")

// Markers identify a project root, checked in order at each level.
var Markers = []string{".dp2j.toml", ".env.jira", ".git"}

// FindRoot walks up from dir to the first directory holding a marker.
func FindRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}

	for {
		for _, m := range Markers {
			if _, err := os.Stat(filepath.Join(abs, m)); err == nil {
				return abs, nil
			}
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotFound
		}
		abs = parent
	}
}

// FindRootFromCwdOrError is FindRoot from the working directory.
func FindRootFromCwdOrError() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return FindRoot(cwd)
}

// FindRootFromCwd is FindRootFromCwdOrError falling back to the working
// directory itself when no marker is found.
func FindRootFromCwd() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	root, err := FindRoot(cwd)
	if errors.Is(err, ErrNotFound) {
		return cwd, nil
	}
	return root, err
}
