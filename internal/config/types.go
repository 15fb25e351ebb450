package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Secret wraps strings that should be redacted in logs and serialization.
// Use Value() to access the actual secret value.
type Secret string

// String implements fmt.Stringer. Always returns redacted value.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "Secret([REDACTED])"
}

// Value returns the actual secret value.
func (s Secret) Value() string {
	return string(s)
}

// IsSet returns true if the secret has a non-empty value.
func (s Secret) IsSet() bool {
	return s != ""
}

// MarshalJSON implements json.Marshaler. Always returns redacted value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalText implements encoding.TextMarshaler. Always returns redacted value.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Accepts raw secret values.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}

// IssueTypes names the tracker issue type used for each plan level.
type IssueTypes struct {
	Epic    string `toml:"epic"`
	Story   string `toml:"story"`
	Task    string `toml:"task"`
	Subtask string `toml:"subtask"`
}

// DefaultIssueTypes returns the stock tracker type names.
func DefaultIssueTypes() IssueTypes {
	return IssueTypes{Epic: "Epic", Story: "Story", Task: "Task", Subtask: "Subtask"}
}

// withDefaults fills any blank name from DefaultIssueTypes.
func (t IssueTypes) withDefaults() IssueTypes {
	d := DefaultIssueTypes()
	if t.Epic == "" {
		t.Epic = d.Epic
	}
	if t.Story == "" {
		t.Story = d.Story
	}
	if t.Task == "" {
		t.Task = d.Task
	}
	if t.Subtask == "" {
		t.Subtask = d.Subtask
	}
	return t
}

// MissingVarsError lists required settings that were not provided.
type MissingVarsError struct {
	Vars []string
}

func (e *MissingVarsError) Error() string {
	return fmt.Sprintf("missing required configuration: %s (set them in the environment, %s, or %s)",
		strings.Join(e.Vars, ", "), EnvFile, FileName)
}
