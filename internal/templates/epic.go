// Package templates turns YAML epic templates into plan documents.
package templates

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// IssueTemplate represents a task within a phase template.
type IssueTemplate struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Assignee    string   `yaml:"assignee,omitempty"`
	Estimate    string   `yaml:"estimate,omitempty"` // Free text, e.g. "~4-6 hours"
	Labels      []string `yaml:"labels,omitempty"`
	Subtasks    []string `yaml:"subtasks,omitempty"` // Subtask titles
}

// Phase represents a phase in the epic template. Each phase becomes a story.
type Phase struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Priority    string          `yaml:"priority,omitempty"`
	Estimate    string          `yaml:"estimate,omitempty"`
	Labels      []string        `yaml:"labels,omitempty"`
	Issues      []IssueTemplate `yaml:"issues,omitempty"`
}

// EpicTemplate represents a reusable plan skeleton.
type EpicTemplate struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Assignee    string   `yaml:"assignee,omitempty"`
	Priority    string   `yaml:"priority,omitempty"`
	Labels      []string `yaml:"labels,omitempty"`
	Phases      []Phase  `yaml:"phases"`
}

// LoadTemplate parses a YAML template file and returns an EpicTemplate.
func LoadTemplate(path string) (*EpicTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template file: %w", err)
	}

	var template EpicTemplate
	if err := yaml.Unmarshal(data, &template); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := template.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &template, nil
}

// Validate checks that the template has valid structure and content.
func (t *EpicTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name is required")
	}

	if len(t.Phases) == 0 {
		return fmt.Errorf("template must have at least one phase")
	}

	phaseNames := make(map[string]bool)
	for i, phase := range t.Phases {
		if strings.TrimSpace(phase.Name) == "" {
			return fmt.Errorf("phase %d: name is required", i)
		}

		// Check for duplicate phase names
		if phaseNames[phase.Name] {
			return fmt.Errorf("duplicate phase name: %s", phase.Name)
		}
		phaseNames[phase.Name] = true

		for j, issue := range phase.Issues {
			if strings.TrimSpace(issue.Title) == "" {
				return fmt.Errorf("phase %s, issue %d: title is required", phase.Name, j)
			}
			for k, sub := range issue.Subtasks {
				if strings.TrimSpace(sub) == "" {
					return fmt.Errorf("phase %s, issue %d, subtask %d: title is required", phase.Name, j, k)
				}
			}
		}
	}

	return nil
}

// Render writes the template as a plan document: the template becomes the
// epic, phase n becomes "## STORY n:", issue m of that phase becomes
// "### TASK n.m:" and its subtasks "#### SUBTASK n.m.k:".
func (t *EpicTemplate) Render() (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## EPIC: %s\n", strings.TrimSpace(t.Name))
	writeMeta(&b, "Assignee", t.Assignee)
	writeMeta(&b, "Priority", t.Priority)
	writeLabels(&b, t.Labels)
	writeDescription(&b, t.Description)

	for i, phase := range t.Phases {
		n := i + 1
		fmt.Fprintf(&b, "\n---\n\n## STORY %d: %s\n", n, strings.TrimSpace(phase.Name))
		writeMeta(&b, "Priority", phase.Priority)
		writeMeta(&b, "Time Estimate", phase.Estimate)
		writeLabels(&b, phase.Labels)
		writeDescription(&b, phase.Description)

		for j, issue := range phase.Issues {
			m := j + 1
			fmt.Fprintf(&b, "\n### TASK %d.%d: %s\n", n, m, strings.TrimSpace(issue.Title))
			writeMeta(&b, "Assignee", issue.Assignee)
			writeMeta(&b, "Time Estimate", issue.Estimate)
			writeLabels(&b, issue.Labels)
			writeDescription(&b, issue.Description)

			for k, sub := range issue.Subtasks {
				fmt.Fprintf(&b, "\n#### SUBTASK %d.%d.%d: %s\n", n, m, k+1, strings.TrimSpace(sub))
			}
		}
	}

	return b.String(), nil
}

func writeMeta(b *strings.Builder, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "**%s:** %s\n", key, value)
	}
}

func writeLabels(b *strings.Builder, labels []string) {
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			quoted = append(quoted, "`"+l+"`")
		}
	}
	if len(quoted) > 0 {
		fmt.Fprintf(b, "**Labels:** %s\n", strings.Join(quoted, ", "))
	}
}

func writeDescription(b *strings.Builder, desc string) {
	if desc = strings.TrimSpace(desc); desc != "" {
		fmt.Fprintf(b, "\n%s\n", desc)
	}
}
