// Package plan parses dev plan markdown into an Epic/Story/Task/Subtask tree
// and rewrites plan files with tracker links.
package plan

// Kind identifies the level of a plan node.
type Kind string

const (
	KindEpic    Kind = "epic"
	KindStory   Kind = "story"
	KindTask    Kind = "task"
	KindSubtask Kind = "subtask"
)

// Item holds the attributes shared by every plan node.
type Item struct {
	ID          string   `json:"id" yaml:"id"`                                       // EPIC, STORY-1, TASK-1.2, SUBTASK-1.2.3
	Summary     string   `json:"summary" yaml:"summary"`                             // Heading text, trimmed
	Description string   `json:"description,omitempty" yaml:"description,omitempty"` // Free text under the heading
	Assignee    string   `json:"assignee,omitempty" yaml:"assignee,omitempty"`       // Email-like string
	Priority    string   `json:"priority,omitempty" yaml:"priority,omitempty"`       // Epic and Story only
	Estimate    string   `json:"estimate,omitempty" yaml:"estimate,omitempty"`       // Story, Task and Subtask only
	Labels      []string `json:"labels" yaml:"labels"`                               // Backticks and whitespace stripped
}

// Epic is the root of a plan.
type Epic struct {
	Item `yaml:",inline"`
}

// Story groups tasks under the epic.
type Story struct {
	Item  `yaml:",inline"`
	Tasks []*Task `json:"tasks" yaml:"tasks"`
}

// Task is a unit of work under a story.
type Task struct {
	Item         `yaml:",inline"`
	Dependencies []string   `json:"dependencies" yaml:"dependencies"` // Reserved, never populated from markdown
	Subtasks     []*Subtask `json:"subtasks" yaml:"subtasks"`
}

// Subtask is the leaf level of a plan.
type Subtask struct {
	Item `yaml:",inline"`
}

// Plan is the result of parsing a plan document.
type Plan struct {
	Epic    *Epic    `json:"epic" yaml:"epic"`
	Stories []*Story `json:"stories" yaml:"stories"`
}

// Counts summarizes how many nodes of each kind a plan holds.
type Counts struct {
	Stories  int
	Tasks    int
	Subtasks int
}

// Total counts the epic plus every story, task and subtask.
func (c Counts) Total() int {
	return 1 + c.Stories + c.Tasks + c.Subtasks
}

// Counts walks the plan and tallies its nodes.
func (p *Plan) Counts() Counts {
	var c Counts
	c.Stories = len(p.Stories)
	for _, s := range p.Stories {
		c.Tasks += len(s.Tasks)
		for _, t := range s.Tasks {
			c.Subtasks += len(t.Subtasks)
		}
	}
	return c
}

// IDs returns every node id in creation order: the epic, then each story
// followed by its tasks and each task's subtasks.
func (p *Plan) IDs() []string {
	var ids []string
	if p.Epic != nil {
		ids = append(ids, p.Epic.ID)
	}
	for _, s := range p.Stories {
		ids = append(ids, s.ID)
		for _, t := range s.Tasks {
			ids = append(ids, t.ID)
			for _, st := range t.Subtasks {
				ids = append(ids, st.ID)
			}
		}
	}
	return ids
}
