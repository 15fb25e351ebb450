package plan

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	// Metadata patterns
	assigneeRegex = regexp.MustCompile(`^\*\*Assignee:\*\* (.+)`)
	priorityRegex = regexp.MustCompile(`^\*\*Priority:\*\* (.+)`)
	estimateRegex = regexp.MustCompile(`^\*\*Time Estimate:\*\* (.+)`)
	labelsRegex   = regexp.MustCompile(`^\*\*Labels:\*\* (.+)`)

	// Lines that end a description block
	boundaryRegex = regexp.MustCompile(`^(#{1,3} |---)`)
)

// ParseReader reads a whole plan document and parses it.
func ParseReader(r io.Reader, log *zap.Logger) (*Plan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Parse(string(data), log), nil
}

// Parse builds the Epic/Story/Task/Subtask tree of a plan document in one
// pass. It never fails: malformed or misplaced sections are dropped. A nil
// logger discards the orphan subtask warning.
func Parse(content string, log *zap.Logger) *Plan {
	if log == nil {
		log = zap.NewNop()
	}
	p := &parser{
		log:    log,
		result: &Plan{Stories: make([]*Story, 0)},
	}
	for _, line := range strings.Split(content, "\n") {
		p.line(strings.TrimSuffix(line, "\r"))
	}
	p.flushDescription()
	p.closeSubtask()
	p.closeTask()
	p.closeStory()
	return p.result
}

// parser holds the scan cursors. Each cursor is nil once its node has been
// handed to its parent.
type parser struct {
	log    *zap.Logger
	result *Plan

	story   *Story
	task    *Task
	subtask *Subtask
	section Kind // level that metadata and description lines apply to

	description []string
}

func (p *parser) line(line string) {
	kind, id, summary, isHeading := matchHeading(line)

	// Pending description belongs to the section that was open before this line.
	if isHeading || boundaryRegex.MatchString(line) {
		p.flushDescription()
	}

	if isHeading {
		p.open(kind, id, summary)
		return
	}

	if p.metadata(line) {
		return
	}

	if strings.TrimSpace(line) == "" || isStructural(line) {
		return
	}
	p.description = append(p.description, line)
}

func (p *parser) open(kind Kind, id, summary string) {
	item := Item{ID: id, Summary: summary, Labels: make([]string, 0)}
	switch kind {
	case KindEpic:
		p.result.Epic = &Epic{Item: item}
	case KindStory:
		p.closeSubtask()
		p.closeTask()
		p.closeStory()
		p.story = &Story{Item: item, Tasks: make([]*Task, 0)}
	case KindTask:
		p.closeSubtask()
		p.closeTask()
		p.task = &Task{Item: item, Dependencies: make([]string, 0), Subtasks: make([]*Subtask, 0)}
	case KindSubtask:
		p.closeSubtask()
		p.subtask = &Subtask{Item: item}
	}
	p.section = kind
}

// metadata applies a **Key:** line to the open section and reports whether
// the line was a metadata line.
func (p *parser) metadata(line string) bool {
	if m := assigneeRegex.FindStringSubmatch(line); m != nil {
		if item := p.current(); item != nil {
			item.Assignee = strings.TrimSpace(m[1])
		}
		return true
	}
	if m := priorityRegex.FindStringSubmatch(line); m != nil {
		if item := p.current(); item != nil && (p.section == KindEpic || p.section == KindStory) {
			item.Priority = strings.TrimSpace(m[1])
		}
		return true
	}
	if m := estimateRegex.FindStringSubmatch(line); m != nil {
		if item := p.current(); item != nil && p.section != KindEpic {
			item.Estimate = strings.TrimSpace(m[1])
		}
		return true
	}
	if m := labelsRegex.FindStringSubmatch(line); m != nil {
		if item := p.current(); item != nil {
			item.Labels = splitLabels(m[1])
		}
		return true
	}
	return false
}

// current returns the item of the open section, if any.
func (p *parser) current() *Item {
	switch p.section {
	case KindEpic:
		if p.result.Epic != nil {
			return &p.result.Epic.Item
		}
	case KindStory:
		if p.story != nil {
			return &p.story.Item
		}
	case KindTask:
		if p.task != nil {
			return &p.task.Item
		}
	case KindSubtask:
		if p.subtask != nil {
			return &p.subtask.Item
		}
	}
	return nil
}

func (p *parser) flushDescription() {
	if len(p.description) == 0 {
		return
	}
	desc := strings.TrimSpace(strings.Join(p.description, "\n"))
	p.description = p.description[:0]
	item := p.current()
	if item == nil || desc == "" {
		return
	}
	if item.Description != "" {
		item.Description += "\n\n" + desc
		return
	}
	item.Description = desc
}

func (p *parser) closeSubtask() {
	if p.subtask == nil {
		return
	}
	if p.task == nil {
		p.log.Warn("discarding subtask with no open task",
			zap.String("id", p.subtask.ID),
			zap.String("summary", p.subtask.Summary))
	} else {
		p.task.Subtasks = append(p.task.Subtasks, p.subtask)
	}
	p.subtask = nil
}

// closeTask attaches the open task to the open story when the task number
// belongs to that story. Mismatched tasks are dropped.
func (p *parser) closeTask() {
	if p.task == nil {
		return
	}
	if p.story != nil && storyNumber(p.task.ID) == storyNumber(p.story.ID) {
		p.story.Tasks = append(p.story.Tasks, p.task)
	}
	p.task = nil
}

func (p *parser) closeStory() {
	if p.story == nil {
		return
	}
	p.result.Stories = append(p.result.Stories, p.story)
	p.story = nil
}

// storyNumber returns the leading numeric segment of a story or task id:
// STORY-3 -> "3", TASK-3.2 -> "3".
func storyNumber(id string) string {
	num := PlanItemID(id)
	if i := strings.IndexByte(num, '.'); i >= 0 {
		return num[:i]
	}
	return num
}

// isStructural reports lines that are never description text.
func isStructural(line string) bool {
	return strings.HasPrefix(line, "---") ||
		strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "**")
}

func splitLabels(value string) []string {
	labels := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		label := strings.TrimSpace(strings.ReplaceAll(part, "`", ""))
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}
