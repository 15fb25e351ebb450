package plan

import (
	"regexp"
	"strings"
)

// headingRule matches one plan heading shape. Shared by the parser and
// HeadingID.
type headingRule struct {
	kind  Kind
	re    *regexp.Regexp
	idFor func(num string) string
}

var headingRules = []headingRule{
	// ## EPIC: x, ## EPIC-2: x
	{KindEpic, regexp.MustCompile(`^## (EPIC(?:-\d+)?): (.+)`), func(id string) string { return id }},
	// ## STORY 1: x, # STORY-1: x
	{KindStory, regexp.MustCompile(`^#{1,2} STORY[- ](\d+): (.+)`), prefixed("STORY-")},
	// ## TASK-1.2: x, ### TASK 1.2: x
	{KindTask, regexp.MustCompile(`^#{2,3} TASK[- ]([\d.]+): (.+)`), prefixed("TASK-")},
	// ### SUBTASK 1.2.3: x, #### SUBTASK-1.2.3: x, ### SUBTASK1.2.3: x
	{KindSubtask, regexp.MustCompile(`^#{3,4} SUBTASK[- ]?([\d.]+): (.+)`), prefixed("SUBTASK-")},
}

func prefixed(prefix string) func(string) string {
	return func(num string) string { return prefix + num }
}

var (
	// Plan ids as produced by the parser
	epicIDRegex     = regexp.MustCompile(`^EPIC-(\d+)$`)
	numberedIDRegex = regexp.MustCompile(`^(?:STORY|TASK|SUBTASK)-([\d.]+)$`)
)

// matchHeading returns the kind, id and trimmed summary of a plan heading.
func matchHeading(line string) (Kind, string, string, bool) {
	for _, rule := range headingRules {
		if m := rule.re.FindStringSubmatch(line); m != nil {
			return rule.kind, rule.idFor(m[1]), strings.TrimSpace(m[2]), true
		}
	}
	return "", "", "", false
}

// HeadingID returns the plan node id a heading line introduces, or "" when
// the line is not an Epic, Story, Task or Subtask heading.
func HeadingID(line string) string {
	_, id, _, ok := matchHeading(line)
	if !ok {
		return ""
	}
	return id
}

// PlanItemID returns the numeric plan id used in issue summaries:
// EPIC -> "1", EPIC-2 -> "2", STORY-1 -> "1", TASK-1.1 -> "1.1".
func PlanItemID(id string) string {
	if id == "EPIC" {
		return "1"
	}
	if m := epicIDRegex.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	if m := numberedIDRegex.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	return ""
}

// SummaryWithPlanID prefixes a summary with its plan id ("1.1 Build it")
// unless the summary already starts with it.
func SummaryWithPlanID(id, summary string) string {
	planID := PlanItemID(id)
	if planID == "" || summary == "" {
		return summary
	}
	trimmed := strings.TrimSpace(summary)
	if strings.HasPrefix(trimmed, planID+" ") || strings.HasPrefix(trimmed, planID+".") {
		return trimmed
	}
	return planID + " " + trimmed
}
