package adf

import "regexp"

type inlineKind int

const (
	inlineLink inlineKind = iota
	inlineBold
	inlineItalic
	inlineCode
)

// Inline patterns, in tie-break order.
var inlinePatterns = []struct {
	kind inlineKind
	re   *regexp.Regexp
}{
	{inlineLink, regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)},
	{inlineBold, regexp.MustCompile(`\*\*([^*]+)\*\*`)},
	{inlineItalic, regexp.MustCompile(`\*([^*]+)\*`)},
	{inlineCode, regexp.MustCompile("`([^`]+)`")},
}

type inlineMatch struct {
	kind       inlineKind
	start, end int
	text, href string
}

// Inline splits text into text nodes. Text is claimed left to right: the
// match of any pattern that starts earliest wins, ties go to the pattern
// listed first, and a claimed range is never scanned again, so formatting
// does not nest. Text between matches becomes plain text. The result is
// never empty.
func Inline(text string) []Node {
	var nodes []Node
	last := 0
	for last < len(text) {
		m, ok := nextMatch(text, last)
		if !ok {
			break
		}
		if m.start > last {
			nodes = append(nodes, Text(text[last:m.start]))
		}
		nodes = append(nodes, m.node())
		last = m.end
	}
	if last < len(text) {
		nodes = append(nodes, Text(text[last:]))
	}
	if len(nodes) == 0 {
		return []Node{Text(text)}
	}
	return nodes
}

// nextMatch finds the earliest match at or after offset.
func nextMatch(text string, offset int) (inlineMatch, bool) {
	var best inlineMatch
	found := false
	rest := text[offset:]
	for _, p := range inlinePatterns {
		loc := p.re.FindStringSubmatchIndex(rest)
		if loc == nil || (found && offset+loc[0] >= best.start) {
			continue
		}
		best = inlineMatch{
			kind:  p.kind,
			start: offset + loc[0],
			end:   offset + loc[1],
			text:  rest[loc[2]:loc[3]],
		}
		if p.kind == inlineLink {
			best.href = rest[loc[4]:loc[5]]
		}
		found = true
	}
	return best, found
}

func (m inlineMatch) node() Node {
	switch m.kind {
	case inlineLink:
		return Link(m.text, m.href)
	case inlineBold:
		return Strong(m.text)
	case inlineItalic:
		return Em(m.text)
	default:
		return Code(m.text)
	}
}
