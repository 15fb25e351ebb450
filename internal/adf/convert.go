package adf

import (
	"regexp"
	"strings"
)

var (
	// Block patterns
	headingRegex     = regexp.MustCompile(`^(#{1,6}) (.*)`)
	orderedItemRegex = regexp.MustCompile(`^\d+\. `)
	bulletItemRegex  = regexp.MustCompile(`^[-*] `)
	checkboxRegex    = regexp.MustCompile(`^[-*] \[([ x])\] (.+)`)
	ruleRegex        = regexp.MustCompile(`^---+$`)
)

const (
	checkedPrefix   = "\u2611 "
	uncheckedPrefix = "\u2610 "
	fence           = "```"
)

// FromMarkdown converts description markdown into a document. It supports
// headings, fenced code, ordered and bullet lists (checkboxes become bullets
// with a ballot box prefix), rules and paragraphs, plus bold, italic, inline
// code and links inside text. Blank input yields the placeholder paragraph.
func FromMarkdown(markdown string) Document {
	if strings.TrimSpace(markdown) == "" {
		return NewDocument()
	}
	c := converter{lines: strings.Split(markdown, "\n")}
	c.run()
	return NewDocument(c.blocks...)
}

type converter struct {
	lines  []string
	pos    int
	blocks []Node
}

func (c *converter) run() {
	for c.pos < len(c.lines) {
		line := c.lines[c.pos]
		switch {
		case strings.HasPrefix(line, fence):
			c.codeBlock()
		case headingRegex.MatchString(line):
			c.heading(line)
		case orderedItemRegex.MatchString(line):
			c.orderedList()
		case bulletItemRegex.MatchString(line):
			c.bulletList()
		case ruleRegex.MatchString(line):
			c.blocks = append(c.blocks, Rule())
			c.pos++
		case strings.TrimSpace(line) == "":
			c.pos++
		default:
			c.paragraph()
		}
	}
}

func (c *converter) heading(line string) {
	c.pos++
	m := headingRegex.FindStringSubmatch(line)
	if m[2] == "" {
		return
	}
	c.blocks = append(c.blocks, Heading(len(m[1]), Inline(m[2])...))
}

// codeBlock consumes lines up to the closing fence or the end of input.
func (c *converter) codeBlock() {
	language := strings.TrimSpace(strings.TrimPrefix(c.lines[c.pos], fence))
	c.pos++

	var code []string
	for c.pos < len(c.lines) {
		line := c.lines[c.pos]
		c.pos++
		if strings.HasPrefix(line, fence) {
			break
		}
		code = append(code, line)
	}
	c.blocks = append(c.blocks, CodeBlock(language, strings.Join(code, "\n")))
}

func (c *converter) orderedList() {
	var items []Node
	for c.pos < len(c.lines) {
		line := c.lines[c.pos]
		loc := orderedItemRegex.FindStringIndex(line)
		if loc == nil {
			break
		}
		items = append(items, ListItem(Inline(line[loc[1]:])...))
		c.pos++
	}
	c.blocks = append(c.blocks, OrderedList(items...))
}

func (c *converter) bulletList() {
	var items []Node
	for c.pos < len(c.lines) {
		line := c.lines[c.pos]
		if m := checkboxRegex.FindStringSubmatch(line); m != nil {
			prefix := uncheckedPrefix
			if m[1] == "x" {
				prefix = checkedPrefix
			}
			items = append(items, ListItem(Inline(prefix+m[2])...))
			c.pos++
			continue
		}
		if !bulletItemRegex.MatchString(line) {
			break
		}
		items = append(items, ListItem(Inline(line[2:])...))
		c.pos++
	}
	c.blocks = append(c.blocks, BulletList(items...))
}

// paragraph joins consecutive plain lines with spaces. It always consumes
// the line it starts on.
func (c *converter) paragraph() {
	text := []string{c.lines[c.pos]}
	c.pos++
	for c.pos < len(c.lines) {
		line := c.lines[c.pos]
		if endsParagraph(line) {
			break
		}
		text = append(text, line)
		c.pos++
	}
	c.blocks = append(c.blocks, Paragraph(Inline(strings.Join(text, " "))...))
}

func endsParagraph(line string) bool {
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, fence) ||
		orderedItemRegex.MatchString(line) ||
		bulletItemRegex.MatchString(line) ||
		ruleRegex.MatchString(line) ||
		strings.TrimSpace(line) == ""
}
