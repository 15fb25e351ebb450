// Package adf builds Atlassian Document Format trees, the rich-text JSON the
// tracker accepts in description and comment fields.
package adf

// Node types
const (
	TypeDoc         = "doc"
	TypeParagraph   = "paragraph"
	TypeHeading     = "heading"
	TypeCodeBlock   = "codeBlock"
	TypeBulletList  = "bulletList"
	TypeOrderedList = "orderedList"
	TypeListItem    = "listItem"
	TypeRule        = "rule"
	TypeText        = "text"
)

// Mark types
const (
	MarkStrong = "strong"
	MarkEm     = "em"
	MarkCode   = "code"
	MarkLink   = "link"
)

// EmptyText is the paragraph text used when a description is blank.
const EmptyText = "No description provided"

// Document is the root of an ADF tree. Content always holds at least one block.
type Document struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []Node `json:"content"`
}

// Node is a block or inline ADF node.
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark decorates a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// NewDocument wraps blocks in a document. An empty block list yields the
// placeholder paragraph.
func NewDocument(blocks ...Node) Document {
	if len(blocks) == 0 {
		blocks = []Node{Paragraph(Text(EmptyText))}
	}
	return Document{Type: TypeDoc, Version: 1, Content: blocks}
}

// Heading returns a heading block. Levels outside 1..6 are clamped.
func Heading(level int, inline ...Node) Node {
	level = min(max(level, 1), 6)
	return Node{Type: TypeHeading, Attrs: map[string]any{"level": level}, Content: inline}
}

// Paragraph returns a paragraph block.
func Paragraph(inline ...Node) Node {
	return Node{Type: TypeParagraph, Content: inline}
}

// CodeBlock returns a code block. An empty language omits the attribute.
func CodeBlock(language, text string) Node {
	n := Node{Type: TypeCodeBlock}
	if language != "" {
		n.Attrs = map[string]any{"language": language}
	}
	if text != "" {
		n.Content = []Node{Text(text)}
	}
	return n
}

// BulletList returns an unordered list of list items.
func BulletList(items ...Node) Node {
	return Node{Type: TypeBulletList, Content: items}
}

// OrderedList returns a numbered list of list items.
func OrderedList(items ...Node) Node {
	return Node{Type: TypeOrderedList, Content: items}
}

// ListItem wraps inline content in a list item holding one paragraph.
func ListItem(inline ...Node) Node {
	return Node{Type: TypeListItem, Content: []Node{Paragraph(inline...)}}
}

// Rule returns a horizontal rule.
func Rule() Node {
	return Node{Type: TypeRule}
}

// Text returns a plain text node.
func Text(s string) Node {
	return Node{Type: TypeText, Text: s}
}

// Strong returns bold text.
func Strong(s string) Node {
	return marked(s, Mark{Type: MarkStrong})
}

// Em returns italic text.
func Em(s string) Node {
	return marked(s, Mark{Type: MarkEm})
}

// Code returns inline code.
func Code(s string) Node {
	return marked(s, Mark{Type: MarkCode})
}

// Link returns link text pointing at href.
func Link(s, href string) Node {
	return marked(s, Mark{Type: MarkLink, Attrs: map[string]any{"href": href}})
}

func marked(s string, mark Mark) Node {
	return Node{Type: TypeText, Text: s, Marks: []Mark{mark}}
}
