package adf

import "time"

// ToolName is the tool named in audit trails.
const ToolName = "dp2j"

// timestampLayout matches the millisecond ISO-8601 form trackers display.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// AuditTrail returns the provenance blocks placed ahead of an imported
// issue's description: a rule, the source file, the batch id, the import
// time and a closing rule.
func AuditTrail(sourcePath, batchID string, at time.Time) []Node {
	return []Node{
		Rule(),
		Paragraph(Text("Created by "), Code(ToolName), Text(" from: "), Code(sourcePath)),
		Paragraph(Text("Batch ID: "), Code(batchID)),
		Paragraph(Text("Import date: "), Code(at.UTC().Format(timestampLayout))),
		Rule(),
	}
}

// PrependAuditTrail returns a copy of doc whose content starts with the audit
// trail. doc itself is not modified.
func PrependAuditTrail(doc Document, sourcePath, batchID string, at time.Time) Document {
	trail := AuditTrail(sourcePath, batchID, at)
	content := make([]Node, 0, len(trail)+len(doc.Content))
	content = append(content, trail...)
	content = append(content, doc.Content...)
	doc.Content = content
	return doc
}
