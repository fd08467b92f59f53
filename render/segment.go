// Package render turns assistant content into display blocks. Text is split
// into alternating prose and Mermaid diagram segments; each front-end then
// renders the segments with its own primitives (HTML or terminal).
package render

import (
	"regexp"
	"strings"
)

// diagramPattern matches a fenced Mermaid block and captures its body.
var diagramPattern = regexp.MustCompile("(?i)```mermaid\\s+([\\s\\S]*?)```")

// SegmentKind distinguishes prose from diagram markup.
type SegmentKind string

const (
	// SegmentMarkdown is free-form prose, possibly Markdown.
	SegmentMarkdown SegmentKind = "markdown"
	// SegmentMermaid is the body of a fenced Mermaid block.
	SegmentMermaid SegmentKind = "mermaid"
)

// Segment is one piece of a split text.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Content string      `json:"content"`
}

// Split breaks text into prose and diagram segments in document order.
// Prose is kept verbatim; diagram bodies are trimmed of surrounding
// whitespace. Text without diagram fences yields a single prose segment.
func Split(text string) []Segment {
	var segments []Segment
	last := 0
	for _, m := range diagramPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Kind: SegmentMarkdown, Content: text[last:m[0]]})
		}
		segments = append(segments, Segment{Kind: SegmentMermaid, Content: strings.TrimSpace(text[m[2]:m[3]])})
		last = m[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Kind: SegmentMarkdown, Content: text[last:]})
	}
	return segments
}
