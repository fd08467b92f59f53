package core

// Part represents a polymorphic segment of message content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment. The text may embed Markdown and
// fenced diagram blocks.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ImageFilePart references an image stored by the agent service. The bytes
// must be fetched separately using the file id.
type ImageFilePart struct {
	FileID string
}

// isPart implements the Part interface for ImageFilePart.
func (ImageFilePart) isPart() {}

// ImageURLPart references an externally hosted image.
type ImageURLPart struct {
	URL string
}

// isPart implements the Part interface for ImageURLPart.
func (ImageURLPart) isPart() {}

// RawPart keeps a content part of an unknown kind so front-ends can still
// show it in a generic form.
type RawPart struct {
	Type string         // Content type reported by the service
	Data map[string]any // Decoded payload (best effort)
}

// isPart implements the Part interface for RawPart.
func (RawPart) isPart() {}

// TextOf concatenates the text parts in order, ignoring everything else.
func TextOf(parts []Part) string {
	var text string
	for _, p := range parts {
		if tp, ok := p.(TextPart); ok {
			text += tp.Text
		}
	}
	return text
}

// ImageFileIDs returns the file ids of all ImageFileParts preserving order.
func ImageFileIDs(parts []Part) []string {
	var ids []string
	for _, p := range parts {
		if ip, ok := p.(ImageFilePart); ok && ip.FileID != "" {
			ids = append(ids, ip.FileID)
		}
	}
	return ids
}
