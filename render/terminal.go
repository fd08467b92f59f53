package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/agentchat/core"
)

// TerminalOptions configure the terminal renderer.
type TerminalOptions struct {
	Width int // Wrap width in cells; <= 0 disables wrapping

	// MarkdownStyle is a glamour style name ("dark", "light", "notty",
	// "auto") or a path to a JSON style file.
	MarkdownStyle string

	UserStyle      lipgloss.Style
	AssistantStyle lipgloss.Style
	DiagramStyle   lipgloss.Style
	TitleStyle     lipgloss.Style
	NoteStyle      lipgloss.Style
}

// TerminalRenderer renders turns for a terminal. Prose goes through glamour,
// diagrams and notes through lipgloss. Not safe for concurrent use.
type TerminalRenderer struct {
	opts TerminalOptions
	md   *glamour.TermRenderer
}

// NewTerminalRenderer creates a TerminalRenderer with default styles.
func NewTerminalRenderer(optFns ...func(o *TerminalOptions)) *TerminalRenderer {
	opts := TerminalOptions{
		Width:          80,
		MarkdownStyle:  "dark",
		UserStyle:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		AssistantStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		DiagramStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("13")).
			Padding(0, 1),
		TitleStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Italic(true),
		NoteStyle:  lipgloss.NewStyle().Faint(true).Italic(true),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TerminalRenderer{opts: opts}
}

// SetWidth changes the wrap width, e.g. after a terminal resize.
func (r *TerminalRenderer) SetWidth(width int) {
	if width != r.opts.Width {
		r.md = nil
	}
	r.opts.Width = width
}

// Turns renders a whole history separated by blank lines.
func (r *TerminalRenderer) Turns(turns []core.Turn) string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, r.Turn(t))
	}
	return strings.Join(out, "\n\n")
}

// Turn renders a single turn with a role header.
func (r *TerminalRenderer) Turn(t core.Turn) string {
	var b strings.Builder
	if t.Role == core.RoleUser {
		b.WriteString(r.opts.UserStyle.Render("You"))
		b.WriteString("\n")
		b.WriteString(r.markdown(core.TextOf(t.Parts)))
		return b.String()
	}

	b.WriteString(r.opts.AssistantStyle.Render("Agent"))
	body := r.Parts(t.Parts)
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}
	return b.String()
}

// Parts renders assistant content parts.
func (r *TerminalRenderer) Parts(parts []core.Part) string {
	var blocks []string
	for _, p := range parts {
		switch v := p.(type) {
		case core.TextPart:
			blocks = append(blocks, r.text(v.Text)...)
		case core.ImageFilePart:
			blocks = append(blocks, r.note(fmt.Sprintf("[image file %s]", v.FileID)))
		case core.ImageURLPart:
			blocks = append(blocks, r.note(fmt.Sprintf("[image %s]", v.URL)))
		case core.RawPart:
			data, err := json.MarshalIndent(v.Data, "", "  ")
			if err != nil {
				data = []byte(fmt.Sprintf("%v", v.Data))
			}
			blocks = append(blocks, r.note(fmt.Sprintf("[%s]", v.Type))+"\n"+string(data))
		}
	}
	return strings.Join(blocks, "\n")
}

func (r *TerminalRenderer) text(text string) []string {
	var blocks []string
	for _, seg := range Split(text) {
		if seg.Kind == SegmentMermaid {
			blocks = append(blocks, r.diagram(seg.Content))
			continue
		}
		prose := strings.TrimSpace(seg.Content)
		if prose == "" {
			continue
		}
		blocks = append(blocks, r.markdown(prose))
	}
	return blocks
}

// markdown renders prose with glamour, falling back to wrapped plain text
// when the renderer cannot be built.
func (r *TerminalRenderer) markdown(text string) string {
	if r.md == nil {
		md, err := glamour.NewTermRenderer(
			glamour.WithStylePath(r.opts.MarkdownStyle),
			glamour.WithWordWrap(max(r.opts.Width, 0)),
		)
		if err != nil {
			return r.wrap(text)
		}
		r.md = md
	}
	out, err := r.md.Render(text)
	if err != nil {
		return r.wrap(text)
	}
	return strings.Trim(out, "\n")
}

func (r *TerminalRenderer) diagram(code string) string {
	body := r.opts.TitleStyle.Render("mermaid") + "\n" + code
	style := r.opts.DiagramStyle
	if r.opts.Width > 4 {
		style = style.MaxWidth(r.opts.Width)
	}
	return style.Render(body)
}

func (r *TerminalRenderer) note(s string) string {
	return r.opts.NoteStyle.Render(r.wrap(s))
}

func (r *TerminalRenderer) wrap(s string) string {
	if r.opts.Width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(r.opts.Width).Render(s)
}
