package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/hupe1980/agentchat/core"
)

// BlockKind classifies a rendered HTML block.
type BlockKind string

const (
	BlockMarkdown BlockKind = "markdown"
	BlockMermaid  BlockKind = "mermaid"
	BlockImage    BlockKind = "image"
	BlockNote     BlockKind = "note"
	BlockRaw      BlockKind = "raw"
)

// Block is one rendered piece of a message. HTML is safe to insert into a
// page: user and assistant text is escaped or sanitized by the Markdown
// renderer (raw HTML is not passed through).
type Block struct {
	Kind BlockKind     `json:"kind"`
	HTML template.HTML `json:"html"`
}

// TurnView is a rendered history turn.
type TurnView struct {
	Role   core.Role `json:"role"`
	Blocks []Block   `json:"blocks"`
}

// HTMLOptions configure the HTML renderer.
type HTMLOptions struct {
	// FileURL maps an image file id to a URL served by the front-end. When
	// nil, image files are shown as an informational note.
	FileURL func(fileID string) string
}

// HTMLRenderer renders parts to HTML blocks using goldmark for prose.
type HTMLRenderer struct {
	md   goldmark.Markdown
	opts HTMLOptions
}

// NewHTMLRenderer creates an HTMLRenderer.
func NewHTMLRenderer(optFns ...func(o *HTMLOptions)) *HTMLRenderer {
	opts := HTMLOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
	return &HTMLRenderer{md: md, opts: opts}
}

// Markdown converts prose to HTML. Blank input yields an empty string.
func (r *HTMLRenderer) Markdown(text string) (template.HTML, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Text renders assistant text: prose through Markdown, Mermaid bodies as
// <pre class="mermaid"> blocks for client side rendering.
func (r *HTMLRenderer) Text(text string) ([]Block, error) {
	var blocks []Block
	for _, seg := range Split(text) {
		switch seg.Kind {
		case SegmentMermaid:
			blocks = append(blocks, Block{Kind: BlockMermaid, HTML: mermaidHTML(seg.Content)})
		default:
			h, err := r.Markdown(seg.Content)
			if err != nil {
				return nil, err
			}
			if h == "" {
				continue
			}
			blocks = append(blocks, Block{Kind: BlockMarkdown, HTML: h})
		}
	}
	return blocks, nil
}

// Parts renders the content parts of an assistant message.
func (r *HTMLRenderer) Parts(parts []core.Part) ([]Block, error) {
	var blocks []Block
	for _, p := range parts {
		switch v := p.(type) {
		case core.TextPart:
			b, err := r.Text(v.Text)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, b...)
		case core.ImageFilePart:
			blocks = append(blocks, r.imageFile(v.FileID))
		case core.ImageURLPart:
			blocks = append(blocks, imageURL(v.URL))
		case core.RawPart:
			blocks = append(blocks, rawBlock(v))
		}
	}
	return blocks, nil
}

// Turn renders a history turn. User turns are shown as Markdown without
// diagram extraction.
func (r *HTMLRenderer) Turn(t core.Turn) (TurnView, error) {
	view := TurnView{Role: t.Role, Blocks: []Block{}}
	if t.Role == core.RoleUser {
		h, err := r.Markdown(core.TextOf(t.Parts))
		if err != nil {
			return view, err
		}
		if h != "" {
			view.Blocks = append(view.Blocks, Block{Kind: BlockMarkdown, HTML: h})
		}
		return view, nil
	}

	blocks, err := r.Parts(t.Parts)
	if err != nil {
		return view, err
	}
	view.Blocks = append(view.Blocks, blocks...)
	return view, nil
}

// Turns renders a history.
func (r *HTMLRenderer) Turns(turns []core.Turn) ([]TurnView, error) {
	views := make([]TurnView, 0, len(turns))
	for _, t := range turns {
		v, err := r.Turn(t)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (r *HTMLRenderer) imageFile(fileID string) Block {
	if r.opts.FileURL == nil {
		return noteBlock(fmt.Sprintf("Agent returned an image file (id: %s). Downloading images is disabled.", fileID))
	}
	src := r.opts.FileURL(fileID)
	return Block{
		Kind: BlockImage,
		HTML: template.HTML(fmt.Sprintf(`<img src="%s" alt="%s">`, template.HTMLEscapeString(src), template.HTMLEscapeString("image "+fileID))),
	}
}

func imageURL(raw string) Block {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return noteBlock(fmt.Sprintf("Agent returned an image with an unsupported URL: %s", raw))
	}
	return Block{
		Kind: BlockImage,
		HTML: template.HTML(fmt.Sprintf(`<img src="%s" alt="image">`, template.HTMLEscapeString(u.String()))),
	}
}

func mermaidHTML(code string) template.HTML {
	return template.HTML(`<pre class="mermaid">` + template.HTMLEscapeString(code) + `</pre>`)
}

func noteBlock(msg string) Block {
	return Block{Kind: BlockNote, HTML: template.HTML(`<p class="note">` + template.HTMLEscapeString(msg) + `</p>`)}
}

func rawBlock(p core.RawPart) Block {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{"type": p.Type, "data": p.Data}); err != nil {
		buf.Reset()
		fmt.Fprintf(&buf, "%+v", p)
	}
	data := strings.TrimSpace(buf.String())
	return Block{Kind: BlockRaw, HTML: template.HTML(`<pre class="raw">` + template.HTMLEscapeString(data) + `</pre>`)}
}
