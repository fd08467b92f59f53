package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
)

func TestHTMLRenderer_Text(t *testing.T) {
	r := NewHTMLRenderer()

	blocks, err := r.Text("Here:\n```mermaid\ngraph TD; A-->B\n```\nDone **now**.")
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, BlockMarkdown, blocks[0].Kind)
	assert.Contains(t, string(blocks[0].HTML), "Here:")
	assert.Equal(t, BlockMermaid, blocks[1].Kind)
	assert.Equal(t, `<pre class="mermaid">graph TD; A--&gt;B</pre>`, string(blocks[1].HTML))
	assert.Equal(t, BlockMarkdown, blocks[2].Kind)
	assert.Contains(t, string(blocks[2].HTML), "<strong>now</strong>")
}

func TestHTMLRenderer_SkipsBlankProse(t *testing.T) {
	r := NewHTMLRenderer()

	blocks, err := r.Text("```mermaid\ngraph LR\n```\n\n")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockMermaid, blocks[0].Kind)

	blocks, err = r.Text("   ")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestHTMLRenderer_EscapesRawHTML(t *testing.T) {
	r := NewHTMLRenderer()

	h, err := r.Markdown("<script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, string(h), "<script>")
}

func TestHTMLRenderer_GFMTable(t *testing.T) {
	r := NewHTMLRenderer()

	h, err := r.Markdown("| a | b |\n| - | - |\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, string(h), "<table>")
}

func TestHTMLRenderer_Parts(t *testing.T) {
	t.Run("image file without proxy", func(t *testing.T) {
		r := NewHTMLRenderer()
		blocks, err := r.Parts([]core.Part{core.ImageFilePart{FileID: "file_1"}})
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		assert.Equal(t, BlockNote, blocks[0].Kind)
		assert.Contains(t, string(blocks[0].HTML), "file_1")
	})

	t.Run("image file with proxy", func(t *testing.T) {
		r := NewHTMLRenderer(func(o *HTMLOptions) {
			o.FileURL = func(id string) string { return "/files/" + id }
		})
		blocks, err := r.Parts([]core.Part{core.ImageFilePart{FileID: "file_1"}})
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		assert.Equal(t, BlockImage, blocks[0].Kind)
		assert.Contains(t, string(blocks[0].HTML), `src="/files/file_1"`)
	})

	t.Run("image url", func(t *testing.T) {
		r := NewHTMLRenderer()
		blocks, err := r.Parts([]core.Part{
			core.ImageURLPart{URL: "https://example.com/a.png"},
			core.ImageURLPart{URL: "javascript:alert(1)"},
		})
		require.NoError(t, err)
		require.Len(t, blocks, 2)
		assert.Equal(t, BlockImage, blocks[0].Kind)
		assert.Contains(t, string(blocks[0].HTML), "https://example.com/a.png")
		assert.Equal(t, BlockNote, blocks[1].Kind)
		assert.NotContains(t, string(blocks[1].HTML), "<img")
	})

	t.Run("raw part", func(t *testing.T) {
		r := NewHTMLRenderer()
		blocks, err := r.Parts([]core.Part{core.RawPart{Type: "refusal", Data: map[string]any{"refusal": "<no>"}}})
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		assert.Equal(t, BlockRaw, blocks[0].Kind)
		assert.Contains(t, string(blocks[0].HTML), "refusal")
		assert.Contains(t, string(blocks[0].HTML), "&lt;no&gt;")
	})
}

func TestHTMLRenderer_Turns(t *testing.T) {
	r := NewHTMLRenderer()

	views, err := r.Turns([]core.Turn{
		core.NewUserTurn("show ```mermaid\ngraph TD\n```"),
		{Role: core.RoleAssistant, Parts: []core.Part{core.TextPart{Text: "```mermaid\ngraph TD\n```"}}},
	})
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, core.RoleUser, views[0].Role)
	require.Len(t, views[0].Blocks, 1)
	assert.Equal(t, BlockMarkdown, views[0].Blocks[0].Kind)

	assert.Equal(t, core.RoleAssistant, views[1].Role)
	require.Len(t, views[1].Blocks, 1)
	assert.Equal(t, BlockMermaid, views[1].Blocks[0].Kind)
	assert.True(t, strings.HasPrefix(string(views[1].Blocks[0].HTML), `<pre class="mermaid">`))
}
