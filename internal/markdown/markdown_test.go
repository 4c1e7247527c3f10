package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func render(t *testing.T, in string) string {
	t.Helper()
	return NewRenderer().Render(in)
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", render(t, ""))
}

func TestRender_BoldAndItalic(t *testing.T) {
	out := render(t, "**bold** and *italic*")

	assert.Equal(t, 1, strings.Count(out, "<p>"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
	assert.NotContains(t, out, "*")
}

func TestRender_CodeBlock(t *testing.T) {
	out := render(t, "```js\nconst x=1;\n```")

	assert.Contains(t, out, `<pre><code class="language-js">const x=1;</code></pre>`)
	assert.Equal(t, 1, strings.Count(out, "<pre>"))
	assert.NotContains(t, out, "<p>")
}

func TestRender_CodeBlockEscapes(t *testing.T) {
	out := render(t, "```\nif a < b && c > d {}\n```")

	assert.Contains(t, out, "<pre><code>")
	assert.Contains(t, out, "a &lt; b &amp;&amp; c &gt; d")
}

func TestRender_UnterminatedCodeBlock(t *testing.T) {
	out := render(t, "intro\n```go\nfmt.Println(1)")

	assert.Contains(t, out, "<p>intro</p>")
	assert.Contains(t, out, `<code class="language-go">fmt.Println(1)</code>`)
}

func TestRender_Headings(t *testing.T) {
	out := render(t, "# One\n## Two\n### Three\n#### Four")

	assert.Contains(t, out, "<h1>One</h1>")
	assert.Contains(t, out, "<h2>Two</h2>")
	assert.Contains(t, out, "<h3>Three</h3>")
	assert.Contains(t, out, "<p>#### Four</p>")
}

func TestRender_IndentedHeadingIsParagraph(t *testing.T) {
	out := render(t, "  # not a heading")

	assert.NotContains(t, out, "<h1>")
	assert.Contains(t, out, "# not a heading")
}

func TestRender_Lists(t *testing.T) {
	out := render(t, "Steps:\n1. first\n2. second\n\n- third\n+ fourth\nDone")

	assert.Contains(t, out, "<p>Steps:</p>")
	assert.Equal(t, 1, strings.Count(out, "<ul>"), "blank lines keep the list open")
	assert.Contains(t, out, "<li>first</li><li>second</li><li>third</li><li>fourth</li></ul>")
	assert.Contains(t, out, "<p>Done</p>")
	assert.NotContains(t, out, "<ol>")
}

func TestRender_Paragraphs(t *testing.T) {
	out := render(t, "line one\nline two\n\nnext para")

	assert.Contains(t, out, "<p>line one line two</p>")
	assert.Contains(t, out, "<p>next para</p>")
}

func TestRender_Links(t *testing.T) {
	out := render(t, "See [docs](https://example.com/docs).")

	assert.Contains(t, out, `href="https://example.com/docs"`)
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, ">docs</a>")
	assert.NotContains(t, out, "nofollow")
}

func TestRender_ExactOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"link keeps authored rel",
			"[a](http://x.com) <b>",
			`<p><a href="http://x.com" target="_blank" rel="noopener noreferrer">a</a> &lt;b&gt;</p>`,
		},
		{
			"quotes stay literal",
			`say "hi" & 'yo'`,
			`<p>say "hi" &amp; 'yo'</p>`,
		},
		{
			"quotes inside link text",
			`[the "best" one](https://example.com)`,
			`<p><a href="https://example.com" target="_blank" rel="noopener noreferrer">the "best" one</a></p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.in))
		})
	}
}

func TestRestoreQuotes_LeavesTagsAlone(t *testing.T) {
	in := `<a href="x?q=&#39;1&#39;">it&#39;s &#34;ok&#34;</a>`

	assert.Equal(t, `<a href="x?q=&#39;1&#39;">it's "ok"</a>`, restoreQuotes(in))
	assert.Equal(t, "plain", restoreQuotes("plain"))
}

func TestRender_SanitisesUnsafeLinks(t *testing.T) {
	out := render(t, "[click](javascript:alert(1))")

	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "click")
}

func TestRender_EscapesRawHTML(t *testing.T) {
	out := render(t, "<script>alert('x')</script> hi")

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestInline_CodeSpanIsProtected(t *testing.T) {
	out := Inline("use `**not bold**` here **bold**")

	assert.Equal(t, "use <code>**not bold**</code> here <strong>bold</strong>", out)
}

func TestInline_Order(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"escape", "a < b", "a &lt; b"},
		{"bold", "**x**", "<strong>x</strong>"},
		{"italic at start", "*x* y", "<em>x</em> y"},
		{"lone star", "2 * 3", "2 * 3"},
		{"link", "[a](b)", `<a href="b" target="_blank" rel="noopener noreferrer">a</a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Inline(tt.in))
		})
	}
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `&lt;a href="x"&gt;&amp;`, Escape(`<a href="x">&`))
}
