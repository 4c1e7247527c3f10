// Package markdown renders assistant replies to HTML.
//
// The renderer is a small line-oriented state machine covering the subset
// models actually produce: fenced code, three heading levels, flat lists,
// paragraphs and inline code, bold, italic and links. Output is passed
// through a bluemonday policy that allows exactly that element set.
package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	listItemPattern = regexp.MustCompile(`^([*\-+]|\d+\.) `)
	codeSpanPattern = regexp.MustCompile("`([^`]+)`")
	boldPattern     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern   = regexp.MustCompile(`(^|[^*])\*([^*\n]+?)\*([^*]|$)`)
	linkPattern     = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	placeholder     = regexp.MustCompile("\x00(\\d+)\x00")
	languageClass   = regexp.MustCompile(`^language-[\w+#.\-]+$`)
)

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape replaces &, < and > with entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Renderer converts markdown to sanitised HTML. It is safe for concurrent use.
type Renderer struct {
	policy *bluemonday.Policy
}

// NewRenderer creates a renderer with the default sanitisation policy.
func NewRenderer() *Renderer {
	return &Renderer{policy: Policy()}
}

// Policy returns the sanitisation policy for rendered replies.
func Policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "h1", "h2", "h3", "ul", "li", "pre", "code", "strong", "em", "a")
	p.AllowAttrs("class").Matching(languageClass).OnElements("code")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^noopener noreferrer$`)).OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(false)
	return p
}

// Render converts text to HTML. Empty input renders as "".
func (r *Renderer) Render(text string) string {
	if text == "" {
		return ""
	}
	return restoreQuotes(r.policy.Sanitize(renderBlocks(text)))
}

var quoteEntities = strings.NewReplacer("&#34;", `"`, "&#39;", "'")

// restoreQuotes undoes the quote escaping bluemonday applies to text nodes.
// Text only ever escapes &, < and >; attribute values are left as written.
func restoreQuotes(html string) string {
	if !strings.Contains(html, "&#3") {
		return html
	}
	var b strings.Builder
	b.Grow(len(html))
	for html != "" {
		open := strings.IndexByte(html, '<')
		if open < 0 {
			b.WriteString(quoteEntities.Replace(html))
			break
		}
		b.WriteString(quoteEntities.Replace(html[:open]))
		end := strings.IndexByte(html[open:], '>')
		if end < 0 {
			b.WriteString(html[open:])
			break
		}
		b.WriteString(html[open : open+end+1])
		html = html[open+end+1:]
	}
	return b.String()
}

type blockState struct {
	out strings.Builder

	inCode   bool
	codeLang string
	code     strings.Builder

	inList bool
	inPara bool
}

func (s *blockState) closePara() {
	if s.inPara {
		s.out.WriteString("</p>")
		s.inPara = false
	}
}

func (s *blockState) closeList() {
	if s.inList {
		s.out.WriteString("</ul>")
		s.inList = false
	}
}

func (s *blockState) flushCode() {
	if s.codeLang != "" {
		fmt.Fprintf(&s.out, `<pre><code class="language-%s">`, Escape(s.codeLang))
	} else {
		s.out.WriteString("<pre><code>")
	}
	s.out.WriteString(Escape(strings.TrimSpace(s.code.String())))
	s.out.WriteString("</code></pre>")
	s.code.Reset()
	s.codeLang = ""
	s.inCode = false
}

// renderBlocks runs the line state machine and returns unsanitised HTML.
func renderBlocks(text string) string {
	s := &blockState{}

	for _, original := range strings.Split(text, "\n") {
		line := strings.TrimSpace(original)

		if strings.HasPrefix(line, "```") {
			if s.inCode {
				s.flushCode()
				s.inPara = false
			} else {
				s.closePara()
				s.closeList()
				s.inCode = true
				s.codeLang = strings.TrimSpace(line[3:])
			}
			continue
		}

		if s.inCode {
			s.code.WriteString(original)
			s.code.WriteString("\n")
			continue
		}

		if level, rest, ok := heading(original); ok {
			s.closeList()
			s.closePara()
			fmt.Fprintf(&s.out, "<h%d>%s</h%d>", level, Inline(strings.TrimSpace(rest)), level)
			continue
		}

		if listItemPattern.MatchString(line) {
			s.closePara()
			if !s.inList {
				s.out.WriteString("<ul>")
				s.inList = true
			}
			item := listItemPattern.ReplaceAllString(line, "")
			s.out.WriteString("<li>" + Inline(item) + "</li>")
			continue
		}

		// Blank lines end paragraphs but keep a list open.
		if line == "" {
			s.closePara()
			continue
		}
		s.closeList()

		if s.inPara {
			s.out.WriteString(" ")
		} else {
			s.out.WriteString("<p>")
			s.inPara = true
		}
		s.out.WriteString(Inline(original))
	}

	if s.inCode {
		s.flushCode()
	}
	s.closeList()
	s.closePara()

	html := s.out.String()
	if !strings.Contains(html, "<") {
		html = "<p>" + html + "</p>"
	}
	return html
}

// heading matches "# ", "## " and "### " at the very start of the line.
func heading(line string) (int, string, bool) {
	for level := 3; level >= 1; level-- {
		prefix := strings.Repeat("#", level) + " "
		if strings.HasPrefix(line, prefix) {
			return level, line[len(prefix):], true
		}
	}
	return 0, "", false
}

// Inline escapes text and applies code spans, bold, italic and links, in
// that order. Code span contents are protected from the later passes.
func Inline(text string) string {
	html := Escape(text)

	var spans []string
	html = codeSpanPattern.ReplaceAllStringFunc(html, func(m string) string {
		spans = append(spans, "<code>"+m[1:len(m)-1]+"</code>")
		return fmt.Sprintf("\x00%d\x00", len(spans)-1)
	})

	html = boldPattern.ReplaceAllString(html, "<strong>$1</strong>")
	html = italicPattern.ReplaceAllString(html, "$1<em>$2</em>$3")
	html = linkPattern.ReplaceAllString(html, `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`)

	if len(spans) > 0 {
		html = placeholder.ReplaceAllStringFunc(html, func(m string) string {
			i, err := strconv.Atoi(m[1 : len(m)-1])
			if err != nil || i >= len(spans) {
				return m
			}
			return spans[i]
		})
	}
	return html
}
