package htmlpage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.SnapshotSource = (*SnapshotSource)(nil)

var (
	displayPattern    = regexp.MustCompile(`(?i)(?:^|;)\s*display\s*:\s*([a-z-]+)`)
	visibilityPattern = regexp.MustCompile(`(?i)(?:^|;)\s*visibility\s*:\s*([a-z-]+)`)
)

// SnapshotSource snapshots pages from their static HTML.
type SnapshotSource struct {
	fetcher *Fetcher
}

// NewSnapshotSource creates a static snapshot source.
func NewSnapshotSource(fetcher *Fetcher) *SnapshotSource {
	return &SnapshotSource{fetcher: fetcher}
}

// Snapshot fetches pageURL and parses its body.
func (s *SnapshotSource) Snapshot(ctx context.Context, pageURL string) (*domain.PageSnapshot, error) {
	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return Parse(page.Body, page.URL)
}

// Close is a no-op.
func (s *SnapshotSource) Close() error { return nil }

// Parse builds a snapshot from an HTML document. Relative hrefs are resolved
// against pageURL, or against the document's <base> when present.
func Parse(body []byte, pageURL string) (*domain.PageSnapshot, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: page url: %v", domain.ErrInvalidInput, err)
	}
	if href := findBaseHref(doc); href != "" {
		if u, err := base.Parse(href); err == nil {
			base = u
		}
	}

	snap := &domain.PageSnapshot{
		Page: domain.PageInfo{Title: findTitle(doc), URL: pageURL},
		Root: domain.Element("body", nil),
	}
	if b := findElement(doc, atom.Body); b != nil {
		snap.Root = convert(b, base)
	}
	return snap, nil
}

// convert copies an element subtree. Comments and doctype nodes are dropped.
func convert(n *html.Node, base *url.URL) *domain.DOMNode {
	out := &domain.DOMNode{Kind: domain.ElementNode, Tag: strings.ToLower(n.Data)}

	if len(n.Attr) > 0 {
		out.Attrs = make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			out.Attrs[strings.ToLower(a.Key)] = a.Val
		}
	}
	out.Display, out.Visibility = inlineVisibility(out.Attrs)

	if out.Tag == "a" {
		if href, ok := out.Attrs["href"]; ok {
			out.Attrs["href"] = resolve(base, href)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			out.Children = append(out.Children, domain.Text(c.Data))
		case html.ElementNode:
			out.Children = append(out.Children, convert(c, base))
		}
	}
	return out
}

// inlineVisibility derives display and visibility from the style and hidden
// attributes. Stylesheets are not evaluated.
func inlineVisibility(attrs map[string]string) (display, visibility string) {
	style := attrs["style"]
	if m := displayPattern.FindStringSubmatch(style); m != nil {
		display = strings.ToLower(m[1])
	}
	if m := visibilityPattern.FindStringSubmatch(style); m != nil {
		visibility = strings.ToLower(m[1])
	}
	if _, hidden := attrs["hidden"]; hidden && display == "" {
		display = "none"
	}
	return display, visibility
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil || href == "" {
		return href
	}
	u, err := base.Parse(href)
	if err != nil {
		return href
	}
	return u.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findTitle(doc *html.Node) string {
	t := findElement(doc, atom.Title)
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(t.FirstChild.Data)
}

func findBaseHref(doc *html.Node) string {
	head := findElement(doc, atom.Head)
	if head == nil {
		return ""
	}
	b := findElement(head, atom.Base)
	if b == nil {
		return ""
	}
	for _, a := range b.Attr {
		if a.Key == "href" {
			return a.Val
		}
	}
	return ""
}
