// Package extract turns a DOM snapshot into a SemanticDocument.
//
// The pipeline: snapshot → filtered pre-order walk → table detection →
// per-element extraction. Every function is pure over domain.DOMNode, so the
// heuristics can be exercised against fixture trees without a browser.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// minNodeText is the shortest trimmed text an ordinary element needs to be kept.
const minNodeText = 2

// Document extracts the visible content of a snapshot.
// A nil snapshot or root yields an empty document.
func Document(snapshot *domain.PageSnapshot) *domain.SemanticDocument {
	doc := &domain.SemanticDocument{Content: []domain.ContentNode{}}
	if snapshot == nil {
		return doc
	}
	doc.Page = snapshot.Page
	if snapshot.Root == nil {
		return doc
	}

	w := &walker{}
	for _, child := range snapshot.Root.Elements() {
		w.visit(child)
	}
	doc.Content = w.nodes
	return doc
}

type walker struct {
	nodes []domain.ContentNode
}

// visit handles n and, unless n was consumed or rejected, its subtree.
func (w *walker) visit(n *domain.DOMNode) {
	if rejected(n) {
		return
	}

	if IsCandidate(n) {
		if table, ok := DetectTable(n); ok {
			w.nodes = append(w.nodes, table)
			return
		}
	}

	if node, ok := Element(n); ok {
		w.nodes = append(w.nodes, node)
		if n.Tag == "table" {
			return
		}
	}

	for _, child := range n.Elements() {
		w.visit(child)
	}
}

// rejected reports whether the walk skips n and everything below it.
func rejected(n *domain.DOMNode) bool {
	if n == nil || !n.IsElement() {
		return true
	}
	switch n.Tag {
	case "script", "style":
		return true
	}
	if n.Display == "none" || n.Visibility == "hidden" {
		return true
	}
	return n.AttrOr("aria-hidden") == "true"
}

// Element performs ordinary extraction of a single element.
// It returns false when the element's trimmed text is shorter than two characters.
func Element(n *domain.DOMNode) (domain.ContentNode, bool) {
	text := n.TrimmedText()
	if utf8.RuneCountInString(text) < minNodeText {
		return domain.ContentNode{}, false
	}

	node := domain.ContentNode{
		Tag:  n.Tag,
		Text: domain.ClipText(text, domain.MaxNodeText),
	}

	switch n.Tag {
	case "table":
		node.Type = domain.ContentTypeTable
		node.Rows = literalRows(n)
	case "a":
		node.Href = n.AttrOr("href")
	case "input":
		node.InputType = n.AttrOr("type")
		if node.InputType == "" {
			node.InputType = "text"
		}
		node.Value = n.AttrOr("value")
		node.Placeholder = n.AttrOr("placeholder")
	case "textarea":
		node.InputType = "textarea"
		node.Value = textareaValue(n)
		node.Placeholder = n.AttrOr("placeholder")
	}

	if level, ok := headingLevel(n.Tag); ok {
		node.Level = level
	}
	return node, true
}

// literalRows collects <tr> rows and their <td>/<th> cells from a real table.
// Rows without cells are dropped; there is no minimum row count.
func literalRows(table *domain.DOMNode) [][]string {
	rows := [][]string{}
	for _, tr := range table.FindAll(func(d *domain.DOMNode) bool { return d.Tag == "tr" }) {
		var cells []string
		for _, cell := range tr.FindAll(func(d *domain.DOMNode) bool { return d.Tag == "td" || d.Tag == "th" }) {
			cells = append(cells, cell.TrimmedText())
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

func textareaValue(n *domain.DOMNode) string {
	if v, ok := n.Attr("value"); ok {
		return v
	}
	return n.TextContent()
}

func headingLevel(tag string) (int, bool) {
	if len(tag) != 2 || tag[0] != 'h' {
		return 0, false
	}
	level := int(tag[1] - '0')
	if level < 1 || level > 6 {
		return 0, false
	}
	return level, true
}

// intrinsic lists elements whose semantics already describe their content.
// They are never treated as table containers.
var intrinsic = map[string]bool{
	"table": true, "thead": true, "tbody": true, "tfoot": true, "tr": true, "td": true, "th": true,
	"caption": true, "colgroup": true, "col": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"a": true, "input": true, "textarea": true, "select": true, "option": true, "button": true, "label": true,
	"p": true, "span": true, "strong": true, "em": true, "b": true, "i": true, "code": true, "pre": true,
	"img": true, "svg": true,
}

// IsCandidate reports whether n may be checked as a table-like container.
func IsCandidate(n *domain.DOMNode) bool {
	return n.IsElement() && !intrinsic[strings.ToLower(n.Tag)]
}
