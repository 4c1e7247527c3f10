package domain

import "strings"

// NodeKind distinguishes element nodes from text nodes in a snapshot.
type NodeKind string

// Snapshot node kinds.
const (
	ElementNode NodeKind = "element"
	TextNode    NodeKind = "text"
)

// DOMNode is a detached snapshot of one node of a document tree.
// Snapshots are produced by a SnapshotSource (headless browser, static HTML,
// or the embeddable widget) and consumed by the extractor, which never
// touches a live document.
type DOMNode struct {
	Kind NodeKind `json:"kind"`

	// Tag is the lowercased element name. Empty for text nodes.
	Tag string `json:"tag,omitempty"`

	// Attrs holds element attributes. Sources store resolved values for
	// href and the live value of form controls here.
	Attrs map[string]string `json:"attrs,omitempty"`

	// Display and Visibility are the computed CSS values when known.
	Display    string `json:"display,omitempty"`
	Visibility string `json:"visibility,omitempty"`

	// Data is the character data of a text node.
	Data string `json:"data,omitempty"`

	Children []*DOMNode `json:"children,omitempty"`
}

// PageSnapshot is a captured page: its identity plus the body subtree.
type PageSnapshot struct {
	Page PageInfo `json:"page"`
	Root *DOMNode `json:"root"`
}

// Element constructs an element node.
func Element(tag string, attrs map[string]string, children ...*DOMNode) *DOMNode {
	return &DOMNode{Kind: ElementNode, Tag: strings.ToLower(tag), Attrs: attrs, Children: children}
}

// Text constructs a text node.
func Text(data string) *DOMNode {
	return &DOMNode{Kind: TextNode, Data: data}
}

// IsElement returns true for element nodes.
func (n *DOMNode) IsElement() bool {
	return n != nil && n.Kind == ElementNode
}

// Attr returns the attribute value and whether it is present.
func (n *DOMNode) Attr(name string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// AttrOr returns the attribute value, or "" when absent.
func (n *DOMNode) AttrOr(name string) string {
	v, _ := n.Attr(name)
	return v
}

// Role returns the ARIA role attribute.
func (n *DOMNode) Role() string {
	return n.AttrOr("role")
}

// ClassName returns the raw class attribute.
func (n *DOMNode) ClassName() string {
	return n.AttrOr("class")
}

// Elements returns the element children in order, skipping text nodes.
func (n *DOMNode) Elements() []*DOMNode {
	if n == nil {
		return nil
	}
	out := make([]*DOMNode, 0, len(n.Children))
	for _, c := range n.Children {
		if c.IsElement() {
			out = append(out, c)
		}
	}
	return out
}

// TextContent concatenates all descendant text in document order,
// matching the DOM textContent property.
func (n *DOMNode) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Kind == TextNode {
		return n.Data
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *DOMNode) writeText(b *strings.Builder) {
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		if c.Kind == TextNode {
			b.WriteString(c.Data)
			continue
		}
		c.writeText(b)
	}
}

// TrimmedText returns TextContent with surrounding whitespace removed.
func (n *DOMNode) TrimmedText() string {
	return strings.TrimSpace(n.TextContent())
}

// Descendants returns every element below n in pre-order, like querySelectorAll('*').
func (n *DOMNode) Descendants() []*DOMNode {
	var out []*DOMNode
	var walk func(*DOMNode)
	walk = func(p *DOMNode) {
		for _, c := range p.Elements() {
			out = append(out, c)
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// FindAll returns descendants matching pred in pre-order.
func (n *DOMNode) FindAll(pred func(*DOMNode) bool) []*DOMNode {
	var out []*DOMNode
	for _, d := range n.Descendants() {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out
}
