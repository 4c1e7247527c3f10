package domain

import (
	"encoding/json"
	"unicode/utf8"
)

// MaxNodeText caps ContentNode.Text, bounding the payload sent to the LLM.
const MaxNodeText = 500

// ContentTypeTable marks a ContentNode carrying rows.
const ContentTypeTable = "table"

// PageInfo identifies the page a document was extracted from.
type PageInfo struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SemanticDocument is the bounded description of a page's visible content.
// It is produced fresh per extraction and never persisted.
type SemanticDocument struct {
	Page    PageInfo      `json:"page"`
	Content []ContentNode `json:"content"`
}

// ContentNode is one visible element of the page.
// Rows is set only when Type is "table"; each row is a flat list of cell strings.
type ContentNode struct {
	Tag         string     `json:"tag"`
	Text        string     `json:"text"`
	Type        string     `json:"type,omitempty"`
	Rows        [][]string `json:"rows,omitempty"`
	Href        string     `json:"href,omitempty"`
	Level       int        `json:"level,omitempty"`
	InputType   string     `json:"inputType,omitempty"`
	Value       string     `json:"value,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`
}

// MarshalJSON always writes "rows" for table nodes, even when empty, so the
// type and its rows stay paired on the wire.
func (n ContentNode) MarshalJSON() ([]byte, error) {
	type plain ContentNode
	if n.Type != ContentTypeTable {
		return json.Marshal(plain(n))
	}
	rows := n.Rows
	if rows == nil {
		rows = [][]string{}
	}
	return json.Marshal(struct {
		plain
		Rows [][]string `json:"rows"`
	}{plain(n), rows})
}

// IsTable returns true if the node carries table rows.
func (n ContentNode) IsTable() bool {
	return n.Type == ContentTypeTable
}

// Tables returns the table nodes of the document in order.
func (d *SemanticDocument) Tables() []ContentNode {
	var tables []ContentNode
	for _, n := range d.Content {
		if n.IsTable() {
			tables = append(tables, n)
		}
	}
	return tables
}

// ClipText truncates s to at most limit runes.
func ClipText(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
