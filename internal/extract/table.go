package extract

import (
	"math"
	"regexp"
	"strings"

	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
)

// minTableRows is the row count every detection method must reach:
// a header plus at least one data row.
const minTableRows = 2

// gridMatchRatio is the share of children that must agree on cell count
// for the grid pattern to accept a container.
const gridMatchRatio = 0.7

var tableClassPattern = regexp.MustCompile(`(?i)table|grid|datagrid|data-table`)

var (
	rowClassPatterns  = []string{"row", "tr"}
	cellClassPatterns = []string{"cell", "col"}
)

var cellRoles = map[string]bool{
	"cell":         true,
	"columnheader": true,
	"rowheader":    true,
	"gridcell":     true,
}

// DetectTable checks whether container lays out tabular data.
// Methods run in priority order and the first to produce at least two rows wins:
// ARIA role, CSS display, class names, then the grid pattern.
func DetectTable(container *domain.DOMNode) (domain.ContentNode, bool) {
	if !container.IsElement() {
		return domain.ContentNode{}, false
	}

	var rows [][]string
	if role := container.Role(); role == "table" || role == "grid" {
		rows = rowsByRole(container)
	}
	if len(rows) < minTableRows && (container.Display == "table" || container.Display == "grid") {
		rows = rowsByDisplay(container)
	}
	if len(rows) < minTableRows && tableClassPattern.MatchString(container.ClassName()) {
		rows = rowsByClass(container)
	}
	if len(rows) < minTableRows {
		rows = rowsByGridPattern(container)
	}
	if len(rows) < minTableRows {
		return domain.ContentNode{}, false
	}

	return domain.ContentNode{
		Tag:  container.Tag,
		Type: domain.ContentTypeTable,
		Rows: rows,
		Text: domain.ClipText(container.TrimmedText(), domain.MaxNodeText),
	}, true
}

// rowsByRole collects descendants with role=row and their role-tagged cells,
// falling back to the row's direct children when no cell roles are present.
func rowsByRole(container *domain.DOMNode) [][]string {
	var rows [][]string
	for _, row := range container.FindAll(func(d *domain.DOMNode) bool { return d.Role() == "row" }) {
		cellEls := row.FindAll(func(d *domain.DOMNode) bool { return cellRoles[d.Role()] })
		var cells []string
		if len(cellEls) > 0 {
			cells = texts(cellEls)
		} else {
			cells = texts(row.Elements())
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// rowsByDisplay collects children displayed as table rows (or grids) and
// their children displayed as table cells.
func rowsByDisplay(container *domain.DOMNode) [][]string {
	var rows [][]string
	for _, child := range container.Elements() {
		if child.Display != "table-row" && child.Display != "grid" {
			continue
		}
		var cellEls []*domain.DOMNode
		for _, cell := range child.Elements() {
			if cell.Display == "table-cell" || cell.Display == "grid-cell" {
				cellEls = append(cellEls, cell)
			}
		}
		if cells := texts(cellEls); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// rowsByClass searches descendants for row-like then cell-like class names.
// When no row pattern yields two rows, the direct children of the container
// are taken as rows and their children as cells.
func rowsByClass(container *domain.DOMNode) [][]string {
	for _, rowPattern := range rowClassPatterns {
		rowEls := container.FindAll(classContains(rowPattern))
		if len(rowEls) < minTableRows {
			continue
		}
		var rows [][]string
		for _, row := range rowEls {
			if cells := cellsByClass(row); len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
		if len(rows) >= minTableRows {
			return rows
		}
	}

	children := container.Elements()
	if len(children) < minTableRows {
		return nil
	}
	var rows [][]string
	for _, child := range children {
		if cells := texts(child.Elements()); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// cellsByClass uses the first cell pattern that matches any descendant of row,
// or the row's direct children when none does.
func cellsByClass(row *domain.DOMNode) []string {
	for _, cellPattern := range cellClassPatterns {
		if cellEls := row.FindAll(classContains(cellPattern)); len(cellEls) > 0 {
			return texts(cellEls)
		}
	}
	return texts(row.Elements())
}

func classContains(pattern string) func(*domain.DOMNode) bool {
	return func(d *domain.DOMNode) bool {
		return strings.Contains(strings.ToLower(d.ClassName()), pattern)
	}
}

// rowsByGridPattern treats children as rows when most of them carry a similar
// number of leaf cells. The first child sets the expected count; rows within
// one cell of it qualify.
func rowsByGridPattern(container *domain.DOMNode) [][]string {
	children := container.Elements()
	if len(children) < minTableRows {
		return nil
	}

	expected := cellCount(children[0])
	if expected == 0 {
		return nil
	}

	matching := 0
	var rows [][]string
	for _, child := range children {
		count := cellCount(child)
		if count == 0 || abs(count-expected) > 1 {
			continue
		}
		matching++
		if cells := texts(child.Elements()); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}

	needed := int(math.Ceil(float64(len(children)) * gridMatchRatio))
	if len(rows) < minTableRows || matching < needed {
		return nil
	}
	return rows
}

// cellCount counts children of n that hold text and have no text-bearing
// element children of their own.
func cellCount(n *domain.DOMNode) int {
	count := 0
	for _, child := range n.Elements() {
		if child.TrimmedText() == "" {
			continue
		}
		leaf := true
		for _, grandchild := range child.Elements() {
			if grandchild.TrimmedText() != "" {
				leaf = false
				break
			}
		}
		if leaf {
			count++
		}
	}
	return count
}

// texts returns the non-empty trimmed texts of nodes.
func texts(nodes []*domain.DOMNode) []string {
	var out []string
	for _, n := range nodes {
		if t := n.TrimmedText(); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
