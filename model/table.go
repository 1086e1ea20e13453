package model

// Column alignments stored in a table's "aligns" data
const (
	AlignNone   = ""
	AlignLeft   = "left"
	AlignRight  = "right"
	AlignCenter = "center"
)

// NewTable creates a table block from rows of cells.
// The first row is the header row.
func NewTable(aligns []string, rows ...Node) Node {
	table := NewBlock(BlockTable, rows...)
	if aligns != nil {
		table = table.Set("aligns", aligns)
	}
	return table
}

// NewTableRow creates a row from cells
func NewTableRow(cells ...Node) Node {
	return NewBlock(BlockTableRow, cells...)
}

// NewTableCell creates a cell holding inline content or blocks
func NewTableCell(nodes ...Node) Node {
	return NewBlock(BlockTableCell, nodes...)
}

// TableAligns returns the per-column alignments of a table
func TableAligns(table Node) []string {
	return table.Data.Strings("aligns")
}

// RowCount returns the number of rows
func RowCount(table Node) int {
	return len(table.Nodes)
}

// ColCount returns the number of columns in the first row
func ColCount(table Node) int {
	if len(table.Nodes) == 0 {
		return 0
	}
	return len(table.Nodes[0].Nodes)
}

// Cell returns the cell at the given row and column (0-indexed)
func Cell(table Node, row, col int) (Node, bool) {
	if row < 0 || row >= len(table.Nodes) {
		return Node{}, false
	}
	cells := table.Nodes[row].Nodes
	if col < 0 || col >= len(cells) {
		return Node{}, false
	}
	return cells[col], true
}

// IsMultiBlockCell reports whether a cell holds more than a single paragraph
// worth of content, i.e. content a one-line cell cannot represent.
func IsMultiBlockCell(cell Node) bool {
	if len(cell.Nodes) == 1 && cell.Nodes[0].Type == BlockParagraph && cell.Nodes[0].Kind == KindBlock {
		return false
	}
	for _, child := range cell.Nodes {
		if child.Kind == KindBlock {
			return true
		}
	}
	return false
}

// CellInlines returns the inline content of a cell, unwrapping a single paragraph
func CellInlines(cell Node) []Node {
	if len(cell.Nodes) == 1 && cell.Nodes[0].Type == BlockParagraph && cell.Nodes[0].Kind == KindBlock {
		return cell.Nodes[0].Nodes
	}
	return cell.Nodes
}
