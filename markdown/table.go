package markdown

import (
	"strings"

	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/htmldoc"
	"github.com/tsawler/markit/model"
)

// deserializeTable reads a pipe table. Body rows are padded or cut to the
// width of the header.
func deserializeTable(s engine.State, m []string) (engine.State, bool) {
	var lines []string
	for _, line := range strings.Split(m[0], "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return engine.State{}, false
	}

	header := splitCells(lines[0])
	width := len(header)
	aligns := make([]string, width)
	for i, cell := range splitCells(lines[1]) {
		if i < width {
			aligns[i] = cellAlign(cell)
		}
	}

	rows := []model.Node{tableRow(s, header, width)}
	for _, line := range lines[2:] {
		rows = append(rows, tableRow(s, splitCells(line), width))
	}
	return s.Push(model.NewTable(aligns, rows...)), true
}

func cellAlign(cell string) string {
	cell = strings.TrimSpace(cell)
	left, right := strings.HasPrefix(cell, ":"), strings.HasSuffix(cell, ":")
	switch {
	case left && right && len(cell) > 1:
		return model.AlignCenter
	case right:
		return model.AlignRight
	case left:
		return model.AlignLeft
	}
	return model.AlignNone
}

func tableRow(s engine.State, cells []string, width int) model.Node {
	nodes := make([]model.Node, width)
	for i := range nodes {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		inlines := s.Use(engine.ModeInline).Deserialize(text)
		if len(inlines) == 0 {
			inlines = []model.Node{model.NewText("")}
		}
		nodes[i] = model.NewTableCell(inlines...)
	}
	return model.NewTableRow(nodes...)
}

var alignMarkers = map[string]string{
	model.AlignNone:   " --- |",
	model.AlignLeft:   " :--- |",
	model.AlignRight:  " ---: |",
	model.AlignCenter: " :---: |",
}

// serializeTable writes a pipe table. Tables with a cell holding more than
// one block cannot be written as pipes and are written as HTML.
func serializeTable(s engine.State) (engine.State, bool) {
	table := s.Peek()
	for _, row := range table.Nodes {
		for _, cell := range row.Nodes {
			if model.IsMultiBlockCell(cell) {
				out, err := htmldoc.Render(table)
				if err != nil {
					engine.Raise(err)
				}
				return s.Shift().Write(strings.TrimSpace(out) + "\n\n"), true
			}
		}
	}
	if len(table.Nodes) == 0 {
		return s.Shift(), true
	}

	inline := s.Use(engine.ModeInline).SetProp(propHardlineBreak, false)
	aligns := model.TableAligns(table)
	var sb strings.Builder
	for i, row := range table.Nodes {
		cells := make([]string, len(row.Nodes))
		for j, cell := range row.Nodes {
			cells[j] = inline.Serialize(model.CellInlines(cell))
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			sb.WriteString("|")
			for j := range row.Nodes {
				align := model.AlignNone
				if j < len(aligns) {
					align = aligns[j]
				}
				marker, ok := alignMarkers[align]
				if !ok {
					marker = alignMarkers[model.AlignNone]
				}
				sb.WriteString(marker)
			}
			sb.WriteString("\n")
		}
	}
	return s.Shift().Write(sb.String() + "\n"), true
}
