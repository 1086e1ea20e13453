package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Marks Tests
// ============================================================================

func TestMarksAreSortedAndUnique(t *testing.T) {
	marks := NewMarks(NewMark(MarkItalic), NewMark(MarkBold), NewMark(MarkItalic))
	require.Len(t, marks, 2)
	assert.Equal(t, MarkBold, marks[0].Type)
	assert.Equal(t, MarkItalic, marks[1].Type)
	assert.Equal(t, "[bold,italic]", marks.String())
}

func TestMarksAddRemove(t *testing.T) {
	marks := NewMarks(NewMark(MarkBold))
	withCode := marks.Add(NewMark(MarkCode))

	assert.True(t, withCode.Has(MarkCode))
	assert.False(t, marks.Has(MarkCode), "Add must not modify the receiver")

	without := withCode.Remove(MarkBold)
	assert.False(t, without.Has(MarkBold))
	assert.True(t, withCode.Has(MarkBold))
	assert.Equal(t, marks, marks.Remove(MarkItalic))
}

func TestMarksEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Marks
		want bool
	}{
		{"both empty", nil, Marks{}, true},
		{"same types", NewMarks(NewMark(MarkBold)), NewMarks(NewMark(MarkBold)), true},
		{"different types", NewMarks(NewMark(MarkBold)), NewMarks(NewMark(MarkItalic)), false},
		{"different sizes", NewMarks(NewMark(MarkBold)), nil, false},
		{"different data", Marks{{Type: "x", Data: Data{"a": 1}}}, Marks{{Type: "x", Data: Data{"a": 2}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

// ============================================================================
// Data Tests
// ============================================================================

func TestDataIsCopiedOnWrite(t *testing.T) {
	d := NewData("id", "intro", "empty", "", "none", nil)
	assert.Equal(t, Data{"id": "intro"}, d)

	d2 := d.With("level", 2)
	assert.False(t, d.Has("level"))
	n, ok := d2.Int("level")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	assert.Nil(t, d.Without("id"))
	assert.Equal(t, []string{"id", "level"}, d2.Keys())
	assert.Equal(t, d, d.Merge(nil))
}

func TestDataStrings(t *testing.T) {
	d := Data{"a": []string{"left", ""}, "b": []any{"right", "center"}}
	assert.Equal(t, []string{"left", ""}, d.Strings("a"))
	assert.Equal(t, []string{"right", "center"}, d.Strings("b"))
	assert.Nil(t, d.Strings("c"))
}

// ============================================================================
// Node Tests
// ============================================================================

func TestNewTextJoinsLeaves(t *testing.T) {
	bold := NewMark(MarkBold)
	text := NewTextFromLeaves(
		Leaf{Text: "a", Marks: NewMarks(bold)},
		Leaf{Text: "b", Marks: NewMarks(bold)},
		Leaf{Text: ""},
		Leaf{Text: "c"},
	)
	require.Len(t, text.Leaves, 2)
	assert.Equal(t, "ab", text.Leaves[0].Text)
	assert.Equal(t, "c", text.Leaves[1].Text)
	assert.Equal(t, "abc", text.Text())
}

func TestEmptyTextKeepsOneLeaf(t *testing.T) {
	text := NewText("")
	require.Len(t, text.Leaves, 1)
	assert.True(t, text.IsEmpty())
}

func TestNewBlockJoinsTexts(t *testing.T) {
	p := NewBlock(BlockParagraph,
		NewText("Hello "),
		NewText("world"),
		NewText(""),
		NewVoidInline(InlineVariable, Data{"key": "name"}),
	)
	require.Len(t, p.Nodes, 2)
	assert.Equal(t, "Hello world", p.Nodes[0].Text())
	assert.Equal(t, InlineVariable, p.Nodes[1].Type)
	assert.Nil(t, NewBlock(BlockParagraph).Nodes)
}

func TestWithNodesClearsVoid(t *testing.T) {
	tag := NewVoidBlock(CustomType("hint"), nil)
	assert.True(t, tag.Void)
	filled := tag.WithNodes(NewBlock(BlockParagraph, NewText("x")))
	assert.False(t, filled.Void)
	assert.True(t, tag.Void)
}

func TestFindDescendant(t *testing.T) {
	doc := NewDocument(nil,
		NewBlock(BlockQuote, NewBlock(BlockParagraph, NewText("deep"))),
	)
	found, ok := doc.FindDescendant(func(n Node) bool { return n.Kind == KindText })
	require.True(t, ok)
	assert.Equal(t, "deep", found.Text())

	_, ok = doc.FindDescendant(func(n Node) bool { return n.Type == BlockTable })
	assert.False(t, ok)
}

func TestKindJSON(t *testing.T) {
	node := NewBlock(BlockParagraph, NewText("x", NewMark(MarkBold)))
	raw, err := json.Marshal(node)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"block"`)

	var back Node
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, node.Equal(back))

	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("sheet")))
}

func TestHeadingHelpers(t *testing.T) {
	assert.Equal(t, BlockHeading1, HeadingType(0))
	assert.Equal(t, BlockHeading3, HeadingType(3))
	assert.Equal(t, BlockHeading6, HeadingType(9))
	assert.Equal(t, 2, HeadingLevel(BlockHeading2))
	assert.Equal(t, 0, HeadingLevel(BlockParagraph))
}

func TestCustomTypeHelpers(t *testing.T) {
	assert.Equal(t, "x-hint", CustomType("hint"))
	assert.True(t, IsCustomType("x-hint"))
	assert.False(t, IsCustomType("x-"))
	assert.False(t, IsCustomType(BlockParagraph))
	assert.Equal(t, "hint", CustomTag("x-hint"))
}

// ============================================================================
// Schema Tests
// ============================================================================

func TestAppendAcceptedBlock(t *testing.T) {
	s := DefaultSchema()
	doc := s.Append(NewDocument(nil), NewBlock(BlockParagraph, NewText("a")))
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, BlockParagraph, doc.Nodes[0].Type)
}

func TestAppendTextWrapsInDefault(t *testing.T) {
	s := DefaultSchema()

	doc := s.Append(NewDocument(nil), NewText("loose"))
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, BlockParagraph, doc.Nodes[0].Type)

	quote := s.Append(NewBlock(BlockQuote), NewText("quoted"))
	require.Len(t, quote.Nodes, 1)
	assert.Equal(t, BlockUnstyled, quote.Nodes[0].Type)
}

func TestAppendReusesPreviousSibling(t *testing.T) {
	s := DefaultSchema()
	doc := NewDocument(nil, NewBlock(BlockParagraph, NewText("a")))
	doc = s.Append(doc, NewText("b"))

	require.Len(t, doc.Nodes, 1, "previous sibling reuse wins over wrapping")
	assert.Equal(t, "ab", doc.Nodes[0].Text())
}

func TestAppendAfterNonLeafSiblingWraps(t *testing.T) {
	s := DefaultSchema()
	doc := NewDocument(nil, NewBlock(BlockHeading1, NewText("Title")))
	doc = s.Append(doc, NewText("body"))

	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, BlockParagraph, doc.Nodes[1].Type)
}

func TestAppendBlockToNonContainerKeepsInlines(t *testing.T) {
	s := DefaultSchema()
	link := NewInline(InlineLink)
	link = s.Append(link, NewBlock(BlockParagraph, NewText("click"), NewVoidInline(InlineImage, Data{"src": "a.png"})))

	require.Len(t, link.Nodes, 2)
	assert.Equal(t, KindText, link.Nodes[0].Kind)
	assert.Equal(t, InlineImage, link.Nodes[1].Type)
}

func TestAppendFixedNesting(t *testing.T) {
	s := DefaultSchema()

	table := s.Append(NewBlock(BlockTable), NewText("cell"))
	require.Len(t, table.Nodes, 1)
	row := table.Nodes[0]
	assert.Equal(t, BlockTableRow, row.Type)
	require.Len(t, row.Nodes, 1)
	assert.Equal(t, BlockTableCell, row.Nodes[0].Type)
	assert.Equal(t, "cell", row.Nodes[0].Text())

	list := s.Append(NewBlock(BlockUnorderedList), NewBlock(BlockParagraph, NewText("item")))
	require.Len(t, list.Nodes, 1)
	assert.Equal(t, BlockListItem, list.Nodes[0].Type)
	assert.Equal(t, BlockParagraph, list.Nodes[0].Nodes[0].Type)

	code := s.Append(NewBlock(BlockCode), NewBlock(BlockParagraph, NewText("x := 1")))
	require.Len(t, code.Nodes, 1)
	assert.Equal(t, BlockCodeLine, code.Nodes[0].Type)
	assert.Equal(t, KindText, code.Nodes[0].Nodes[0].Kind)
}

func TestAppendToVoidIsIgnored(t *testing.T) {
	s := DefaultSchema()
	hr := NewVoidBlock(BlockHR, nil)
	assert.Equal(t, hr, s.Append(hr, NewText("x")))
}

func TestVoidTypes(t *testing.T) {
	s := DefaultSchema()
	tests := []struct {
		typ  string
		void bool
	}{
		{BlockHR, true},
		{BlockMath, true},
		{InlineMath, true},
		{BlockHTML, true},
		{InlineHTML, true},
		{InlineFootnoteRef, true},
		{InlineVariable, true},
		{BlockParagraph, false},
		{InlineLink, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.void, s.IsVoid(tc.typ), tc.typ)
	}
}

func TestVoidInlineIsNotEmpty(t *testing.T) {
	ref := NewVoidInline(InlineFootnoteRef, NewData("id", "note"))
	assert.False(t, NewBlock(BlockParagraph, ref).IsEmpty())
	assert.True(t, NewBlock(BlockParagraph, NewText("")).IsEmpty())
}

func TestCustomBlocksAreFlowContainers(t *testing.T) {
	s := DefaultSchema()
	tag := NewBlock(CustomType("hint"))
	assert.True(t, s.IsContainer(tag))
	assert.Equal(t, BlockParagraph, s.DefaultType(tag))
	assert.True(t, s.CanContain(NewDocument(nil), tag))
	assert.False(t, s.CanContain(NewBlock(BlockTable), tag))
}

// ============================================================================
// Document Tests
// ============================================================================

func TestNormalizeDocumentNeverEmpty(t *testing.T) {
	doc := NormalizeDocument(NewDocument(Data{}))
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, BlockParagraph, doc.Nodes[0].Type)
	assert.Equal(t, "", doc.Text())
	assert.Nil(t, doc.Data)
}

func TestNormalizeMergesHandBuiltTrees(t *testing.T) {
	raw := Node{Kind: KindBlock, Type: BlockParagraph, Data: Data{}, Nodes: []Node{
		{Kind: KindText, Leaves: []Leaf{{Text: "a", Marks: Marks{}}}},
		{Kind: KindText, Leaves: []Leaf{{Text: "b"}}},
	}}
	want := NewBlock(BlockParagraph, NewText("ab"))
	assert.Equal(t, want, Normalize(raw))
	assert.True(t, raw.Equal(want))
}

func TestTableOfContents(t *testing.T) {
	doc := NewDocument(nil,
		NewBlock(BlockHeading1, NewText("Intro")).Set("id", "intro"),
		NewBlock(BlockParagraph, NewText("text")),
		NewBlock(BlockQuote, NewBlock(BlockHeading2, NewText("Quoted"))),
	)
	toc := TableOfContents(doc)
	require.Len(t, toc, 2)
	assert.Equal(t, TOCEntry{Level: 1, Text: "Intro", ID: "intro"}, toc[0])
	assert.Equal(t, 2, toc[1].Level)
}

func TestCountNodes(t *testing.T) {
	doc := NewDocument(nil,
		NewBlock(BlockParagraph,
			NewText("a", NewMark(MarkBold)),
			NewInline(InlineLink, NewText("b")),
		),
	)
	stats := CountNodes(doc)
	assert.Equal(t, 1, stats.Blocks)
	assert.Equal(t, 1, stats.Inlines)
	assert.Equal(t, 2, stats.Texts)
	assert.Equal(t, 1, stats.Marks[MarkBold])
	assert.Equal(t, 1, stats.Types[InlineLink])
}

// ============================================================================
// Table Tests
// ============================================================================

func TestTableHelpers(t *testing.T) {
	table := NewTable([]string{AlignLeft, AlignNone},
		NewTableRow(NewTableCell(NewText("A")), NewTableCell(NewText("B"))),
		NewTableRow(NewTableCell(NewText("1")), NewTableCell(NewText("2"))),
	)
	assert.Equal(t, 2, RowCount(table))
	assert.Equal(t, 2, ColCount(table))
	assert.Equal(t, []string{"left", ""}, TableAligns(table))

	cell, ok := Cell(table, 1, 1)
	require.True(t, ok)
	assert.Equal(t, "2", cell.Text())
	_, ok = Cell(table, 2, 0)
	assert.False(t, ok)
}

func TestIsMultiBlockCell(t *testing.T) {
	tests := []struct {
		name string
		cell Node
		want bool
	}{
		{"inline only", NewTableCell(NewText("a")), false},
		{"single paragraph", NewTableCell(NewBlock(BlockParagraph, NewText("a"))), false},
		{"two paragraphs", NewTableCell(NewBlock(BlockParagraph, NewText("a")), NewBlock(BlockParagraph, NewText("b"))), true},
		{"list", NewTableCell(NewBlock(BlockUnorderedList)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMultiBlockCell(tt.cell))
		})
	}
}
