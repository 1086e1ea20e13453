package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/model"
)

func bold(text string) model.Node {
	return model.NewText(text, model.NewMark(model.MarkBold))
}

func render(t *testing.T, nodes ...model.Node) string {
	t.Helper()
	out, err := Render(nodes...)
	require.NoError(t, err)
	return out
}

// ============================================================================
// Render Tests
// ============================================================================

func TestRender_Blocks(t *testing.T) {
	tests := []struct {
		name string
		node model.Node
		want string
	}{
		{
			name: "paragraph with marks",
			node: model.NewBlock(model.BlockParagraph, bold("a"), model.NewText(" < b")),
			want: "<p><b>a</b> &lt; b</p>\n",
		},
		{
			name: "nested marks",
			node: model.NewBlock(model.BlockParagraph, model.NewText("x",
				model.NewMark(model.MarkBold), model.NewMark(model.MarkItalic))),
			want: "<p><em><b>x</b></em></p>\n",
		},
		{
			name: "heading with id",
			node: model.NewBlock(model.BlockHeading2, model.NewText("Title")).Set("id", "t"),
			want: "<h2 id=\"t\">Title</h2>\n",
		},
		{
			name: "hr",
			node: model.NewVoidBlock(model.BlockHR, nil),
			want: "<hr/>\n",
		},
		{
			name: "blockquote",
			node: model.NewBlock(model.BlockQuote, model.NewBlock(model.BlockParagraph, model.NewText("q"))),
			want: "<blockquote><p>q</p>\n</blockquote>\n",
		},
		{
			name: "code",
			node: model.NewBlock(model.BlockCode,
				model.NewBlock(model.BlockCodeLine, model.NewText("a < b")),
				model.NewBlock(model.BlockCodeLine, model.NewText("c")),
			).Set("syntax", "go"),
			want: "<pre><code class=\"lang-go\">a &lt; b\nc\n</code></pre>\n",
		},
		{
			name: "task list",
			node: model.NewBlock(model.BlockUnorderedList,
				model.NewBlock(model.BlockListItem, model.NewBlock(model.BlockUnstyled, model.NewText("x"))).Set("checked", true),
				model.NewBlock(model.BlockListItem, model.NewBlock(model.BlockUnstyled, model.NewText("y"))).Set("checked", false),
			),
			want: "<ul>\n<li><input type=\"checkbox\" disabled checked> x</li>\n<li><input type=\"checkbox\" disabled> y</li>\n</ul>\n",
		},
		{
			name: "ordered list start",
			node: model.NewBlock(model.BlockOrderedList,
				model.NewBlock(model.BlockListItem, model.NewBlock(model.BlockUnstyled, model.NewText("x"))),
			).Set("start", 4),
			want: "<ol start=\"4\">\n<li>x</li>\n</ol>\n",
		},
		{
			name: "html block",
			node: model.NewVoidBlock(model.BlockHTML, model.NewData("html", "<div>raw</div>\n\n")),
			want: "<div>raw</div>\n",
		},
		{
			name: "math has no markup",
			node: model.NewVoidBlock(model.BlockMath, model.NewData("formula", "x^2")),
			want: "",
		},
		{
			name: "custom block prints its children",
			node: model.NewBlock(model.CustomType("hint"), model.NewBlock(model.BlockParagraph, model.NewText("h"))),
			want: "<p>h</p>\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, render(t, tc.node))
		})
	}
}

func TestRender_Inlines(t *testing.T) {
	tests := []struct {
		name string
		node model.Node
		want string
	}{
		{
			name: "link",
			node: model.NewInline(model.InlineLink, model.NewText("go")).WithData(model.NewData("href", "/a?b=1&c=2", "title", "T")),
			want: `<a href="/a?b=1&amp;c=2" title="T">go</a>`,
		},
		{
			name: "image",
			node: model.NewVoidInline(model.InlineImage, model.NewData("src", "a.png", "alt", "A")),
			want: `<img alt="A" src="a.png"/>`,
		},
		{
			name: "footnote ref",
			node: model.NewVoidInline(model.InlineFootnoteRef, model.NewData("id", "1")),
			want: `<sup><a href="#fn_1" id="reffn_1">1</a></sup>`,
		},
		{
			name: "raw inline html",
			node: model.NewVoidInline(model.InlineHTML, model.NewData("openingTag", "<kbd>", "closingTag", "</kbd>", "innerHtml", "Ctrl")),
			want: `<kbd>Ctrl</kbd>`,
		},
		{
			name: "inline html with children",
			node: model.NewInline(model.InlineHTML, bold("b")).WithData(model.NewData("openingTag", "<span>", "closingTag", "</span>")),
			want: `<span><b>b</b></span>`,
		},
		{
			name: "variable has no markup",
			node: model.NewVoidInline(model.InlineVariable, model.NewData("key", "x")),
			want: "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, render(t, tc.node))
		})
	}
}

func TestRender_Table(t *testing.T) {
	cell := func(text string) model.Node { return model.NewTableCell(model.NewText(text)) }
	table := model.NewTable([]string{model.AlignLeft, model.AlignNone},
		model.NewTableRow(cell("A"), cell("B")),
		model.NewTableRow(cell("1"), cell("2")),
	)

	want := "<table>\n<thead>\n" +
		"<tr>\n<th style=\"text-align:left\">A</th>\n<th>B</th>\n</tr>\n" +
		"</thead>\n<tbody>\n" +
		"<tr>\n<td style=\"text-align:left\">1</td>\n<td>2</td>\n</tr>\n" +
		"</tbody>\n</table>\n"
	assert.Equal(t, want, render(t, table))
}

func TestRender_Document(t *testing.T) {
	doc := model.NewDocument(nil,
		model.NewBlock(model.BlockParagraph, model.NewText("a")),
		model.NewVoidBlock(model.BlockHR, nil),
	)
	assert.Equal(t, "<p>a</p>\n<hr/>\n", render(t, doc))
}

func TestRender_RoundTrip(t *testing.T) {
	doc := model.NormalizeDocument(model.NewDocument(nil,
		model.NewBlock(model.BlockHeading1, model.NewText("Title")).Set("id", "top"),
		model.NewBlock(model.BlockParagraph, bold("a"), model.NewText(" & b")),
		model.NewBlock(model.BlockUnorderedList,
			model.NewBlock(model.BlockListItem, model.NewBlock(model.BlockUnstyled, model.NewText("One"))),
			model.NewBlock(model.BlockListItem, model.NewBlock(model.BlockUnstyled, model.NewText("Two"))),
		),
		model.NewBlock(model.BlockCode, model.NewBlock(model.BlockCodeLine, model.NewText("x := <-c"))).Set("syntax", "go"),
	))

	markup := render(t, doc)
	back, err := Parse(markup)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back), "markup:\n%s\nparsed: %#v", markup, back)
}

func TestRender_TableAlignmentRoundTrip(t *testing.T) {
	cell := func(text string) model.Node { return model.NewTableCell(model.NewText(text)) }
	table := model.NewTable([]string{model.AlignCenter, model.AlignRight},
		model.NewTableRow(cell("A"), cell("B")),
		model.NewTableRow(cell("1"), cell("2")),
	)

	back, err := Parse(render(t, table))
	require.NoError(t, err)
	require.Len(t, back.Nodes, 1)
	assert.Equal(t, []string{model.AlignCenter, model.AlignRight}, model.TableAligns(back.Nodes[0]))
}

func TestRulesAreIndependentCopies(t *testing.T) {
	g := Rules()
	g.Add(engine.ModeBlock, engine.Entry{Name: "extra"})
	assert.NotEqual(t, len(g.Rules(engine.ModeBlock).Entries), len(Rules().Rules(engine.ModeBlock).Entries))
}

func TestRulesParseDocuments(t *testing.T) {
	doc, err := engine.New(Rules(), nil).DeserializeDocument("<p>one</p><p>two</p>")
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "two", doc.Nodes[1].Text())

	_, err = engine.New(Rules(), nil).DeserializeDocument("<div>")
	assert.ErrorIs(t, err, ErrUnbalanced)
}

// ============================================================================
// Anchor Tests
// ============================================================================

func TestFindAnchor(t *testing.T) {
	tests := []struct {
		markup string
		want   string
	}{
		{`<a id="first"></a>text<a id="second">x</a>`, "second"},
		{`<span><a id="inner"></a></span>`, "inner"},
		{`<a href="/x">no id</a>`, ""},
		{`<b>plain</b>`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.markup, func(t *testing.T) {
			assert.Equal(t, tc.want, FindAnchor(tc.markup))
		})
	}
}
