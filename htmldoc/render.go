package htmldoc

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/model"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// props of the table printer
const (
	propAligns = "htmlTableAligns"
	propColumn = "htmlTableColumn"
	propHeader = "htmlTableHeader"
)

var htmlRules = buildRules()

// Rules returns the grammar printing trees as HTML. The document mode also
// parses markup through Parse.
func Rules() *engine.Grammar {
	return htmlRules.Clone()
}

// Render prints nodes as HTML. A single document node is printed in full.
func Render(nodes ...model.Node) (string, error) {
	state := engine.New(htmlRules, nil)
	if len(nodes) == 1 && nodes[0].IsDocument() {
		return state.SerializeDocument(nodes[0])
	}
	return state.Use(engine.ModeBlock).SerializeNodes(nodes)
}

func buildRules() *engine.Grammar {
	g := engine.NewGrammar("html")
	g.Add(engine.ModeDocument, engine.Entry{
		Name: "document",
		Serialize: engine.Serializer().
			MatchObject(model.KindDocument).
			Then(func(s engine.State) (engine.State, bool) {
				text := s.Use(engine.ModeBlock).Serialize(s.Peek().Nodes)
				return s.Shift().Write(text), true
			}),
		Deserialize: engine.Deserializer().
			Then(func(s engine.State) (engine.State, bool) {
				doc, err := Parse(s.Text())
				if err != nil {
					engine.Raise(err)
				}
				return s.Skip(len(s.Text())).Push(doc), true
			}),
	})

	g.Add(engine.ModeBlock,
		// Inline rules come first: escaping must run before the marks wrap
		// text in tags.
		engine.Entry{Name: "escape", Serialize: engine.Serializer().TransformText(escapeLeaf)},
		markEntry(model.MarkCode, "code"),
		markEntry(model.MarkBold, "b"),
		markEntry(model.MarkItalic, "em"),
		markEntry(model.MarkStrikethrough, "del"),
		engine.Entry{Name: "text", Serialize: engine.Serializer().MatchObject(model.KindText).Then(writeText)},

		engine.Entry{Name: "image", Serialize: engine.Serializer().MatchType(model.InlineImage).MatchObject(model.KindInline).Then(serializeImage)},
		engine.Entry{Name: "link", Serialize: engine.Serializer().MatchType(model.InlineLink).Then(serializeTag("a", false, linkAttrs))},
		engine.Entry{Name: "footnote_ref", Serialize: engine.Serializer().MatchType(model.InlineFootnoteRef).Then(serializeFootnoteRef)},
		engine.Entry{Name: "inline_html", Serialize: engine.Serializer().MatchType(model.InlineHTML).MatchObject(model.KindInline).Then(serializeInlineHTML)},

		engine.Entry{Name: "paragraph", Serialize: engine.Serializer().MatchType(model.BlockParagraph).Then(serializeBlock("p", nil))},
		engine.Entry{Name: "hr", Serialize: engine.Serializer().MatchType(model.BlockHR).Then(serializeTag("hr", true, nil))},
		engine.Entry{Name: "blockquote", Serialize: engine.Serializer().MatchType(model.BlockQuote).Then(serializeBlock("blockquote", nil))},
		engine.Entry{Name: "code", Serialize: engine.Serializer().MatchType(model.BlockCode).Then(serializeCode)},
		engine.Entry{Name: "heading", Serialize: engine.Serializer().MatchTypeFunc(isHeading).Then(serializeHeading)},
		engine.Entry{Name: "unordered_list", Serialize: engine.Serializer().MatchType(model.BlockUnorderedList).Then(serializeList("ul"))},
		engine.Entry{Name: "ordered_list", Serialize: engine.Serializer().MatchType(model.BlockOrderedList).Then(serializeList("ol"))},
		engine.Entry{Name: "list_item", Serialize: engine.Serializer().MatchType(model.BlockListItem).Then(serializeListItem)},
		engine.Entry{Name: "unstyled", Serialize: engine.Serializer().MatchType(model.BlockUnstyled).Then(serializeChildren)},
		engine.Entry{Name: "table", Serialize: engine.Serializer().MatchType(model.BlockTable).Then(serializeTable)},
		engine.Entry{Name: "table_row", Serialize: engine.Serializer().MatchType(model.BlockTableRow).Then(serializeRow)},
		engine.Entry{Name: "table_cell", Serialize: engine.Serializer().MatchType(model.BlockTableCell).Then(serializeCell)},
		engine.Entry{Name: "footnote", Serialize: engine.Serializer().MatchType(model.BlockFootnote).Then(serializeFootnote)},
		engine.Entry{Name: "html", Serialize: engine.Serializer().MatchType(model.BlockHTML).MatchObject(model.KindBlock).Then(serializeHTMLBlock)},
		engine.Entry{Name: "custom", Serialize: engine.Serializer().MatchTypeFunc(model.IsCustomType).Then(serializeChildren)},

		// math, variables and comments have no markup form
		engine.Entry{Name: "ignore", Serialize: engine.Serializer().Then(func(s engine.State) (engine.State, bool) {
			return s.Shift(), true
		})},
	)
	return g
}

func escapeLeaf(_ engine.State, l model.Leaf) model.Leaf {
	l.Text = html.EscapeString(l.Text)
	return l
}

func markEntry(markType, tag string) engine.Entry {
	return engine.Entry{
		Name: markType,
		Serialize: engine.Serializer().TransformMarkedLeaf(markType, func(_ engine.State, text string, _ model.Mark) string {
			return "<" + tag + ">" + text + "</" + tag + ">"
		}),
	}
}

func writeText(s engine.State) (engine.State, bool) {
	return s.Shift().Write(s.Peek().Text()), true
}

func serializeChildren(s engine.State) (engine.State, bool) {
	return s.Shift().Write(s.Serialize(s.Peek().Nodes)), true
}

// attrs renders attributes sorted by name. Empty values are omitted.
func attrs(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, ` %s="%s"`, k, html.EscapeString(values[k]))
	}
	return sb.String()
}

// serializeTag prints the node on top as a tag wrapping its children
func serializeTag(tag string, single bool, getAttrs func(model.Node) map[string]string) engine.Transform {
	return func(s engine.State) (engine.State, bool) {
		node := s.Peek()
		var a string
		if getAttrs != nil {
			a = attrs(getAttrs(node))
		}
		if single {
			text := "<" + tag + a + "/>"
			if node.IsBlock() {
				text += "\n"
			}
			return s.Shift().Write(text), true
		}
		inner := s.Serialize(node.Nodes)
		return s.Shift().Write("<" + tag + a + ">" + inner + "</" + tag + ">"), true
	}
}

// serializeBlock is serializeTag followed by a line break
func serializeBlock(tag string, getAttrs func(model.Node) map[string]string) engine.Transform {
	inner := serializeTag(tag, false, getAttrs)
	return func(s engine.State) (engine.State, bool) {
		next, ok := inner(s)
		return next.Write("\n"), ok
	}
}

func linkAttrs(n model.Node) map[string]string {
	return map[string]string{"href": n.Data.String("href"), "title": n.Data.String("title")}
}

func serializeImage(s engine.State) (engine.State, bool) {
	n := s.Peek()
	a := attrs(map[string]string{
		"src":   n.Data.String("src"),
		"alt":   n.Data.String("alt"),
		"title": n.Data.String("title"),
	})
	return s.Shift().Write("<img" + a + "/>"), true
}

func serializeFootnoteRef(s engine.State) (engine.State, bool) {
	id := html.EscapeString(s.Peek().Data.String("id"))
	return s.Shift().Write(fmt.Sprintf(`<sup><a href="#fn_%s" id="reffn_%s">%s</a></sup>`, id, id, id)), true
}

func serializeInlineHTML(s engine.State) (engine.State, bool) {
	n := s.Peek()
	if raw := n.Data.String("html"); raw != "" {
		return s.Shift().Write(raw), true
	}
	inner := n.Data.String("innerHtml")
	if inner == "" {
		inner = s.Serialize(n.Nodes)
	}
	return s.Shift().Write(n.Data.String("openingTag") + inner + n.Data.String("closingTag")), true
}

func serializeHTMLBlock(s engine.State) (engine.State, bool) {
	return s.Shift().Write(strings.TrimSpace(s.Peek().Data.String("html")) + "\n"), true
}

func serializeCode(s engine.State) (engine.State, bool) {
	n := s.Peek()
	lines := make([]string, len(n.Nodes))
	for i, line := range n.Nodes {
		lines[i] = html.EscapeString(line.Text())
	}
	class := ""
	if syntax := n.Data.String("syntax"); syntax != "" {
		class = attrs(map[string]string{"class": "lang-" + syntax})
	}
	return s.Shift().Write("<pre><code" + class + ">" + strings.Join(lines, "\n") + "\n</code></pre>\n"), true
}

func isHeading(typ string) bool {
	return model.HeadingLevel(typ) > 0
}

func serializeHeading(s engine.State) (engine.State, bool) {
	tag := fmt.Sprintf("h%d", model.HeadingLevel(s.Peek().Type))
	return serializeBlock(tag, func(n model.Node) map[string]string {
		return map[string]string{"id": n.Data.String("id")}
	})(s)
}

func serializeList(tag string) engine.Transform {
	return func(s engine.State) (engine.State, bool) {
		n := s.Peek()
		a := ""
		if start, ok := n.Data.Int("start"); ok && start != 1 {
			a = fmt.Sprintf(` start="%d"`, start)
		}
		inner := s.Serialize(n.Nodes)
		return s.Shift().Write("<" + tag + a + ">\n" + inner + "</" + tag + ">\n"), true
	}
}

func serializeListItem(s engine.State) (engine.State, bool) {
	n := s.Peek()
	box := ""
	if checked, ok := n.Data.Bool("checked"); ok {
		box = `<input type="checkbox" disabled`
		if checked {
			box += " checked"
		}
		box += "> "
	}
	inner := s.Serialize(n.Nodes)
	return s.Shift().Write("<li>" + box + inner + "</li>\n"), true
}

func serializeTable(s engine.State) (engine.State, bool) {
	n := s.Peek()
	aligns := model.TableAligns(n)
	var head, body string
	if len(n.Nodes) > 0 {
		head = s.SetProp(propAligns, aligns).SetProp(propHeader, true).Serialize(n.Nodes[:1])
		body = s.SetProp(propAligns, aligns).SetProp(propHeader, false).Serialize(n.Nodes[1:])
	}
	text := strings.Join([]string{
		"<table>",
		"<thead>",
		head + "</thead>",
		"<tbody>",
		body + "</tbody>",
		"</table>",
		"",
	}, "\n")
	return s.Shift().Write(text), true
}

func serializeRow(s engine.State) (engine.State, bool) {
	inner := s.SetProp(propColumn, 0).Serialize(s.Peek().Nodes)
	return s.Shift().Write("<tr>\n" + inner + "</tr>\n"), true
}

func serializeCell(s engine.State) (engine.State, bool) {
	n := s.Peek()
	column, _ := s.PropInt(propColumn)
	aligns, _ := s.Prop(propAligns)
	header, _ := s.PropBool(propHeader)

	tag := "td"
	if header {
		tag = "th"
	}
	style := ""
	if a, ok := aligns.([]string); ok && column < len(a) && a[column] != model.AlignNone {
		style = ` style="text-align:` + a[column] + `"`
	}
	content := n.Nodes
	if !model.IsMultiBlockCell(n) {
		content = model.CellInlines(n)
	}
	inner := s.Serialize(content)
	return s.Shift().SetProp(propColumn, column+1).Write("<" + tag + style + ">" + inner + "</" + tag + ">\n"), true
}

func serializeFootnote(s engine.State) (engine.State, bool) {
	n := s.Peek()
	id := html.EscapeString(n.Data.String("id"))
	inner := s.Serialize(n.Nodes)
	return s.Shift().Write(fmt.Sprintf(
		`<blockquote id="fn_%s"><sup>%s</sup>. %s<a href="#reffn_%s" title="Jump back to footnote [%s] in the text."> &#8617;</a></blockquote>`+"\n",
		id, id, inner, id, id)), true
}

var anchors = cascadia.MustCompile("a[id]")

// FindAnchor returns the id of the last anchor of a markup fragment, or "".
func FindAnchor(markup string) string {
	context := &nethtml.Node{Type: nethtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := nethtml.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return ""
	}
	id := ""
	for _, n := range nodes {
		for _, a := range anchors.MatchAll(n) {
			for _, at := range a.Attr {
				if at.Key == "id" && at.Val != "" {
					id = at.Val
				}
			}
		}
	}
	return id
}
