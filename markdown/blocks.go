package markdown

import (
	"strings"

	"github.com/tsawler/markit/customtag"
	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/htmldoc"
	"github.com/tsawler/markit/model"
)

func blockEntries() []engine.Entry {
	return []engine.Entry{
		{
			Name: "definition",
			Deserialize: engine.Deserializer().
				Filter(func(s engine.State) bool {
					_, parsed := s.Prop(propRefs)
					return s.Depth() <= 2 && s.Len() == 0 && !parsed
				}).
				Then(deserializeDefinitions),
		},
		{
			Name:        "html",
			Serialize:   engine.Serializer().MatchType(model.BlockHTML).MatchObject(model.KindBlock).Then(serializeHTMLBlock),
			Deserialize: engine.Deserializer().MatchScan(scanHTMLBlock, deserializeHTMLBlock),
		},
		{
			Name:        "table",
			Serialize:   engine.Serializer().MatchType(model.BlockTable).Then(serializeTable),
			Deserialize: engine.Deserializer().MatchRegexp(deserializeTable, tableRe, npTableRe),
		},
		{
			Name:      "hr",
			Serialize: engine.Serializer().MatchType(model.BlockHR).Then(serializeHR),
			Deserialize: engine.Deserializer().MatchRegexp(func(s engine.State, _ []string) (engine.State, bool) {
				return s.Push(model.NewVoidBlock(model.BlockHR, nil)), true
			}, hrRe),
		},
		{
			Name:        "list",
			Serialize:   engine.Serializer().MatchType(model.BlockUnorderedList, model.BlockOrderedList).Then(serializeList),
			Deserialize: engine.Deserializer().MatchScan(scanList, deserializeList),
		},
		{
			Name:        "footnote",
			Serialize:   engine.Serializer().MatchType(model.BlockFootnote).Then(serializeFootnote),
			Deserialize: engine.Deserializer().MatchRegexp(deserializeFootnote, footnoteRe),
		},
		{
			Name:        "blockquote",
			Serialize:   engine.Serializer().MatchType(model.BlockQuote).Then(serializeBlockquote),
			Deserialize: engine.Deserializer().MatchScan(scanBlockquote, deserializeBlockquote),
		},
		{
			Name:      "code",
			Serialize: engine.Serializer().MatchType(model.BlockCode).Then(serializeCode),
			Deserialize: engine.Deserializer().Use(
				engine.Deserializer().MatchScan(scanFence, deserializeFence),
				engine.Deserializer().MatchRegexp(deserializeIndented, indentedRe),
			),
		},
		{
			Name:      "heading",
			Serialize: engine.Serializer().MatchTypeFunc(isHeading).Then(serializeHeading),
			Deserialize: engine.Deserializer().Use(
				engine.Deserializer().MatchRegexp(func(s engine.State, m []string) (engine.State, bool) {
					return deserializeHeading(s, len(m[1]), m[2])
				}, headingRe),
				engine.Deserializer().MatchRegexp(func(s engine.State, m []string) (engine.State, bool) {
					level := 2
					if m[2][0] == '=' {
						level = 1
					}
					return deserializeHeading(s, level, m[1])
				}, lheadingRe),
			),
		},
		{
			Name:      "math",
			Serialize: engine.Serializer().MatchType(model.BlockMath).MatchObject(model.KindBlock).Then(serializeMathBlock),
			Deserialize: engine.Deserializer().
				Filter(func(s engine.State) bool { return enabled(s, propMath) }).
				MatchRegexp(deserializeMathBlock, mathBlockRe),
		},
		{
			Name:      "comment",
			Serialize: engine.Serializer().MatchType(model.BlockComment).Then(serializeComment),
			Deserialize: engine.Deserializer().
				Filter(func(s engine.State) bool { return enabled(s, propTemplate) }).
				MatchRegexp(func(s engine.State, m []string) (engine.State, bool) {
					return s.Push(model.NewVoidBlock(model.BlockComment, model.NewData("text", m[1]))), true
				}, commentRe),
		},
		{
			Name:      "custom",
			Serialize: engine.Serializer().MatchTypeFunc(model.IsCustomType).MatchObject(model.KindBlock).Then(serializeCustom),
			Deserialize: engine.Deserializer().
				Filter(func(s engine.State) bool { return enabled(s, propTemplate) }).
				MatchRegexp(deserializeCustom, customRe),
		},
		{
			Name:      "paragraph",
			Serialize: engine.Serializer().MatchType(model.BlockParagraph).Then(serializeTextBlock("\n\n")),
			Deserialize: engine.Deserializer().
				Filter(canHoldParagraph).
				Then(scanParagraph(model.BlockParagraph)),
		},
		{
			Name:        "unstyled",
			Serialize:   engine.Serializer().MatchType(model.BlockUnstyled).Then(serializeTextBlock("\n")),
			Deserialize: engine.Deserializer().Then(scanParagraph(model.BlockUnstyled)),
		},
		{
			Name: "inline",
			Serialize: engine.Serializer().MatchObject(model.KindInline, model.KindText).Then(func(s engine.State) (engine.State, bool) {
				return s.Shift().Write(s.Use(engine.ModeInline).SerializeOne(s.Peek())), true
			}),
		},
	}
}

// ============================================================================
// Definitions
// ============================================================================

var cleaner = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\t", "    ",
	" ", " ",
	"␤", "\n",
)

// cleanText normalises line breaks and white space before block parsing
func cleanText(text string) string {
	return blankLineRe.ReplaceAllString(cleaner.Replace(text), "")
}

// deserializeDefinitions cleans the text and moves the link reference
// definitions into the refs prop. The first definition of a label wins.
func deserializeDefinitions(s engine.State) (engine.State, bool) {
	refs := make(map[string]model.Data)
	text := definitionRe.ReplaceAllStringFunc(cleanText(s.Text()), func(def string) string {
		m := definitionRe.FindStringSubmatch(def)
		key := normalizeLabel(m[1])
		if _, dup := refs[key]; dup {
			tracer().Debugf("duplicate definition of %q ignored", m[1])
			return ""
		}
		refs[key] = model.NewData("href", UnescapeURL(m[2]), "title", Unescape(m[3]))
		return ""
	})
	return s.ReplaceText(text).SetProp(propRefs, refs), true
}

// resolveRef looks a label up in the definitions
func resolveRef(s engine.State, label string) (model.Data, bool) {
	v, _ := s.Prop(propRefs)
	refs, _ := v.(map[string]model.Data)
	data, ok := refs[normalizeLabel(label)]
	return data, ok
}

// ============================================================================
// HTML
// ============================================================================

// deserializeHTMLBlock reads a raw HTML block through the HTML parser.
// Comments and markup the parser rejects are kept as raw html blocks.
func deserializeHTMLBlock(s engine.State, m []string) (engine.State, bool) {
	raw := strings.TrimSpace(m[0])
	if strings.HasPrefix(raw, "<!--") {
		return s.Push(model.NewVoidBlock(model.BlockHTML, model.NewData("html", raw))), true
	}
	doc, err := htmldoc.Parse(raw)
	if err != nil {
		tracer().Debugf("keeping raw HTML block: %v", err)
		return s.Push(model.NewVoidBlock(model.BlockHTML, model.NewData("html", raw))), true
	}
	if len(doc.Nodes) == 1 && doc.Nodes[0].Type == model.BlockParagraph && doc.Nodes[0].IsEmpty() {
		return s, true
	}
	return s.Push(doc.Nodes...), true
}

func serializeHTMLBlock(s engine.State) (engine.State, bool) {
	return s.Shift().Write(strings.TrimSpace(s.Peek().Data.String("html")) + "\n\n"), true
}

// ============================================================================
// Simple blocks
// ============================================================================

// serializeHR writes a thematic break. A break opening the document is
// preceded by a blank line so that it does not read as a metadata header.
func serializeHR(s engine.State) (engine.State, bool) {
	text := "---\n\n"
	if isTop(s) && s.Text() == "" {
		text = "\n" + text
	}
	return s.Shift().Write(text), true
}

func deserializeFootnote(s engine.State, m []string) (engine.State, bool) {
	s, nodes := lexInline(s, collapseWhiteSpace(m[2]))
	return s.Push(model.NewBlock(model.BlockFootnote, nodes...).Set("id", m[1])), true
}

func serializeFootnote(s engine.State) (engine.State, bool) {
	n := s.Peek()
	inner := s.Use(engine.ModeInline).Serialize(n.Nodes)
	return s.Shift().Write("[^" + n.Data.String("id") + "]: " + inner + "\n\n"), true
}

func deserializeBlockquote(s engine.State, m []string) (engine.State, bool) {
	inner := strings.Trim(quoteMarkRe.ReplaceAllString(m[0], ""), "\n")
	nodes := s.SetProp(propBlockquote, s.Depth()).Deserialize(inner)
	return s.Push(model.NewBlock(model.BlockQuote, nodes...)), true
}

func serializeBlockquote(s engine.State) (engine.State, bool) {
	inner := strings.TrimRight(s.Serialize(s.Peek().Nodes), "\n")
	lines := strings.Split(inner, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return s.Shift().Write(strings.Join(lines, "\n") + "\n\n"), true
}

func deserializeMathBlock(s engine.State, m []string) (engine.State, bool) {
	formula := strings.TrimSpace(m[1])
	if formula == "" {
		return engine.State{}, false
	}
	return s.Push(model.NewVoidBlock(model.BlockMath, model.NewData("formula", formula))), true
}

func serializeMathBlock(s engine.State) (engine.State, bool) {
	formula := strings.Trim(s.Peek().Data.String("formula"), "\n")
	return s.Shift().Write("$$\n" + formula + "\n$$\n\n"), true
}

func serializeComment(s engine.State) (engine.State, bool) {
	return s.Shift().Write("{# " + s.Peek().Data.String("text") + " #}\n\n"), true
}

// ============================================================================
// Code
// ============================================================================

func deserializeFence(s engine.State, m []string) (engine.State, bool) {
	syntax := ""
	if fields := strings.Fields(m[2]); len(fields) > 0 {
		syntax = Unescape(fields[0])
	}
	return s.Push(codeBlock(strings.Trim(m[3], "\n"), syntax)), true
}

func deserializeIndented(s engine.State, m []string) (engine.State, bool) {
	text := strings.TrimRight(indentRe.ReplaceAllString(m[0], ""), "\n")
	return s.Push(codeBlock(text, "")), true
}

func codeBlock(text, syntax string) model.Node {
	lines := strings.Split(text, "\n")
	nodes := make([]model.Node, len(lines))
	for i, line := range lines {
		nodes[i] = model.NewBlock(model.BlockCodeLine, model.NewText(line))
	}
	code := model.NewBlock(model.BlockCode, nodes...)
	if syntax != "" {
		code = code.Set("syntax", syntax)
	}
	return code
}

// serializeCode writes a fenced block, or an indented one when the code
// holds backticks and has no syntax. The fence is longer than any run of
// backticks in the code.
func serializeCode(s engine.State) (engine.State, bool) {
	n := s.Peek()
	lines := make([]string, len(n.Nodes))
	for i, line := range n.Nodes {
		lines[i] = line.Text()
	}
	inner := strings.Join(lines, "\n")
	syntax := n.Data.String("syntax")

	if syntax != "" || !strings.Contains(inner, "`") {
		fence := "```"
		for strings.Contains(inner, fence) {
			fence += "`"
		}
		return s.Shift().Write(fence + syntax + "\n" + inner + "\n" + fence + "\n\n"), true
	}
	for i, line := range lines {
		if line != "" {
			lines[i] = "    " + line
		}
	}
	return s.Shift().Write(strings.Join(lines, "\n") + "\n\n"), true
}

// ============================================================================
// Headings
// ============================================================================

func isHeading(typ string) bool {
	return model.HeadingLevel(typ) > 0
}

// deserializeHeading parses the heading content. A trailing {#id} sets the
// id; otherwise the id of the last HTML anchor seen is used, once.
func deserializeHeading(s engine.State, level int, text string) (engine.State, bool) {
	text = strings.TrimSpace(text)
	id := ""
	if m := headingIDRe.FindStringSubmatch(text); m != nil {
		text, id = m[1], m[2]
	}
	inner := s.Down(nil, text).Use(engine.ModeInline).Lex()
	if id == "" {
		id = inner.PropString(propLastAnchorID)
	}
	heading := model.NewBlock(model.HeadingType(level), trimEdges(inner.Nodes())...)
	if id != "" {
		heading = heading.Set("id", id)
	}
	return inner.Up().ClearProp(propLastAnchorID).Push(heading), true
}

func serializeHeading(s engine.State) (engine.State, bool) {
	n := s.Peek()
	inner := s.Use(engine.ModeInline).Serialize(n.Nodes)
	text := strings.Repeat("#", model.HeadingLevel(n.Type)) + " " + inner
	if id := n.Data.String("id"); id != "" {
		text += " {#" + id + "}"
	}
	return s.Shift().Write(text + "\n\n"), true
}

// trimEdges trims the white space opening the first text and closing the
// last one
func trimEdges(nodes []model.Node) []model.Node {
	if len(nodes) == 0 {
		return nodes
	}
	out := append([]model.Node{}, nodes...)
	if first := out[0]; first.IsText() {
		leaves := append([]model.Leaf{}, first.Leaves...)
		leaves[0].Text = strings.TrimLeft(leaves[0].Text, " \t\n")
		out[0] = first.WithLeaves(leaves...)
	}
	if last := out[len(out)-1]; last.IsText() {
		leaves := append([]model.Leaf{}, last.Leaves...)
		leaves[len(leaves)-1].Text = strings.TrimRight(leaves[len(leaves)-1].Text, " \t\n")
		out[len(out)-1] = last.WithLeaves(leaves...)
	}
	return out
}

// ============================================================================
// Template tags
// ============================================================================

// deserializeCustom emits every tag, closing tags included, as a void
// block. The block list finisher nests them.
func deserializeCustom(s engine.State, m []string) (engine.State, bool) {
	tag, ok := customtag.Parse(m[1])
	if !ok {
		return engine.State{}, false
	}
	return s.Push(model.NewVoidBlock(model.CustomType(tag.Name), tag.Data)), true
}

func serializeCustom(s engine.State) (engine.State, bool) {
	n := s.Peek()
	tag := customtag.Tag{Name: model.CustomTag(n.Type), Data: n.Data}
	text := tag.String() + "\n\n"
	if !n.Void {
		end := customtag.Tag{Name: customtag.End(tag.Name)}
		text += s.Serialize(n.Nodes) + end.String() + "\n\n"
	}
	return s.Shift().Write(text), true
}

// ============================================================================
// Paragraphs
// ============================================================================

// canHoldParagraph reports whether paragraphs form at this level: in the
// document, in a blockquote or in a loose list item
func canHoldParagraph(s engine.State) bool {
	if isTop(s) {
		return true
	}
	parent := s.Depth() - 1
	for _, key := range []string{propBlockquote, propLooseList} {
		if depth, ok := s.PropInt(key); ok && depth == parent {
			return true
		}
	}
	return false
}

// scanParagraph reads a paragraph into a block of type typ. A paragraph
// left empty, like one holding only an anchor, is dropped.
func scanParagraph(typ string) engine.Transform {
	return func(s engine.State) (engine.State, bool) {
		scan := paragraphScanner(enabled(s, propTemplate), enabled(s, propMath))
		n, groups, ok := scan(s.Text())
		if !ok {
			return engine.State{}, false
		}
		s, nodes := lexInline(s.Skip(n), collapseWhiteSpace(groups[0]))
		block := model.NewBlock(typ, nodes...)
		if block.IsEmpty() {
			return s, true
		}
		return s.Push(block), true
	}
}

// serializeTextBlock writes the inline content of a block followed by end.
// Line breaks in text are written as hard line breaks.
func serializeTextBlock(end string) engine.Transform {
	return func(s engine.State) (engine.State, bool) {
		inner := s.Use(engine.ModeInline).SetProp(propHardlineBreak, true).Serialize(s.Peek().Nodes)
		return s.Shift().Write(inner + end), true
	}
}

// collapseWhiteSpace turns runs of white space into single spaces, keeping
// hard line breaks
func collapseWhiteSpace(text string) string {
	parts := strings.Split(text, "  \n")
	for i, part := range parts {
		parts[i] = strings.Join(strings.Fields(part), " ")
	}
	return strings.TrimSpace(strings.Join(parts, "  \n"))
}

// lexInline parses text as inline content at a nested level. Props set
// while parsing, like the last anchor id, are kept.
func lexInline(s engine.State, text string) (engine.State, []model.Node) {
	inner := s.Down(nil, text).Use(engine.ModeInline).Lex()
	return inner.Up(), inner.Nodes()
}
