package markdown

import (
	"regexp"
	"strings"

	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/htmldoc"
	"github.com/tsawler/markit/model"
)

var htmlCommentRe = regexp.MustCompile(`^<!--[\s\S]*?-->`)

// scanHTMLPair matches an element with its closing tag. Groups: opening
// tag, inner markup, closing tag, element name.
func scanHTMLPair(text string) (int, []string, bool) {
	m := htmlOpenRe.FindStringSubmatch(text)
	if m == nil || m[3] == "/" || voidElements[strings.ToLower(m[1])] {
		return 0, nil, false
	}
	start, end, ok := findClosingTag(text, len(m[0]), m[1], true)
	if !ok {
		return 0, nil, false
	}
	return end, []string{m[0], text[len(m[0]):start], text[start:end], m[1]}, true
}

// scanHTMLVoid matches a void or self-closed element
func scanHTMLVoid(text string) (int, []string, bool) {
	m := htmlOpenRe.FindStringSubmatch(text)
	if m == nil || m[3] != "/" && !voidElements[strings.ToLower(m[1])] {
		return 0, nil, false
	}
	return len(m[0]), nil, true
}

// deserializeHTMLPair reads an inline element. Elements of block tags are
// kept raw. Others have their content parsed as markdown and the result
// read back through the HTML parser, so that known elements become marks
// and links. Anchor ids are remembered for the next heading.
func deserializeHTMLPair(s engine.State, m []string) (engine.State, bool) {
	open, inner, closing, name := m[1], m[2], m[3], strings.ToLower(m[4])
	if htmlBlockTags[name] {
		data := model.NewData("openingTag", open, "closingTag", closing, "innerHtml", inner)
		return s.Push(model.NewVoidInline(model.InlineHTML, data)), true
	}

	_, nested := s.Prop(propHTML)
	key := propHTML
	if name == "a" {
		key = propLink
	}
	children := s.SetProp(key, s.Depth()).SetProp(propHTML, s.Depth()).Deserialize(inner)
	node := model.NewInline(model.InlineHTML, children...).
		WithData(model.NewData("openingTag", open, "closingTag", closing))
	if nested {
		return s.Push(node), true
	}

	markup, err := htmldoc.Render(node)
	if err != nil {
		tracer().Debugf("keeping raw inline HTML: %v", err)
		return s.Push(node), true
	}
	if id := htmldoc.FindAnchor(markup); id != "" {
		s = s.SetProp(propLastAnchorID, id)
	} else {
		s = s.ClearProp(propLastAnchorID)
	}
	nodes, ok := parseInlineMarkup(markup)
	if !ok {
		return s.Push(node), true
	}
	return s.Push(withMarks(nodes, s.Marks())...), true
}

func deserializeHTMLVoid(s engine.State, m []string) (engine.State, bool) {
	nodes, ok := parseInlineMarkup(m[0])
	if !ok {
		return engine.State{}, false
	}
	return s.Push(withMarks(nodes, s.Marks())...), true
}

// parseInlineMarkup reads markup holding inline content only. Anchors
// without a target are dropped.
func parseInlineMarkup(markup string) ([]model.Node, bool) {
	doc, err := htmldoc.Parse(markup)
	if err != nil {
		tracer().Debugf("inline HTML not parsed: %v", err)
		return nil, false
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Type != model.BlockParagraph {
		return nil, false
	}
	var nodes []model.Node
	for _, n := range doc.Nodes[0].Nodes {
		switch {
		case n.IsText() && n.Text() == "":
		case n.Type == model.InlineLink && n.Data.String("href") == "" && n.IsEmpty():
		default:
			nodes = append(nodes, n)
		}
	}
	return nodes, true
}

// withMarks adds marks to every text below nodes
func withMarks(nodes []model.Node, marks model.Marks) []model.Node {
	if len(marks) == 0 {
		return nodes
	}
	out := make([]model.Node, len(nodes))
	for i, n := range nodes {
		switch {
		case n.IsText():
			leaves := make([]model.Leaf, len(n.Leaves))
			for j, l := range n.Leaves {
				leaves[j] = model.Leaf{Text: l.Text, Marks: l.Marks.Union(marks)}
			}
			out[i] = n.WithLeaves(leaves...)
		case len(n.Nodes) > 0:
			out[i] = n.WithNodes(withMarks(n.Nodes, marks)...)
		default:
			out[i] = n
		}
	}
	return out
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
