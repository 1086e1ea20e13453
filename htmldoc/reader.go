package htmldoc

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/tsawler/markit/model"
	"golang.org/x/net/html"
)

// Options tune the parser
type Options struct {
	// Navigation selects which page furniture is dropped
	Navigation NavigationExclusionMode
	// Schema holds the containment rules used to repair the tree. The zero
	// value selects model.DefaultSchema.
	Schema model.Schema
}

// Open parses an HTML file
func Open(filename string, opts Options) (model.Node, error) {
	f, err := os.Open(filename)
	if err != nil {
		return model.Node{}, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return OpenReader(f, opts)
}

// Parse builds a document from markup
func Parse(markup string) (model.Node, error) {
	return OpenReader(strings.NewReader(markup), Options{})
}

// OpenReader builds a document from the markup read from r
func OpenReader(r io.Reader, opts Options) (model.Node, error) {
	b := newBuilder(opts)
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return model.Node{}, fmt.Errorf("reading HTML: %w", err)
			}
			break
		}
		size := len(z.Raw())
		if err := b.token(tt, z.Token()); err != nil {
			tracer().Errorf("%v", err)
			return model.Node{}, err
		}
		b.offset += size
	}
	return b.finish()
}

// openElement is an element whose closing tag is pending
type openElement struct {
	tag   string
	node  bool // the element pushed a node
	marks int  // number of marks the element added
	pre   bool
}

// builder assembles a tree from tokens. The node stack holds the nodes
// under construction, the document at the bottom; the open stack holds the
// elements awaiting their closing tag.
type builder struct {
	opts      Options
	schema    model.Schema
	nodes     *arraystack.Stack
	open      *arraystack.Stack
	marks     []model.Mark
	pre       int
	skip      string
	skipDepth int
	space     bool // white space seen between blocks, kept only before inline content
	offset    int
}

func newBuilder(opts Options) *builder {
	b := &builder{
		opts:   opts,
		schema: opts.Schema,
		nodes:  arraystack.New(),
		open:   arraystack.New(),
	}
	if b.schema.Containers == nil {
		b.schema = model.DefaultSchema()
	}
	doc := model.NewDocument(nil)
	b.nodes.Push(&doc)
	return b
}

func (b *builder) token(tt html.TokenType, tok html.Token) error {
	switch tt {
	case html.StartTagToken, html.SelfClosingTagToken:
		return b.start(tok, tt == html.SelfClosingTagToken)
	case html.EndTagToken:
		return b.end(tok.Data)
	case html.TextToken:
		if b.skip == "" {
			b.text(tok.Data)
		}
	}
	return nil
}

func (b *builder) start(tok html.Token, selfClosing bool) error {
	name := tok.Data
	closed := selfClosing || voidElements[name]
	if b.skip != "" {
		if name == b.skip && !closed {
			b.skipDepth++
		}
		return nil
	}
	if skippedElements[name] || b.opts.Navigation.excludes(tok, b.isOpen("article")) {
		if !closed {
			b.skip, b.skipDepth = name, 1
		}
		return nil
	}
	b.closeImplied(name)

	switch name {
	case "br":
		b.appendNode(model.NewTextFromLeaves(model.Leaf{Text: "\n", Marks: model.NewMarks(b.marks...)}))
		return nil
	case "input":
		if typ, _ := attr(tok, "type"); strings.EqualFold(typ, "checkbox") {
			_, checked := attr(tok, "checked")
			b.setOnOpen(model.BlockListItem, "checked", checked)
		}
		return nil
	case "code":
		if b.pre > 0 {
			if syntax := dataOf(tok).String("syntax"); syntax != "" {
				b.setOnOpen(model.BlockCode, "syntax", syntax)
			}
		}
	}

	el := &openElement{tag: name}
	if typ, ok := blockTags[name]; ok {
		b.push(model.NewBlock(typ).WithData(dataOf(tok)), typ)
		el.node = true
	} else if typ, ok := inlineTags[name]; ok {
		b.push(model.NewInline(typ).WithData(dataOf(tok)), typ)
		el.node = true
	}
	if name == "pre" {
		b.pre++
		el.pre = true
	}
	marks := marksOf(tok, b.pre > 0)
	b.marks = append(b.marks, marks...)
	el.marks = len(marks)

	if closed {
		b.close(el)
		return nil
	}
	b.open.Push(el)
	return nil
}

func (b *builder) end(name string) error {
	if b.skip != "" {
		if name == b.skip {
			b.skipDepth--
			if b.skipDepth == 0 {
				b.skip = ""
			}
		}
		return nil
	}
	if voidElements[name] {
		return nil
	}
	if !b.isOpen(name) {
		return syntaxError(name, b.offset, "closing tag without opening tag")
	}
	for {
		el := b.topElement()
		if el.tag != name && !optionalEnd[el.tag] {
			return syntaxError(el.tag, b.offset, "element not closed before </"+name+">")
		}
		b.open.Pop()
		b.close(el)
		if el.tag == name {
			return nil
		}
	}
}

func (b *builder) finish() (model.Node, error) {
	for b.open.Size() > 0 {
		el := b.topElement()
		if !optionalEnd[el.tag] {
			return model.Node{}, syntaxError(el.tag, b.offset, "element not closed")
		}
		b.open.Pop()
		b.close(el)
	}
	return model.NormalizeDocument(*b.topNode()), nil
}

// closeImplied closes the open elements a start tag ends implicitly
func (b *builder) closeImplied(name string) {
	for b.open.Size() > 0 {
		top := b.topElement().tag
		switch {
		case top == "p" && closesParagraph[name]:
		case top == "li" && name == "li":
		case (top == "td" || top == "th") && (name == "td" || name == "th" || name == "tr"):
		case top == "tr" && name == "tr":
		case (top == "dt" || top == "dd") && (name == "dt" || name == "dd"):
		default:
			return
		}
		el, _ := b.open.Pop()
		b.close(el.(*openElement))
	}
}

func (b *builder) close(el *openElement) {
	b.marks = b.marks[:len(b.marks)-el.marks]
	if el.pre {
		b.pre--
	}
	if el.node {
		v, _ := b.nodes.Pop()
		b.space = false
		b.appendNode(b.finishNode(*v.(*model.Node)))
	}
}

func (b *builder) text(data string) {
	parent := b.topNode()
	if b.pre == 0 {
		data = collapseSpace(data)
		if strings.HasPrefix(data, " ") && endsWithSpace(*parent) {
			data = data[1:]
		}
	}
	data = strings.ReplaceAll(data, "\u00a0", " ")
	if data == "" {
		return
	}

	if b.pre == 0 {
		if strings.TrimSpace(data) == "" && b.schema.IsContainer(*parent) {
			b.space = len(parent.Nodes) > 0
			return
		}
		if b.startsLine(*parent) {
			data = strings.TrimLeft(data, " ")
			if data == "" {
				return
			}
		}
	}
	b.appendNode(model.NewTextFromLeaves(model.Leaf{Text: data, Marks: model.NewMarks(b.marks...)}))
}

// startsLine reports whether text appended to parent starts a new line of
// content
func (b *builder) startsLine(parent model.Node) bool {
	if parent.Kind == model.KindInline {
		return false
	}
	if len(parent.Nodes) == 0 {
		return true
	}
	last := parent.Nodes[len(parent.Nodes)-1]
	return last.Kind == model.KindBlock && !b.schema.CanContain(last, model.NewText(""))
}

func (b *builder) appendNode(child model.Node) {
	parent := b.topNode()
	if child.Kind == model.KindInline || child.Kind == model.KindText {
		b.flushSpace()
	} else if n := len(parent.Nodes); n > 0 && b.schema.IsContainer(*parent) {
		nodes := append([]model.Node{}, parent.Nodes...)
		nodes[n-1] = b.trimTrailing(nodes[n-1])
		parent.Nodes = nodes
	}
	b.space = false
	*parent = b.schema.Append(*parent, child)
}

// flushSpace emits the pending white space unless it would start a line
func (b *builder) flushSpace() {
	parent := b.topNode()
	if b.space && !b.startsLine(*parent) {
		*parent = b.schema.Append(*parent, model.NewText(" "))
	}
	b.space = false
}

func (b *builder) push(n model.Node, typ string) {
	if n.Kind == model.KindInline {
		b.flushSpace()
	}
	if b.schema.IsVoid(typ) {
		n.Void = true
	}
	b.space = false
	b.nodes.Push(&n)
}

// setOnOpen sets a data key on the innermost open node of type typ
func (b *builder) setOnOpen(typ, key string, value any) {
	for _, v := range b.nodes.Values() {
		if n := v.(*model.Node); n.Type == typ {
			*n = n.Set(key, value)
			return
		}
	}
}

func (b *builder) finishNode(n model.Node) model.Node {
	switch n.Type {
	case model.BlockCode:
		return codeLines(n)
	case model.BlockTable:
		n = tableAligns(n)
	}
	return b.trimTrailing(n)
}

// trimTrailing removes the white space ending the content of a block
func (b *builder) trimTrailing(n model.Node) model.Node {
	if n.Kind != model.KindBlock || len(n.Nodes) == 0 {
		return n
	}
	nodes := append([]model.Node{}, n.Nodes...)
	last := nodes[len(nodes)-1]
	switch {
	case last.Kind == model.KindText:
		leaves := append([]model.Leaf{}, last.Leaves...)
		l := &leaves[len(leaves)-1]
		l.Text = strings.TrimRight(l.Text, " ")
		nodes[len(nodes)-1] = last.WithLeaves(leaves...)
	case last.Kind == model.KindBlock && b.schema.IsLeaf(last.Type) && last.Type != model.BlockCodeLine:
		nodes[len(nodes)-1] = b.trimTrailing(last)
	default:
		return n
	}
	return n.WithNodes(nodes...)
}

func (b *builder) isOpen(tag string) bool {
	for _, v := range b.open.Values() {
		if v.(*openElement).tag == tag {
			return true
		}
	}
	return false
}

func (b *builder) topElement() *openElement {
	v, _ := b.open.Peek()
	return v.(*openElement)
}

func (b *builder) topNode() *model.Node {
	v, _ := b.nodes.Peek()
	return v.(*model.Node)
}

// codeLines splits the text of a code block into lines
func codeLines(n model.Node) model.Node {
	lines := strings.Split(strings.ReplaceAll(n.Text(), "\r\n", "\n"), "\n")
	if strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	nodes := make([]model.Node, len(lines))
	for i, line := range lines {
		nodes[i] = model.NewBlock(model.BlockCodeLine, model.NewText(line))
	}
	n.Nodes = nodes
	return n
}

// tableAligns turns the alignments of the first row cells into the aligns
// of the table
func tableAligns(table model.Node) model.Node {
	if len(table.Nodes) == 0 {
		return table
	}
	header := table.Nodes[0]
	aligns := make([]string, len(header.Nodes))
	for i, cell := range header.Nodes {
		aligns[i] = cell.Data.String(cellAlign)
	}
	rows := make([]model.Node, len(table.Nodes))
	for i, row := range table.Nodes {
		cells := make([]model.Node, len(row.Nodes))
		for j, cell := range row.Nodes {
			cells[j] = cell.WithData(cell.Data.Without(cellAlign))
		}
		rows[i] = row.WithNodes(cells...)
	}
	return table.WithNodes(rows...).Set("aligns", aligns)
}

func isHTMLSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// collapseSpace turns every run of white space into a single space
func collapseSpace(s string) string {
	fields := strings.FieldsFunc(s, isHTMLSpace)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if isHTMLSpace(rune(s[0])) {
		out = " " + out
	}
	if isHTMLSpace(rune(s[len(s)-1])) {
		out += " "
	}
	return out
}

func endsWithSpace(parent model.Node) bool {
	if len(parent.Nodes) == 0 {
		return false
	}
	last := parent.Nodes[len(parent.Nodes)-1]
	return last.Kind == model.KindText && strings.HasSuffix(last.Text(), " ")
}
