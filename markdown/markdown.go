package markdown

import (
	"github.com/tsawler/markit/customtag"
	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/model"
)

// Options configures the markdown grammar
type Options struct {
	// Template enables template variables, comments and tags
	Template bool
	// Math enables $$ math blocks and inline math
	Math bool
	// UnendingTags lists the template tags that have no closing tag
	UnendingTags []string
}

// DefaultOptions returns options with every syntax enabled and no unending
// tags.
func DefaultOptions() Options {
	return Options{
		Template: true,
		Math:     true,
	}
}

// Props returns the initial props of a state parsing or printing with o
func (o Options) Props() map[string]any {
	return map[string]any{
		propTemplate: o.Template,
		propMath:     o.Math,
	}
}

// State keys shared by the rules
const (
	propRefs          = "refs"
	propLooseList     = "looseList"
	propBlockquote    = "blockquote"
	propLink          = "link"
	propHTML          = "html"
	propLastAnchorID  = "lastAnchorId"
	propTemplate      = "template"
	propMath          = "math"
	propHardlineBreak = "hardlineBreak"
)

// Grammar builds the markdown rule lists. Template tags of the block list
// are nested with the unending tags of o.
func Grammar(o Options) *engine.Grammar {
	g := engine.NewGrammar("markdown")
	g.Add(engine.ModeDocument, documentEntry())
	g.Add(engine.ModeBlock, blockEntries()...)
	g.Add(engine.ModeInline, inlineEntries()...)

	resolver := customtag.NewResolver(o.UnendingTags...)
	g.SetFinish(engine.ModeBlock, func(_ engine.State, nodes []model.Node) []model.Node {
		return resolver.Resolve(nodes)
	})
	return g
}

// NewState returns a state in document mode ready to parse or print with o
func NewState(o Options) engine.State {
	return engine.New(Grammar(o), o.Props())
}

// Parse reads a markdown document
func Parse(text string, o Options) (model.Node, error) {
	return NewState(o).DeserializeDocument(text)
}

// Render prints nodes as markdown. A single document node is printed with
// its metadata header; other nodes are printed as blocks.
func Render(o Options, nodes ...model.Node) (string, error) {
	state := NewState(o)
	if len(nodes) == 1 && nodes[0].IsDocument() {
		return state.SerializeDocument(nodes[0])
	}
	return state.Use(engine.ModeBlock).SerializeNodes(nodes)
}

// enabled reports whether a switch prop is on. Absent switches are on.
func enabled(s engine.State, key string) bool {
	v, ok := s.PropBool(key)
	return !ok || v
}

// isTop reports whether s parses the blocks of the document itself
func isTop(s engine.State) bool {
	return s.Depth() == 2
}
