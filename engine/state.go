package engine

import (
	"github.com/tsawler/markit/model"
)

// Modes of the rule lists every grammar provides
const (
	ModeDocument = "document"
	ModeBlock    = "block"
	ModeInline   = "inline"
)

// frame is a saved level of the state, pushed by Down and popped by Up.
type frame struct {
	mode  string
	nodes []model.Node
	text  string
	next  *frame
}

// props is a copy-on-write bag. A State only ever points at a props value
// that is never modified afterwards.
type props struct {
	values map[string]any
}

var noProps = &props{}

// State is the immutable cursor of a conversion. Each method returns a new
// State; the receiver is never modified.
//
// While parsing, the text buffer holds the remaining input and the node list
// collects the produced nodes. While printing, the node list holds the nodes
// still to print and the text buffer accumulates the output.
type State struct {
	text    string
	nodes   []model.Node
	depth   int
	stack   *frame
	marks   model.Marks
	mode    string
	props   *props
	grammar *Grammar
}

// New creates a state in document mode using the rules of g. The props
// seed the prop bag.
func New(g *Grammar, initial map[string]any) State {
	s := State{
		mode:    ModeDocument,
		props:   noProps,
		grammar: g,
	}
	if len(initial) > 0 {
		values := make(map[string]any, len(initial))
		for k, v := range initial {
			values[k] = v
		}
		s.props = &props{values: values}
	}
	return s
}

// Same reports whether b is the very same state as a. It is the identity
// test behind the loop guard of the drivers.
func Same(a, b State) bool {
	return a.text == b.text &&
		sameNodes(a.nodes, b.nodes) &&
		a.depth == b.depth &&
		a.stack == b.stack &&
		sameMarks(a.marks, b.marks) &&
		a.mode == b.mode &&
		a.props == b.props &&
		a.grammar == b.grammar
}

func sameNodes(a, b []model.Node) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func sameMarks(a, b model.Marks) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// Text returns the text buffer
func (s State) Text() string { return s.text }

// Nodes returns the working node list. Callers must not modify it.
func (s State) Nodes() []model.Node { return s.nodes }

// Len returns the length of the working node list
func (s State) Len() int { return len(s.nodes) }

// Depth returns the nesting level
func (s State) Depth() int { return s.depth }

// Mode returns the name of the active rule list
func (s State) Mode() string { return s.mode }

// Marks returns the marks applied to generated text
func (s State) Marks() model.Marks { return s.marks }

// Grammar returns the grammar the state uses
func (s State) Grammar() *Grammar { return s.grammar }

// Use switches to the rule list of another mode
func (s State) Use(mode string) State {
	s.mode = mode
	return s
}

// SetProp sets a prop for the state and the states derived from it
func (s State) SetProp(key string, value any) State {
	values := make(map[string]any, len(s.props.values)+1)
	for k, v := range s.props.values {
		values[k] = v
	}
	values[key] = value
	s.props = &props{values: values}
	return s
}

// ClearProp removes a prop
func (s State) ClearProp(key string) State {
	if _, ok := s.props.values[key]; !ok {
		return s
	}
	values := make(map[string]any, len(s.props.values))
	for k, v := range s.props.values {
		if k != key {
			values[k] = v
		}
	}
	s.props = &props{values: values}
	return s
}

// Prop returns a prop
func (s State) Prop(key string) (any, bool) {
	v, ok := s.props.values[key]
	return v, ok
}

// PropInt returns an integer prop
func (s State) PropInt(key string) (int, bool) {
	v, ok := s.props.values[key].(int)
	return v, ok
}

// PropBool returns a boolean prop
func (s State) PropBool(key string) (value, ok bool) {
	value, ok = s.props.values[key].(bool)
	return value, ok
}

// PropString returns a string prop, or "" if absent
func (s State) PropString(key string) string {
	v, _ := s.props.values[key].(string)
	return v
}

// Write appends to the text buffer. Used when printing.
func (s State) Write(text string) State {
	s.text += text
	return s
}

// ReplaceText replaces the whole text buffer
func (s State) ReplaceText(text string) State {
	s.text = text
	return s
}

// Peek returns the first node of the list, or a zero node if it is empty
func (s State) Peek() model.Node {
	if len(s.nodes) == 0 {
		return model.Node{}
	}
	return s.nodes[0]
}

// Shift drops the first node of the list
func (s State) Shift() State {
	if len(s.nodes) > 0 {
		s.nodes = s.nodes[1:len(s.nodes):len(s.nodes)]
	}
	return s
}

// Unshift inserts a node at the front of the list
func (s State) Unshift(n model.Node) State {
	nodes := make([]model.Node, 0, len(s.nodes)+1)
	s.nodes = append(append(nodes, n), s.nodes...)
	return s
}

// Push appends nodes to the list. Used when parsing.
func (s State) Push(nodes ...model.Node) State {
	s.nodes = append(s.nodes[:len(s.nodes):len(s.nodes)], nodes...)
	return s
}

// PushMark adds a mark to the marks applied to generated text
func (s State) PushMark(m model.Mark) State {
	s.marks = s.marks.Add(m)
	return s
}

// GenText creates a text node carrying the active marks. In block mode the
// text is wrapped in an unstyled block.
func (s State) GenText(text string) model.Node {
	node := model.NewTextFromLeaves(model.Leaf{Text: text, Marks: s.marks})
	if s.mode == ModeBlock {
		node = model.NewBlock(model.BlockUnstyled, node)
	}
	return node
}

// PushText pushes a generated text node
func (s State) PushText(text string) State {
	return s.Push(s.GenText(text))
}

// Down moves to a nested level with its own node list and text buffer.
// Props are shared with the nested level.
func (s State) Down(nodes []model.Node, text string) State {
	s.stack = &frame{
		mode:  s.mode,
		nodes: s.nodes,
		text:  s.text,
		next:  s.stack,
	}
	s.depth++
	s.nodes = nodes
	s.text = text
	return s
}

// Up returns to the enclosing level, restoring its node list, text buffer
// and mode. Props set at the nested level are kept.
func (s State) Up() State {
	f := s.stack
	if f == nil {
		Raise(ErrNoFrame)
	}
	s.stack = f.next
	s.depth--
	s.nodes = f.nodes
	s.text = f.text
	s.mode = f.mode
	return s
}

// Skip drops n bytes from the front of the text buffer
func (s State) Skip(n int) State {
	if n > len(s.text) {
		n = len(s.text)
	}
	s.text = s.text[n:]
	return s
}
