package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/tsawler/markit/model"
)

// ApplyRules applies the first rule of the active mode that succeeds for
// phase. It returns false if no rule matches.
func (s State) ApplyRules(phase Phase) (State, bool) {
	next, _, ok := s.applyRules(phase)
	return next, ok
}

func (s State) applyRules(phase Phase) (State, string, bool) {
	list := s.grammar.Rules(s.mode)
	if list == nil {
		return State{}, "", false
	}
	for _, entry := range list.Entries {
		rule := entry.rule(phase)
		if !rule.Defined() {
			continue
		}
		if next, ok := rule.Apply(s); ok {
			tracer().Debugf("%s: rule %q matched in %s mode at depth %d", phase, entry.Name, s.mode, s.depth)
			return next, entry.Name, true
		}
	}
	return State{}, "", false
}

// LexOptions tune the parse driver
type LexOptions struct {
	// StopAt is asked after every successful rule application. Returning
	// true ends lexing with the returned state.
	StopAt func(next, prev State) (State, bool)
	// KeepSpace keeps surrounding white space of unmatched text.
	KeepSpace bool
}

// Lex parses the whole text buffer with the rules of the active mode
func (s State) Lex() State {
	return s.LexWith(LexOptions{})
}

// LexWith parses the text buffer, applying the first matching deserialize
// rule at each position. Input no rule matches is collected one rune at a
// time and flushed as a literal text node before the next match.
func (s State) LexWith(opts LexOptions) State {
	state := s
	var rest strings.Builder
	for {
		start := state
		if pending := rest.String(); pending != "" {
			if !opts.KeepSpace {
				pending = strings.TrimSpace(pending)
			}
			if pending != "" {
				start = state.PushText(pending)
			}
		}

		if state.text == "" {
			return start
		}

		next, name, ok := start.applyRules(PhaseDeserialize)
		if ok && Same(next, start) {
			err := &InvariantError{Phase: PhaseDeserialize, Mode: start.mode, Rule: name, Err: ErrNoOp}
			tracer().Errorf("%v", err)
			Raise(err)
		}

		if !ok {
			_, size := utf8.DecodeRuneInString(state.text)
			rest.WriteString(state.text[:size])
			state = state.Skip(size)
			continue
		}

		if opts.StopAt != nil {
			if stop, ok := opts.StopAt(next, state); ok {
				return stop
			}
		}
		state = next
		rest.Reset()
	}
}

// Deserialize parses text at a nested level in the active mode and returns
// the produced nodes. It panics through Raise on grammar defects and is meant
// to be called from within rules.
func (s State) Deserialize(text string) []model.Node {
	nodes := s.Down(nil, text).Lex().nodes
	if list := s.grammar.Rules(s.mode); list != nil && list.Finish != nil {
		nodes = list.Finish(s, nodes)
	}
	return nodes
}

// Serialize prints nodes at a nested level in the active mode. It panics
// through Raise on grammar defects and is meant to be called from within
// rules.
func (s State) Serialize(nodes []model.Node) string {
	return s.Down(nodes, "").serializeAll().text
}

// SerializeOne prints a single node in the active mode
func (s State) SerializeOne(node model.Node) string {
	return s.Serialize([]model.Node{node})
}

func (s State) serializeAll() State {
	state := s
	for len(state.nodes) > 0 {
		next, name, ok := state.applyRules(PhaseSerialize)
		if !ok {
			err := &InvariantError{Phase: PhaseSerialize, Mode: state.mode, Node: state.Peek().String(), Err: ErrNoRule}
			tracer().Errorf("%v", err)
			Raise(err)
		}
		if Same(next, state) {
			err := &InvariantError{Phase: PhaseSerialize, Mode: state.mode, Rule: name, Node: state.Peek().String(), Err: ErrNoOp}
			tracer().Errorf("%v", err)
			Raise(err)
		}
		state = next
	}
	return state
}

// DeserializeDocument parses text into a document. A document always holds
// at least one block.
func (s State) DeserializeDocument(text string) (doc model.Node, err error) {
	defer Recover(&err)
	doc = model.NewDocument(nil)
	if nodes := s.Use(ModeDocument).Deserialize(text); len(nodes) > 0 {
		doc = nodes[0]
	}
	return model.NormalizeDocument(doc), nil
}

// DeserializeNodes parses text in the active mode
func (s State) DeserializeNodes(text string) (nodes []model.Node, err error) {
	defer Recover(&err)
	return s.Deserialize(text), nil
}

// SerializeDocument prints a document
func (s State) SerializeDocument(doc model.Node) (text string, err error) {
	defer Recover(&err)
	return s.Use(ModeDocument).SerializeOne(doc), nil
}

// SerializeNode prints a single node in the active mode
func (s State) SerializeNode(node model.Node) (text string, err error) {
	defer Recover(&err)
	return s.SerializeOne(node), nil
}

// SerializeNodes prints nodes in the active mode
func (s State) SerializeNodes(nodes []model.Node) (text string, err error) {
	defer Recover(&err)
	return s.Serialize(nodes), nil
}
