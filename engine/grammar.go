package engine

import (
	"github.com/tsawler/markit/model"
)

// Entry is a named pair of rules for one node family. Either rule may be
// undefined, e.g. an escaping pass that only prints.
type Entry struct {
	Name        string
	Serialize   Rule
	Deserialize Rule
}

// RuleList is the ordered rule list of one mode. Order is the tie-break
// when several rules match at the same position.
//
// Finish, if set, post-processes the nodes produced by State.Deserialize in
// this mode.
type RuleList struct {
	Entries []Entry
	Finish  func(State, []model.Node) []model.Node
}

// Grammar is the rule table of a surface format
type Grammar struct {
	Name  string
	Modes map[string]*RuleList
}

// NewGrammar creates an empty grammar
func NewGrammar(name string) *Grammar {
	return &Grammar{
		Name:  name,
		Modes: make(map[string]*RuleList),
	}
}

// Add appends entries to the rule list of mode
func (g *Grammar) Add(mode string, entries ...Entry) *Grammar {
	list := g.list(mode)
	list.Entries = append(list.Entries, entries...)
	return g
}

// Insert puts entries at the front of the rule list of mode
func (g *Grammar) Insert(mode string, entries ...Entry) *Grammar {
	list := g.list(mode)
	list.Entries = append(append([]Entry{}, entries...), list.Entries...)
	return g
}

// SetFinish installs the finisher of mode
func (g *Grammar) SetFinish(mode string, finish func(State, []model.Node) []model.Node) *Grammar {
	g.list(mode).Finish = finish
	return g
}

// Rules returns the rule list of mode, or nil
func (g *Grammar) Rules(mode string) *RuleList {
	if g == nil {
		return nil
	}
	return g.Modes[mode]
}

// Clone returns a copy of g whose rule lists may be changed independently
func (g *Grammar) Clone() *Grammar {
	c := NewGrammar(g.Name)
	for mode, list := range g.Modes {
		c.Modes[mode] = &RuleList{
			Entries: append([]Entry{}, list.Entries...),
			Finish:  list.Finish,
		}
	}
	return c
}

func (g *Grammar) list(mode string) *RuleList {
	list, ok := g.Modes[mode]
	if !ok {
		list = &RuleList{}
		g.Modes[mode] = list
	}
	return list
}

func (e Entry) rule(phase Phase) Rule {
	if phase == PhaseSerialize {
		return e.Serialize
	}
	return e.Deserialize
}
