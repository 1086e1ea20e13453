package engine

import (
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/tsawler/markit/model"
)

// Op identifies the kind of a rule step
type Op uint8

const (
	OpThen Op = iota
	OpFilter
	OpFilterNot
	OpUse
	OpTap
	OpMatchType
	OpMatchObject
	OpMatchMark
	OpMatchRegexp
	OpMatchScan
	OpTransformLeaves
	OpTransformMarkedLeaf
	OpTransformText
)

var opNames = [...]string{
	OpThen:                "then",
	OpFilter:              "filter",
	OpFilterNot:           "filterNot",
	OpUse:                 "use",
	OpTap:                 "tap",
	OpMatchType:           "matchType",
	OpMatchObject:         "matchObject",
	OpMatchMark:           "matchMark",
	OpMatchRegexp:         "matchRegexp",
	OpMatchScan:           "matchScan",
	OpTransformLeaves:     "transformLeaves",
	OpTransformMarkedLeaf: "transformMarkedLeaf",
	OpTransformText:       "transformText",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

// Transform maps a state to a new state. Returning false passes the turn.
type Transform func(State) (State, bool)

// Predicate inspects an in-progress state
type Predicate func(State) bool

// MatchFunc receives the state positioned after the matched text and the
// submatches of the match (unmatched groups are empty).
type MatchFunc func(state State, match []string) (State, bool)

// Scanner is a hand-written matcher anchored at the start of text. It returns
// the number of bytes consumed and the groups it captured.
type Scanner func(text string) (length int, groups []string, ok bool)

// LeafFunc rewrites a single leaf of a text node
type LeafFunc func(State, model.Leaf) model.Leaf

// MarkedTextFunc rewrites the text of a leaf carrying mark
type MarkedTextFunc func(state State, text string, mark model.Mark) string

type step struct {
	op       Op
	then     Transform
	pred     Predicate
	alts     []Rule
	tap      func(State)
	match    func(string) bool
	kinds    []model.Kind
	patterns []*regexp.Regexp
	scan     Scanner
	onMatch  MatchFunc
	leaf     LeafFunc
	marked   MarkedTextFunc
}

// Rule is an immutable pipeline of steps. Every combinator returns a new Rule
// and leaves its receiver untouched.
//
// Applying a rule yields a new state, or false when some step passed.
type Rule struct {
	steps   []step
	defined bool
}

// Serializer starts an empty rule for printing
func Serializer() Rule {
	return Rule{defined: true}
}

// Deserializer starts an empty rule for parsing
func Deserializer() Rule {
	return Rule{defined: true}
}

// Defined reports whether the rule was created with Serializer or Deserializer
func (r Rule) Defined() bool {
	return r.defined
}

// Steps returns the ops of the pipeline, in order
func (r Rule) Steps() []Op {
	ops := make([]Op, len(r.steps))
	for i, st := range r.steps {
		ops[i] = st.op
	}
	return ops
}

func (r Rule) with(st step) Rule {
	steps := make([]step, len(r.steps), len(r.steps)+1)
	copy(steps, r.steps)
	return Rule{steps: append(steps, st), defined: true}
}

// Then sequences a transform after the pipeline
func (r Rule) Then(fn Transform) Rule {
	return r.with(step{op: OpThen, then: fn})
}

// Filter passes unless match holds for the in-progress state
func (r Rule) Filter(match Predicate) Rule {
	return r.with(step{op: OpFilter, pred: match})
}

// FilterNot passes if match holds for the in-progress state
func (r Rule) FilterNot(match Predicate) Rule {
	return r.with(step{op: OpFilterNot, pred: match})
}

// Use tries the alternatives in order; the first one to succeed wins
func (r Rule) Use(alternatives ...Rule) Rule {
	return r.with(step{op: OpUse, alts: alternatives})
}

// Tap runs a side effect without altering the result
func (r Rule) Tap(effect func(State)) Rule {
	return r.with(step{op: OpTap, tap: effect})
}

// MatchType limits the rule to nodes of the given types
func (r Rule) MatchType(types ...string) Rule {
	return r.MatchTypeFunc(oneOf(types))
}

// MatchTypeFunc limits the rule to nodes whose type satisfies match
func (r Rule) MatchTypeFunc(match func(string) bool) Rule {
	return r.with(step{op: OpMatchType, match: match})
}

// MatchObject limits the rule to nodes of the given kinds
func (r Rule) MatchObject(kinds ...model.Kind) Rule {
	return r.with(step{op: OpMatchObject, kinds: kinds})
}

// MatchMark limits the rule to text nodes having a leaf with one of the marks
func (r Rule) MatchMark(types ...string) Rule {
	return r.with(step{op: OpMatchMark, match: oneOf(types)})
}

// MatchRegexp matches the text buffer against the patterns in order. The
// first pattern matching at the start of the buffer wins: the matched text
// is skipped and fn receives the submatches.
func (r Rule) MatchRegexp(fn MatchFunc, patterns ...*regexp.Regexp) Rule {
	return r.with(step{op: OpMatchRegexp, patterns: patterns, onMatch: fn})
}

// MatchScan is MatchRegexp for a hand-written scanner
func (r Rule) MatchScan(scan Scanner, fn MatchFunc) Rule {
	return r.with(step{op: OpMatchScan, scan: scan, onMatch: fn})
}

// TransformLeaves rewrites every leaf of the text node on top of the stack
func (r Rule) TransformLeaves(fn LeafFunc) Rule {
	return r.MatchObject(model.KindText).with(step{op: OpTransformLeaves, leaf: fn})
}

// TransformMarkedLeaf rewrites the leaves carrying the mark markType and
// removes that mark from them.
func (r Rule) TransformMarkedLeaf(markType string, fn MarkedTextFunc) Rule {
	return r.MatchMark(markType).with(step{
		op:     OpTransformMarkedLeaf,
		match:  oneOf([]string{markType}),
		marked: fn,
	})
}

var markerSeq uint64

// TransformText rewrites every leaf of a non-empty text node once. Processed
// leaves are tagged with a private marker mark so that the rule does not
// apply again to its own output.
func (r Rule) TransformText(fn LeafFunc) Rule {
	marker := model.NewMark(fmt.Sprintf("~processed-%d", atomic.AddUint64(&markerSeq, 1)))
	return r.MatchObject(model.KindText).
		Filter(func(s State) bool { return !s.Peek().IsEmpty() }).
		FilterNot(func(s State) bool { return hasMark(s.Peek(), marker.Type) }).
		with(step{op: OpTransformText, leaf: func(s State, l model.Leaf) model.Leaf {
			l = fn(s, l)
			l.Marks = l.Marks.Add(marker)
			return l
		}})
}

// Matches reports whether the rule succeeds on s
func (r Rule) Matches(s State) bool {
	_, ok := r.Apply(s)
	return ok
}

// Apply runs the pipeline on s
func (r Rule) Apply(s State) (State, bool) {
	for _, st := range r.steps {
		var ok bool
		if s, ok = st.apply(s); !ok {
			return State{}, false
		}
	}
	return s, true
}

func (st step) apply(s State) (State, bool) {
	switch st.op {
	case OpThen:
		return st.then(s)
	case OpFilter:
		return s, st.pred(s)
	case OpFilterNot:
		return s, !st.pred(s)
	case OpUse:
		for _, alt := range st.alts {
			if next, ok := alt.Apply(s); ok {
				return next, true
			}
		}
		return State{}, false
	case OpTap:
		st.tap(s)
		return s, true
	case OpMatchType:
		return s, s.Len() > 0 && st.match(s.Peek().Type)
	case OpMatchObject:
		if s.Len() == 0 {
			return s, false
		}
		kind := s.Peek().Kind
		for _, k := range st.kinds {
			if k == kind {
				return s, true
			}
		}
		return s, false
	case OpMatchMark:
		if s.Len() == 0 || s.Peek().Kind != model.KindText {
			return s, false
		}
		for _, l := range s.Peek().Leaves {
			for _, m := range l.Marks {
				if st.match(m.Type) {
					return s, true
				}
			}
		}
		return s, false
	case OpMatchRegexp:
		for _, re := range st.patterns {
			loc := re.FindStringSubmatchIndex(s.text)
			if loc == nil || loc[0] != 0 {
				continue
			}
			return st.onMatch(s.Skip(loc[1]), submatches(s.text, loc))
		}
		return State{}, false
	case OpMatchScan:
		n, groups, ok := st.scan(s.text)
		if !ok {
			return State{}, false
		}
		return st.onMatch(s.Skip(n), append([]string{s.text[:n]}, groups...))
	case OpTransformLeaves, OpTransformText:
		text := s.Peek()
		leaves := make([]model.Leaf, len(text.Leaves))
		for i, l := range text.Leaves {
			leaves[i] = st.leaf(s, l)
		}
		return s.Shift().Unshift(model.NewTextFromLeaves(leaves...)), true
	case OpTransformMarkedLeaf:
		text := s.Peek()
		leaves := make([]model.Leaf, len(text.Leaves))
		for i, l := range text.Leaves {
			leaves[i] = l
			for _, m := range l.Marks {
				if st.match(m.Type) {
					leaves[i] = model.Leaf{
						Text:  st.marked(s, l.Text, m),
						Marks: l.Marks.Remove(m.Type),
					}
					break
				}
			}
		}
		return s.Shift().Unshift(model.NewTextFromLeaves(leaves...)), true
	}
	Raise(fmt.Errorf("engine: unknown rule op %v", st.op))
	return State{}, false
}

func submatches(text string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return groups
}

func oneOf(types []string) func(string) bool {
	return func(t string) bool {
		for _, x := range types {
			if x == t {
				return true
			}
		}
		return false
	}
}

func hasMark(text model.Node, markType string) bool {
	for _, l := range text.Leaves {
		if l.Marks.Has(markType) {
			return true
		}
	}
	return false
}
