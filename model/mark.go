package model

import (
	"reflect"
	"sort"
	"strings"
)

// Mark is a typed tag applied to a run of text
type Mark struct {
	Type string `json:"type" yaml:"type"`
	Data Data   `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewMark creates a mark without data
func NewMark(typ string) Mark {
	return Mark{Type: typ}
}

// Marks is a set of marks kept sorted by type, holding at most one mark per type.
type Marks []Mark

// NewMarks builds a mark set. Later marks replace earlier marks of the same type.
func NewMarks(marks ...Mark) Marks {
	var set Marks
	for _, m := range marks {
		set = set.Add(m)
	}
	return set
}

// Add returns a copy of the set with m added
func (ms Marks) Add(m Mark) Marks {
	i := sort.Search(len(ms), func(i int) bool { return ms[i].Type >= m.Type })
	out := make(Marks, 0, len(ms)+1)
	out = append(out, ms[:i]...)
	out = append(out, m)
	if i < len(ms) && ms[i].Type == m.Type {
		i++
	}
	return append(out, ms[i:]...)
}

// Union returns a copy of the set with every mark of other added
func (ms Marks) Union(other Marks) Marks {
	out := ms
	for _, m := range other {
		out = out.Add(m)
	}
	return out
}

// Remove returns a copy of the set without the mark of type typ
func (ms Marks) Remove(typ string) Marks {
	if !ms.Has(typ) {
		return ms
	}
	var out Marks
	for _, m := range ms {
		if m.Type != typ {
			out = append(out, m)
		}
	}
	return out
}

// Has reports whether the set holds a mark of type typ
func (ms Marks) Has(typ string) bool {
	_, ok := ms.Find(typ)
	return ok
}

// Find returns the mark of type typ
func (ms Marks) Find(typ string) (Mark, bool) {
	for _, m := range ms {
		if m.Type == typ {
			return m, true
		}
	}
	return Mark{}, false
}

// Equal reports whether both sets hold the same marks
func (ms Marks) Equal(other Marks) bool {
	if len(ms) != len(other) {
		return false
	}
	for i := range ms {
		if ms[i].Type != other[i].Type {
			return false
		}
		if len(ms[i].Data) != 0 || len(other[i].Data) != 0 {
			if !reflect.DeepEqual(ms[i].Data, other[i].Data) {
				return false
			}
		}
	}
	return true
}

func (ms Marks) String() string {
	types := make([]string, len(ms))
	for i, m := range ms {
		types[i] = m.Type
	}
	return "[" + strings.Join(types, ",") + "]"
}

// Leaf is a run of text sharing a single set of marks
type Leaf struct {
	Text  string `json:"text" yaml:"text"`
	Marks Marks  `json:"marks,omitempty" yaml:"marks,omitempty"`
}

// HasMark reports whether the leaf carries a mark of type typ
func (l Leaf) HasMark(typ string) bool {
	return l.Marks.Has(typ)
}

// joinLeaves merges adjacent leaves with equal marks and drops empty leaves.
// A text always keeps at least one leaf.
func joinLeaves(leaves []Leaf) []Leaf {
	var out []Leaf
	for _, l := range leaves {
		if l.Text == "" {
			continue
		}
		if len(l.Marks) == 0 {
			l.Marks = nil
		}
		if n := len(out); n > 0 && out[n-1].Marks.Equal(l.Marks) {
			out[n-1].Text += l.Text
			continue
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		var marks Marks
		if len(leaves) > 0 && len(leaves[0].Marks) > 0 {
			marks = leaves[0].Marks
		}
		return []Leaf{{Text: "", Marks: marks}}
	}
	return out
}
