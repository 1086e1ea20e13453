package model

import (
	"fmt"
	"reflect"
	"strings"
)

// Node is a single value type for every node of a document tree.
//
// Documents, blocks and inlines use Nodes for their children. Text nodes use
// Leaves instead and never have children. Void nodes carry Data only.
type Node struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
	Data   Data   `json:"data,omitempty" yaml:"data,omitempty"`
	Void   bool   `json:"void,omitempty" yaml:"void,omitempty"`
	Nodes  []Node `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Leaves []Leaf `json:"leaves,omitempty" yaml:"leaves,omitempty"`
}

// NewDocument creates a document root with the given metadata and blocks
func NewDocument(data Data, nodes ...Node) Node {
	return Node{
		Kind:  KindDocument,
		Data:  canonicalData(data),
		Nodes: joinNodes(nodes),
	}
}

// NewBlock creates a block holding the given children
func NewBlock(typ string, nodes ...Node) Node {
	return Node{
		Kind:  KindBlock,
		Type:  typ,
		Nodes: joinNodes(nodes),
	}
}

// NewVoidBlock creates a void block carrying only data
func NewVoidBlock(typ string, data Data) Node {
	return Node{
		Kind: KindBlock,
		Type: typ,
		Data: canonicalData(data),
		Void: true,
	}
}

// NewInline creates an inline holding the given children
func NewInline(typ string, nodes ...Node) Node {
	return Node{
		Kind:  KindInline,
		Type:  typ,
		Nodes: joinNodes(nodes),
	}
}

// NewVoidInline creates a void inline carrying only data
func NewVoidInline(typ string, data Data) Node {
	return Node{
		Kind: KindInline,
		Type: typ,
		Data: canonicalData(data),
		Void: true,
	}
}

// NewText creates a text node with a single leaf
func NewText(text string, marks ...Mark) Node {
	return NewTextFromLeaves(Leaf{Text: text, Marks: NewMarks(marks...)})
}

// NewTextFromLeaves creates a text node from leaves.
// Adjacent leaves with equal marks are merged.
func NewTextFromLeaves(leaves ...Leaf) Node {
	return Node{
		Kind:   KindText,
		Leaves: joinLeaves(leaves),
	}
}

// WithData returns a copy of the node with its data replaced
func (n Node) WithData(data Data) Node {
	n.Data = canonicalData(data)
	return n
}

// Set returns a copy of the node with a single data key set
func (n Node) Set(key string, value any) Node {
	n.Data = n.Data.With(key, value)
	return n
}

// WithNodes returns a copy of the node with its children replaced.
// A void node given children stops being void.
func (n Node) WithNodes(nodes ...Node) Node {
	n.Nodes = joinNodes(nodes)
	if len(n.Nodes) > 0 {
		n.Void = false
	}
	return n
}

// WithLeaves returns a copy of a text node with its leaves replaced
func (n Node) WithLeaves(leaves ...Leaf) Node {
	n.Leaves = joinLeaves(leaves)
	return n
}

// IsDocument reports whether n is a document root
func (n Node) IsDocument() bool { return n.Kind == KindDocument }

// IsBlock reports whether n is a block
func (n Node) IsBlock() bool { return n.Kind == KindBlock }

// IsInline reports whether n is an inline
func (n Node) IsInline() bool { return n.Kind == KindInline }

// IsText reports whether n is a text node
func (n Node) IsText() bool { return n.Kind == KindText }

// Text returns the concatenated text of every leaf below n
func (n Node) Text() string {
	if n.Kind == KindText {
		if len(n.Leaves) == 1 {
			return n.Leaves[0].Text
		}
		var sb strings.Builder
		for _, l := range n.Leaves {
			sb.WriteString(l.Text)
		}
		return sb.String()
	}
	var sb strings.Builder
	for _, child := range n.Nodes {
		sb.WriteString(child.Text())
	}
	return sb.String()
}

// IsEmpty reports whether n holds no text and no void descendant
func (n Node) IsEmpty() bool {
	if n.Void {
		return false
	}
	if n.Kind == KindText {
		return n.Text() == ""
	}
	for _, child := range n.Nodes {
		if !child.IsEmpty() {
			return false
		}
	}
	return true
}

// FindDescendant returns the first node below n (depth first, excluding n)
// for which match returns true.
func (n Node) FindDescendant(match func(Node) bool) (Node, bool) {
	for _, child := range n.Nodes {
		if match(child) {
			return child, true
		}
		if found, ok := child.FindDescendant(match); ok {
			return found, true
		}
	}
	return Node{}, false
}

// Equal reports whether two trees are structurally identical
func (n Node) Equal(other Node) bool {
	return reflect.DeepEqual(Normalize(n), Normalize(other))
}

func (n Node) String() string {
	switch n.Kind {
	case KindText:
		return fmt.Sprintf("text(%q)", n.Text())
	case KindDocument:
		return fmt.Sprintf("document[%d]", len(n.Nodes))
	default:
		return fmt.Sprintf("%s#%s[%d]", n.Kind, n.Type, len(n.Nodes))
	}
}

// joinNodes merges adjacent text nodes and drops empty texts sitting next to
// other nodes. It returns nil for an empty list.
func joinNodes(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Node, 0, len(nodes))
	for _, child := range nodes {
		if child.Kind == KindText {
			if n := len(out); n > 0 && out[n-1].Kind == KindText {
				leaves := append(append([]Leaf{}, out[n-1].Leaves...), child.Leaves...)
				out[n-1] = NewTextFromLeaves(leaves...)
				continue
			}
		}
		out = append(out, child)
	}
	if len(out) == 1 {
		return out
	}
	kept := out[:0]
	for _, child := range out {
		if child.Kind == KindText && child.Text() == "" {
			continue
		}
		kept = append(kept, child)
	}
	if len(kept) == 0 {
		return out[:1]
	}
	return kept
}
