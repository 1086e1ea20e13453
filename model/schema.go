package model

// Schema declares the containment rules of a document tree.
//
// Containers maps a container type to the block types it accepts, the first
// entry being the default wrapper used for content it does not accept. The
// document root is keyed by "document". Leaves lists the blocks that may hold
// inline and text content directly. Voids lists the types that never have
// children.
type Schema struct {
	Containers map[string][]string
	Leaves     map[string]bool
	Voids      map[string]bool
}

// documentContainer is the key under which the root's accepted types are stored.
const documentContainer = "document"

var allBlocks = []string{
	BlockUnstyled,
	BlockCode,
	BlockCodeLine,
	BlockQuote,
	BlockParagraph,
	BlockFootnote,
	BlockHTML,
	BlockHR,
	BlockHeading1,
	BlockHeading2,
	BlockHeading3,
	BlockHeading4,
	BlockHeading5,
	BlockHeading6,
	BlockTable,
	BlockTableRow,
	BlockTableCell,
	BlockOrderedList,
	BlockUnorderedList,
	BlockListItem,
	BlockComment,
	BlockMath,
}

func flow(defaultType string) []string {
	return append([]string{defaultType}, allBlocks...)
}

// DefaultSchema returns the containment rules of the rich-text model
func DefaultSchema() Schema {
	return Schema{
		Containers: map[string][]string{
			documentContainer:  flow(BlockParagraph),
			BlockQuote:         flow(BlockUnstyled),
			BlockTable:         {BlockTableRow},
			BlockTableRow:      {BlockTableCell},
			BlockTableCell:     flow(BlockParagraph),
			BlockListItem:      flow(BlockUnstyled),
			BlockOrderedList:   {BlockListItem},
			BlockUnorderedList: {BlockListItem},
			BlockCode:          {BlockCodeLine},
		},
		Leaves: map[string]bool{
			BlockParagraph: true,
			BlockUnstyled:  true,
			BlockTableCell: true,
			BlockCodeLine:  true,
		},
		// Block and inline math share a type name, as do block and
		// inline html. Both kinds are void.
		Voids: map[string]bool{
			BlockHR:           true,
			BlockHTML:         true,
			BlockComment:      true,
			BlockMath:         true,
			InlineImage:       true,
			InlineFootnoteRef: true,
			InlineVariable:    true,
		},
	}
}

func containerKey(n Node) string {
	if n.Kind == KindDocument {
		return documentContainer
	}
	return n.Type
}

// accepted returns the block types a node accepts as children.
// Custom template blocks accept everything the root accepts.
func (s Schema) accepted(n Node) []string {
	if n.Kind == KindInline || n.Kind == KindText {
		return nil
	}
	if types, ok := s.Containers[containerKey(n)]; ok {
		return types
	}
	if n.Kind == KindBlock && IsCustomType(n.Type) {
		return s.Containers[documentContainer]
	}
	return nil
}

// IsContainer reports whether n accepts block children
func (s Schema) IsContainer(n Node) bool {
	return len(s.accepted(n)) > 0
}

// IsLeaf reports whether blocks of type typ hold inline content directly
func (s Schema) IsLeaf(typ string) bool {
	return s.Leaves[typ]
}

// IsVoid reports whether nodes of type typ never have children
func (s Schema) IsVoid(typ string) bool {
	return s.Voids[typ]
}

// DefaultType returns the wrapper type a container uses for content it does
// not accept, or "" if n is not a container.
func (s Schema) DefaultType(n Node) string {
	if types := s.accepted(n); len(types) > 0 {
		return types[0]
	}
	return ""
}

// CanContain reports whether child may be appended to parent as is
func (s Schema) CanContain(parent, child Node) bool {
	if parent.Void {
		return false
	}
	if child.Kind == KindInline || child.Kind == KindText {
		return s.Leaves[parent.Type] && parent.Kind == KindBlock
	}
	for _, t := range s.accepted(parent) {
		if t == child.Type {
			return true
		}
	}
	return IsCustomType(child.Type) && s.IsContainer(parent) && !s.strict(parent)
}

// strict containers only take their listed child types.
func (s Schema) strict(n Node) bool {
	types := s.accepted(n)
	return len(types) == 1
}

// Append adds child to parent, repairing containment violations:
//
//   - a parent that is not a block container keeps only the inline
//     descendants of a block child
//   - a container receiving a node it does not accept appends it to its last
//     child when that child accepts it
//   - otherwise the node is wrapped in the container's default block type
//
// Void parents are returned unchanged.
func (s Schema) Append(parent, child Node) Node {
	if parent.Void {
		return parent
	}

	nodes := append([]Node{}, parent.Nodes...)
	switch {
	case !s.IsContainer(parent) && child.Kind == KindBlock:
		nodes = append(nodes, SelectInlines(child)...)
	case s.IsContainer(parent) && !s.CanContain(parent, child):
		if n := len(nodes); n > 0 && s.CanContain(nodes[n-1], child) {
			nodes[n-1] = s.Append(nodes[n-1], child)
		} else {
			wrapper := s.Append(NewBlock(s.DefaultType(parent)), child)
			nodes = append(nodes, wrapper)
		}
	default:
		nodes = append(nodes, child)
	}
	parent.Nodes = joinNodes(nodes)
	return parent
}

// AppendAll appends every child in order
func (s Schema) AppendAll(parent Node, children ...Node) Node {
	for _, child := range children {
		parent = s.Append(parent, child)
	}
	return parent
}

// SelectInlines flattens a block into its inline and text descendants
func SelectInlines(n Node) []Node {
	if n.Kind != KindBlock {
		return []Node{n}
	}
	var out []Node
	for _, child := range n.Nodes {
		out = append(out, SelectInlines(child)...)
	}
	return out
}
