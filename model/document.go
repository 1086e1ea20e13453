package model

// Normalize rebuilds a tree through the constructors so that it takes its
// canonical form: empty maps and slices become nil, adjacent texts and
// leaves with equal marks are merged, void nodes lose their children.
func Normalize(n Node) Node {
	n.Data = canonicalData(n.Data)
	switch {
	case n.Kind == KindText:
		n.Nodes = nil
		n.Leaves = joinLeaves(n.Leaves)
	case n.Void:
		n.Nodes = nil
		n.Leaves = nil
	default:
		n.Leaves = nil
		if len(n.Nodes) > 0 {
			children := make([]Node, len(n.Nodes))
			for i, child := range n.Nodes {
				children[i] = Normalize(child)
			}
			n.Nodes = joinNodes(children)
		} else {
			n.Nodes = nil
		}
	}
	return n
}

// NormalizeDocument normalizes a document. A document never ends up empty:
// it holds at least one empty paragraph.
func NormalizeDocument(doc Node) Node {
	doc = Normalize(doc)
	if len(doc.Nodes) == 0 {
		doc.Nodes = []Node{NewBlock(BlockParagraph, NewText(""))}
	}
	return doc
}

// TOCEntry represents an entry in the table of contents
type TOCEntry struct {
	Level int    // Heading level (1-6)
	Text  string // Heading text
	ID    string // Explicit anchor, if any
}

// TableOfContents returns the headings of a tree organized as a document outline
func TableOfContents(root Node) []TOCEntry {
	var toc []TOCEntry
	walk(root, func(n Node) bool {
		if level := HeadingLevel(n.Type); level > 0 && n.Kind == KindBlock {
			toc = append(toc, TOCEntry{
				Level: level,
				Text:  n.Text(),
				ID:    n.Data.String("id"),
			})
			return false
		}
		return true
	})
	return toc
}

// Stats counts the nodes of a tree
type Stats struct {
	Blocks  int
	Inlines int
	Texts   int
	Marks   map[string]int
	Types   map[string]int
}

// CountNodes walks a tree and returns node statistics
func CountNodes(root Node) Stats {
	stats := Stats{
		Marks: make(map[string]int),
		Types: make(map[string]int),
	}
	walk(root, func(n Node) bool {
		switch n.Kind {
		case KindBlock:
			stats.Blocks++
			stats.Types[n.Type]++
		case KindInline:
			stats.Inlines++
			stats.Types[n.Type]++
		case KindText:
			stats.Texts++
			for _, l := range n.Leaves {
				for _, m := range l.Marks {
					stats.Marks[m.Type]++
				}
			}
		}
		return true
	})
	return stats
}

// walk visits n and its descendants in document order. Returning false from
// visit skips the children of the visited node.
func walk(n Node, visit func(Node) bool) {
	if !visit(n) {
		return
	}
	for _, child := range n.Nodes {
		walk(child, visit)
	}
}
