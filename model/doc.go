// Package model provides the in-memory rich-text document tree shared by the
// markdown and markup converters.
//
// This package defines the user-facing data structures that represent the
// semantic structure of a document. All parsing operations ultimately
// produce these types and all printing operations consume them.
//
// # Document Structure
//
// A tree is built from a single value type, [Node]. Its [Kind] tells which of
// the four node families it belongs to:
//
//   - [KindDocument] - the root, holding blocks and a metadata map
//   - [KindBlock] - block-level containers and leaves (paragraphs, lists, ...)
//   - [KindInline] - links, images and other inline elements
//   - [KindText] - an ordered sequence of [Leaf] values, each a string plus [Marks]
//
// Nodes are values. A parent exclusively owns its children and nothing keeps a
// back-reference, so an edit always produces a new tree:
//
//	doc := model.NewDocument(nil,
//		model.NewBlock(model.BlockHeading1, model.NewText("Title")),
//		model.NewBlock(model.BlockParagraph, model.NewText("Hello", model.NewMark(model.MarkBold))),
//	)
//
// # Containment
//
// A [Schema] declares which block types a container accepts, which blocks may
// hold inline content directly, and which nodes are void. [Schema.Append]
// repairs containment violations instead of rejecting content.
package model
