// Package htmldoc converts between HTML markup and document trees.
//
// [Parse] builds a tree from a markup fragment or a full page. Elements are
// read with the golang.org/x/net/html tokenizer and mapped to blocks
// (p, h1-h6, pre, blockquote, hr, table, ul, ol, li), inlines (a, img) and
// marks (b, strong, em, i, del, s, code, plus a few class names and inline
// styles). Content violating the containment rules of the tree is repaired
// with [model.Schema.Append]. Unknown elements are transparent: their content
// flows into the enclosing node.
//
// [Render] prints a tree back to markup. It is driven by an engine grammar,
// see [Rules], so that the same printer serves whole documents and single
// nodes.
package htmldoc

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'markit.htmldoc'
func tracer() tracing.Trace {
	return tracing.Select("markit.htmldoc")
}
