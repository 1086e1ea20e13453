// Package markdown is the markdown grammar of the conversion engine.
//
// The grammar has three rule lists. The document list splits the optional
// YAML header (see package frontmatter) from the body. The block list
// recognises, in order: reference definitions, raw HTML blocks, tables,
// thematic breaks, lists, footnote definitions, blockquotes, code blocks,
// headings, math blocks, template comments, template tags, paragraphs and
// plain lines. The inline list recognises footnote references, images,
// links, inline math, raw HTML, template variables, hard line breaks, code
// spans, emphasis and text.
//
// Template tags {% name args %} are emitted as void x-<name> blocks and
// nested by a customtag.Resolver once a block list has been parsed.
//
// Use [Parse] and [Render] for whole documents, or build a state on
// [Grammar] for finer control.
package markdown

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'markit.markdown'
func tracer() tracing.Trace {
	return tracing.Select("markit.markdown")
}
