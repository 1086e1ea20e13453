// Package epubdoc reads EPUB books into document trees.
//
// The container and package documents locate the chapters and their reading
// order. Each chapter is parsed with [htmldoc] and the chapters are joined
// into one document, separated by thematic breaks. Book metadata becomes
// document data. DRM-protected books are rejected.
package epubdoc

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'markit.epubdoc'
func tracer() tracing.Trace {
	return tracing.Select("markit.epubdoc")
}
