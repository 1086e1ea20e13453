// Package markit provides a fluent API for converting documents between
// markdown, HTML and the rich-text document tree.
//
// Basic usage:
//
//	html, err := markit.FromMarkdown("# Hello\n\n*world*").HTML()
//	if err != nil {
//	    // handle error
//	}
//
// With options:
//
//	text, err := markit.FromHTML(page).
//	    Template(false).
//	    Math(false).
//	    Markdown()
//
// For advanced use cases, the lower-level markdown, htmldoc and engine
// packages are also available.
package markit

import (
	"errors"
	"io"

	"github.com/tsawler/markit/format"
	"github.com/tsawler/markit/model"
)

// ErrUnsupportedFormat is returned when a source or target format has no
// parser or printer.
var ErrUnsupportedFormat = errors.New("markit: unsupported format")

// FromMarkdown returns a Conversion reading markdown text.
//
// Example:
//
//	doc, err := markit.FromMarkdown("Some **bold** text").Document()
func FromMarkdown(text string) *Conversion {
	return &Conversion{
		source:  format.Markdown,
		input:   []byte(text),
		options: defaultOptions(),
	}
}

// FromHTML returns a Conversion reading HTML markup.
//
// Example:
//
//	text, err := markit.FromHTML("<p>Hello <b>world</b></p>").Markdown()
func FromHTML(markup string) *Conversion {
	return &Conversion{
		source:  format.HTML,
		input:   []byte(markup),
		options: defaultOptions(),
	}
}

// FromDocument returns a Conversion printing an existing tree. The tree is
// normalized first.
//
// Example:
//
//	doc := model.NewDocument(nil, model.NewBlock(model.BlockParagraph, model.NewText("hi")))
//	html, err := markit.FromDocument(doc).HTML()
func FromDocument(doc model.Node) *Conversion {
	return &Conversion{
		doc:     &doc,
		options: defaultOptions(),
	}
}

// Open returns a Conversion reading a file. The source format is taken from
// the file extension, or from the content when the extension is unknown.
//
// Example:
//
//	html, err := markit.Open("README.md").HTML()
func Open(filename string) *Conversion {
	return &Conversion{
		filename: filename,
		source:   format.Detect(filename),
		options:  defaultOptions(),
	}
}

// FromReader returns a Conversion reading all of r as the given format.
// Pass format.Unknown to detect the format from the content.
func FromReader(r io.Reader, f format.Format) *Conversion {
	c := &Conversion{source: f, options: defaultOptions()}
	data, err := io.ReadAll(r)
	if err != nil {
		c.err = err
		return c
	}
	c.input = data
	if f == format.Unknown {
		c.source = format.DetectFromMagic(data)
	}
	return c
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	html := markit.Must(markit.FromMarkdown("# Title").HTML())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
