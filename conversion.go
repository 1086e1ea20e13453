package markit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tsawler/markit/epubdoc"
	"github.com/tsawler/markit/format"
	"github.com/tsawler/markit/htmldoc"
	"github.com/tsawler/markit/markdown"
	"github.com/tsawler/markit/model"
	"github.com/tsawler/markit/rag"
	"gopkg.in/yaml.v3"
)

// Conversion provides a fluent interface for converting a document. Each
// configuration method returns a new Conversion, making it safe for
// concurrent use and allowing method chaining.
type Conversion struct {
	// Source
	filename string
	source   format.Format
	input    []byte
	doc      *model.Node

	// Configuration
	options ConvertOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Conversion with a deep copy of options.
func (c *Conversion) clone() *Conversion {
	return &Conversion{
		filename: c.filename,
		source:   c.source,
		input:    c.input,
		doc:      c.doc,
		options:  c.options.clone(),
		err:      c.err,
	}
}

// ============================================================================
// Configuration Methods (return new Conversion for chaining)
// ============================================================================

// Template switches template syntax on or off: variables {{ x }}, comments
// {# x #} and tags {% x %}. It is on by default.
//
// Example:
//
//	text, err := markit.FromMarkdown("{{ not_a_variable }}").Template(false).Markdown()
func (c *Conversion) Template(on bool) *Conversion {
	newConv := c.clone()
	newConv.options.template = on
	return newConv
}

// Math switches $$ math syntax on or off. It is on by default.
func (c *Conversion) Math(on bool) *Conversion {
	newConv := c.clone()
	newConv.options.math = on
	return newConv
}

// UnendingTags names the template tags that never take a closing tag, like
// {% include %}. Each call adds to the list.
//
// Example:
//
//	doc, err := markit.FromMarkdown(text).UnendingTags("include", "set").Document()
func (c *Conversion) UnendingTags(names ...string) *Conversion {
	newConv := c.clone()
	newConv.options.unendingTags = append(newConv.options.unendingTags, names...)
	return newConv
}

// ExcludeNavigation drops page furniture like <nav> and site footers when
// reading HTML or EPUB chapters.
func (c *Conversion) ExcludeNavigation(mode htmldoc.NavigationExclusionMode) *Conversion {
	newConv := c.clone()
	newConv.options.navigation = mode
	return newConv
}

// ============================================================================
// Terminal Operations (run the conversion and return results)
// ============================================================================

// Document parses the source and returns its tree.
func (c *Conversion) Document() (model.Node, error) {
	if c.err != nil {
		return model.Node{}, c.err
	}
	if c.doc != nil {
		return model.NormalizeDocument(*c.doc), nil
	}
	source, input, err := c.load()
	if err != nil {
		return model.Node{}, err
	}

	switch source {
	case format.Markdown:
		return markdown.Parse(string(input), c.options.markdown())
	case format.HTML:
		return htmldoc.OpenReader(bytes.NewReader(input), c.options.html())
	case format.JSON:
		var doc model.Node
		if err := json.Unmarshal(input, &doc); err != nil {
			return model.Node{}, fmt.Errorf("decoding JSON tree: %w", err)
		}
		return checkDocument(doc)
	case format.YAML:
		var doc model.Node
		if err := yaml.Unmarshal(input, &doc); err != nil {
			return model.Node{}, fmt.Errorf("decoding YAML tree: %w", err)
		}
		return checkDocument(doc)
	case format.EPUB:
		book, err := epubdoc.OpenReader(bytes.NewReader(input), int64(len(input)))
		if err != nil {
			return model.Node{}, err
		}
		return book.Document(c.options.html())
	default:
		return model.Node{}, fmt.Errorf("%w: cannot read %s", ErrUnsupportedFormat, source)
	}
}

// Markdown converts the source to markdown.
//
// Example:
//
//	text, err := markit.FromHTML("<h1>Title</h1>").Markdown()
//	// text == "# Title\n"
func (c *Conversion) Markdown() (string, error) {
	doc, err := c.Document()
	if err != nil {
		return "", err
	}
	return markdown.Render(c.options.markdown(), doc)
}

// HTML converts the source to HTML.
//
// Example:
//
//	html, err := markit.FromMarkdown("Hello *world*").HTML()
//	// html == "<p>Hello <em>world</em></p>\n"
func (c *Conversion) HTML() (string, error) {
	doc, err := c.Document()
	if err != nil {
		return "", err
	}
	return htmldoc.Render(doc)
}

// JSON returns the tree of the source encoded as indented JSON.
func (c *Conversion) JSON() ([]byte, error) {
	doc, err := c.Document()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding JSON tree: %w", err)
	}
	return append(data, '\n'), nil
}

// YAML returns the tree of the source encoded as YAML.
func (c *Conversion) YAML() ([]byte, error) {
	doc, err := c.Document()
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding YAML tree: %w", err)
	}
	return data, nil
}

// To converts the source to the target format.
func (c *Conversion) To(target format.Format) ([]byte, error) {
	switch target {
	case format.Markdown:
		text, err := c.Markdown()
		return []byte(text), err
	case format.HTML:
		text, err := c.HTML()
		return []byte(text), err
	case format.JSON:
		return c.JSON()
	case format.YAML:
		return c.YAML()
	default:
		return nil, fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, target)
	}
}

// Stats parses the source and counts its nodes.
func (c *Conversion) Stats() (model.Stats, error) {
	doc, err := c.Document()
	if err != nil {
		return model.Stats{}, err
	}
	return model.CountNodes(doc), nil
}

// TableOfContents parses the source and returns its headings.
func (c *Conversion) TableOfContents() ([]model.TOCEntry, error) {
	doc, err := c.Document()
	if err != nil {
		return nil, err
	}
	return model.TableOfContents(doc), nil
}

// Chunks parses the source and splits it into chunks for retrieval. The
// chunk text is printed with the markdown syntax of the conversion, which
// replaces config.Markdown.
//
// Example:
//
//	result, err := markit.Open("guide.md").Chunks(rag.DefaultChunkerConfig())
func (c *Conversion) Chunks(config rag.ChunkerConfig) (*rag.ChunkResult, error) {
	doc, err := c.Document()
	if err != nil {
		return nil, err
	}
	config.Markdown = c.options.markdown()
	return rag.NewChunkerWithConfig(config).Chunk(doc)
}

// load reads the source file, if any, and settles the source format.
func (c *Conversion) load() (format.Format, []byte, error) {
	if c.filename == "" {
		return c.source, c.input, nil
	}
	data, err := os.ReadFile(c.filename)
	if err != nil {
		return format.Unknown, nil, fmt.Errorf("opening file: %w", err)
	}
	source := c.source
	if source == format.Unknown {
		source = format.DetectFromMagic(data)
	}
	return source, data, nil
}

func checkDocument(doc model.Node) (model.Node, error) {
	if !doc.IsDocument() {
		return model.Node{}, fmt.Errorf("decoding tree: root is a %s node, want document", doc.Kind)
	}
	return model.NormalizeDocument(doc), nil
}
