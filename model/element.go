package model

import (
	"fmt"
	"strings"
)

// Kind is the family a node belongs to
type Kind uint8

const (
	KindDocument Kind = iota
	KindBlock
	KindInline
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindBlock:
		return "block"
	case KindInline:
		return "inline"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{KindDocument, KindBlock, KindInline, KindText} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("model: unknown node kind %q", text)
}

// Block types
const (
	BlockParagraph     = "paragraph"
	BlockHeading1      = "heading_1"
	BlockHeading2      = "heading_2"
	BlockHeading3      = "heading_3"
	BlockHeading4      = "heading_4"
	BlockHeading5      = "heading_5"
	BlockHeading6      = "heading_6"
	BlockQuote         = "blockquote"
	BlockCode          = "code_block"
	BlockCodeLine      = "code_line"
	BlockUnorderedList = "unordered_list"
	BlockOrderedList   = "ordered_list"
	BlockListItem      = "list_item"
	BlockTable         = "table"
	BlockTableRow      = "table_row"
	BlockTableCell     = "table_cell"
	BlockHR            = "hr"
	BlockHTML          = "html"
	BlockComment       = "comment"
	BlockMath          = "math"
	BlockFootnote      = "footnote"
	BlockUnstyled      = "unstyled"
)

// Inline types
const (
	InlineLink        = "link"
	InlineImage       = "image"
	InlineFootnoteRef = "footnote_ref"
	InlineHTML        = "html"
	InlineMath        = "math"
	InlineVariable    = "variable"
)

// Mark types
const (
	MarkBold          = "bold"
	MarkItalic        = "italic"
	MarkCode          = "code"
	MarkStrikethrough = "strikethrough"
)

// CustomPrefix prefixes the type of every custom template block.
const CustomPrefix = "x-"

// Headings lists the heading block types by level (index 0 is level 1).
var Headings = [...]string{
	BlockHeading1,
	BlockHeading2,
	BlockHeading3,
	BlockHeading4,
	BlockHeading5,
	BlockHeading6,
}

// HeadingType returns the block type for a heading level (1-6).
// Levels out of range are clamped.
func HeadingType(level int) string {
	if level < 1 {
		level = 1
	}
	if level > len(Headings) {
		level = len(Headings)
	}
	return Headings[level-1]
}

// HeadingLevel returns the level of a heading type, or 0 if typ is not a heading.
func HeadingLevel(typ string) int {
	for i, h := range Headings {
		if h == typ {
			return i + 1
		}
	}
	return 0
}

// CustomType returns the block type of a custom template tag.
func CustomType(tag string) string {
	return CustomPrefix + tag
}

// IsCustomType reports whether typ is a custom template block type.
func IsCustomType(typ string) bool {
	return strings.HasPrefix(typ, CustomPrefix) && len(typ) > len(CustomPrefix)
}

// CustomTag returns the template tag name of a custom block type.
func CustomTag(typ string) string {
	return strings.TrimPrefix(typ, CustomPrefix)
}
