// Package format provides file format detection for markit conversions.
package format

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// Markdown indicates a markdown document.
	Markdown
	// HTML indicates an HTML document or fragment.
	HTML
	// JSON indicates a document tree encoded as JSON.
	JSON
	// YAML indicates a document tree encoded as YAML.
	YAML
	// EPUB indicates an EPUB book. It is an input format only.
	EPUB
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case Markdown:
		return "Markdown"
	case HTML:
		return "HTML"
	case JSON:
		return "JSON"
	case YAML:
		return "YAML"
	case EPUB:
		return "EPUB"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return ".md"
	case HTML:
		return ".html"
	case JSON:
		return ".json"
	case YAML:
		return ".yaml"
	case EPUB:
		return ".epub"
	default:
		return ""
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown", ".mdown", ".mkd":
		return Markdown
	case ".html", ".htm", ".xhtml":
		return HTML
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	case ".epub":
		return EPUB
	default:
		return Unknown
	}
}

// Parse maps a format name, as given on a command line, to a Format.
// Extensions with or without the leading dot are accepted too.
func Parse(name string) Format {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "markdown", "md":
		return Markdown
	case "html", "htm":
		return HTML
	case "json":
		return JSON
	case "yaml", "yml":
		return YAML
	case "epub":
		return EPUB
	}
	if strings.HasPrefix(name, ".") {
		return Detect(name)
	}
	return Unknown
}

// DetectFromMagic inspects the start of the content to determine format.
// Anything that is valid UTF-8 text and not recognised otherwise is
// taken to be markdown. Returns Unknown for binary content.
func DetectFromMagic(data []byte) Format {
	if detectEPUBMagic(data) {
		return EPUB
	}
	data = bytes.TrimLeft(data, " \t\r\n\uFEFF")
	if len(data) == 0 {
		return Unknown
	}
	head := data[:min(len(data), 512)]
	if !utf8.Valid(trimPartialRune(head)) || hasControlBytes(head) {
		return Unknown
	}
	if detectHTMLMagic(head) {
		return HTML
	}
	if detectJSONMagic(head) {
		return JSON
	}
	return Markdown
}

// detectJSONMagic checks for an object opening with a key or closing
// at once. Template tags, variables and comments also start with '{'.
func detectJSONMagic(data []byte) bool {
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	rest := bytes.TrimLeft(data[1:], " \t\r\n")
	return len(rest) > 0 && (rest[0] == '"' || rest[0] == '}')
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	upper := strings.ToUpper(string(data))
	if strings.HasPrefix(upper, "<!DOCTYPE HTML") {
		return true
	}
	if strings.HasPrefix(upper, "<HTML") || strings.HasPrefix(upper, "<BODY") {
		return true
	}
	// XML declaration followed by html-like content could be XHTML
	if strings.HasPrefix(upper, "<?XML") && strings.Contains(upper, "<HTML") {
		return true
	}
	return false
}

// detectEPUBMagic checks for a zip archive whose first entry is the
// uncompressed EPUB mimetype file.
func detectEPUBMagic(data []byte) bool {
	const (
		headerSize = 30
		name       = "mimetype"
		mimeType   = "application/epub+zip"
	)
	if len(data) < headerSize || !bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return false
	}
	nameLen := int(binary.LittleEndian.Uint16(data[26:28]))
	extraLen := int(binary.LittleEndian.Uint16(data[28:30]))
	if nameLen != len(name) || len(data) < headerSize+nameLen {
		return false
	}
	if string(data[headerSize:headerSize+nameLen]) != name {
		return false
	}
	start := headerSize + nameLen + extraLen
	return len(data) >= start && bytes.HasPrefix(data[start:], []byte(mimeType))
}

// trimPartialRune drops an incomplete multi-byte sequence cut off at the
// end of a sample.
func trimPartialRune(data []byte) []byte {
	for i := 0; i < utf8.UTFMax && i < len(data); i++ {
		r, size := utf8.DecodeLastRune(data[:len(data)-i])
		if r != utf8.RuneError || size > 1 {
			return data[:len(data)-i]
		}
	}
	return data
}

func hasControlBytes(data []byte) bool {
	for _, c := range data {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' && c != '\f' {
			return true
		}
	}
	return false
}
