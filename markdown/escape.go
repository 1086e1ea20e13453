package markdown

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	escaper = strings.NewReplacer(
		`{{`, `\{\{`,
		`{%`, `\{\%`,
		`{#`, `\{\#`,
		`$$`, `\$\$`,
		`~~`, `\~\~`,
		`\`, `\\`,
		`*`, `\*`,
		`#`, `\#`,
		`(`, `\(`,
		`)`, `\)`,
		`[`, `\[`,
		`]`, `\]`,
		"`", "\\`",
		`_`, `\_`,
		`|`, `\|`,
		`<`, `&lt;`,
		`>`, `&gt;`,
	)
	urlEscaper = strings.NewReplacer(
		` `, `%20`,
		`(`, `%28`,
		`)`, `%29`,
	)
	absoluteURL = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+\-.]*:`)
)

// Escape protects the markdown syntax characters of text. An ampersand is
// written as an entity when it could start one.
func Escape(text string) string {
	return escaper.Replace(escapeAmpersands(text))
}

func escapeAmpersands(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '&' && i+1 < len(text) && isEntityStart(text[i+1]) {
			sb.WriteString("&amp;")
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isEntityStart(c byte) bool {
	return c == '#' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// Unescape removes backslash escapes of punctuation and space, then
// decodes HTML entities.
func Unescape(text string) string {
	return html.UnescapeString(unescapeBackslashes(text))
}

func unescapeBackslashes(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] == '\\' && i+1 < len(text) && isEscapable(text[i+1]) {
			i++
		}
		sb.WriteByte(text[i])
	}
	return sb.String()
}

func isEscapable(c byte) bool {
	return c == ' ' || c < 0x80 && unicode.IsPunct(rune(c)) || c < 0x80 && unicode.IsSymbol(rune(c))
}

// EscapeURL escapes the characters of a URL that end a link destination
func EscapeURL(u string) string {
	return urlEscaper.Replace(u)
}

// UnescapeURL decodes a link destination. Relative URLs are percent
// decoded; absolute ones are kept as written.
func UnescapeURL(u string) string {
	if !absoluteURL.MatchString(u) {
		if decoded, err := url.PathUnescape(u); err == nil {
			u = decoded
		}
	}
	return strings.ReplaceAll(unescapeBackslashes(u), "%20", " ")
}

// normalizeLabel folds a reference label for lookup: runs of white space
// become one space, case is folded. A Caser keeps state, so each call
// gets its own.
func normalizeLabel(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	return norm.NFC.String(cases.Fold().String(label))
}

// wrapInline puts chars around text, inside its surrounding white space
func wrapInline(text, chars string) string {
	core := strings.TrimSpace(text)
	if core == "" {
		return text
	}
	start := strings.Index(text, core)
	return text[:start] + chars + core + chars + text[start+len(core):]
}
