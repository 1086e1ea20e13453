package markdown

import (
	"regexp"
	"strings"
)

// Block patterns. Those needing backreferences or lookahead are scanners
// below.
var (
	hrRe        = regexp.MustCompile(`^ {0,3}(?:(?:\*[ \t]*){3,}|(?:-[ \t]*){3,}|(?:_[ \t]*){3,})(?:\n+|$)`)
	headingRe   = regexp.MustCompile(`^ {0,3}(#{1,6})[ \t]+([^\n]*?)(?:[ \t]+#+)?[ \t]*(?:\n+|$)`)
	lheadingRe  = regexp.MustCompile(`^([^\n]+)\n {0,3}(={2,}|-{2,})[ \t]*(?:\n+|$)`)
	headingIDRe = regexp.MustCompile(`^(.*?)[ \t]*\{#([^{}\s]+)\}$`)
	indentedRe  = regexp.MustCompile(`^(?: {4}[^\n]+\n*)+`)
	indentRe    = regexp.MustCompile(`(?m)^ {4}`)
	tableRe     = regexp.MustCompile(`^ *\|(.+)\n *\|( *[-:]+[-| :]*)(?:\n|$)((?: *\|.*(?:\n|$))*)\n*`)
	npTableRe   = regexp.MustCompile(`^ *(\S.*\|.*)\n *([-:]+ *\|[-| :]*)(?:\n|$)((?:.*\|.*(?:\n|$))*)\n*`)
	footnoteRe  = regexp.MustCompile(`^\[\^([^\]\s]+)\]:[ \t]*([^\n]*(?:\n+|$)(?: +[^\n]*(?:\n+|$))*)`)
	mathBlockRe = regexp.MustCompile(`^\$\$[ \t]*\n?([\s\S]+?)\n?[ \t]*\$\$[ \t]*(?:\n+|$)`)
	commentRe   = regexp.MustCompile(`^\{#\s*([\s\S]*?)\s*#\}[ \t]*\n*`)
	customRe    = regexp.MustCompile(`^\{%\s*([\s\S]*?)\s*%\}[ \t]*\n*`)
	quoteRe     = regexp.MustCompile(`^ {0,3}>`)
	quoteMarkRe = regexp.MustCompile(`(?m)^ *> ?`)
	bulletRe    = regexp.MustCompile(`^( *)([*+-]|\d{1,9}\.)(?: +|$)`)
	fenceRe     = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})[ \\t]*([^\\n]*)$")
	htmlOpenRe  = regexp.MustCompile(`^<([A-Za-z][A-Za-z0-9-]*)((?:\s+[A-Za-z_:][\w:.-]*(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'=<>` + "`" + `]+))?)*)\s*(/?)>`)

	// The definition pattern works on whole lines of the cleaned text.
	definitionRe = regexp.MustCompile(`(?m)^ {0,3}\[([^\]\^][^\]]*)\]:[ \t]*\n?[ \t]*<?([^\s>]+)>?(?:[ \t]+=\d*x\d*)?(?:[ \t]*\n?[ \t]*["'(]([^\n]*?)["')])?[ \t]*(?:\n+|$)`)
	blankLineRe  = regexp.MustCompile(`(?m)^ +$`)
)

// HTML elements that are not parsed as markdown when written inline, and
// that start a raw HTML block.
var htmlBlockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"details": true, "dialog": true, "dd": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hgroup": true,
	"hr": true, "iframe": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "script": true, "section": true,
	"style": true, "table": true, "tbody": true, "td": true, "tfoot": true,
	"th": true, "thead": true, "tr": true, "ul": true, "video": true,
}

// HTML elements that never have a closing tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// nextLine returns the line starting at pos and the position after its
// line break.
func nextLine(text string, pos int) (line string, next int) {
	if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
		return text[pos : pos+i], pos + i + 1
	}
	return text[pos:], len(text)
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// skipBlankLines returns the start of the first non-blank line at or after pos
func skipBlankLines(text string, pos int) int {
	for pos < len(text) {
		line, next := nextLine(text, pos)
		if !isBlank(line) {
			break
		}
		pos = next
	}
	return pos
}

// blockEnd checks that only blank space follows pos on its line, and that
// the line is followed by a blank line or the end of text. It returns the
// position after the trailing blank lines.
func blockEnd(text string, pos int) (int, bool) {
	line, next := nextLine(text, pos)
	if !isBlank(line) {
		return 0, false
	}
	if next == len(text) {
		return next, true
	}
	if following, _ := nextLine(text, next); !isBlank(following) {
		return 0, false
	}
	return skipBlankLines(text, next), true
}

// scanFence matches a fenced code block. Groups: fence, info, content. An
// unterminated fence runs to the end of text.
func scanFence(text string) (int, []string, bool) {
	first, pos := nextLine(text, 0)
	m := fenceRe.FindStringSubmatch(first)
	if m == nil {
		return 0, nil, false
	}
	fence, info := m[1], strings.TrimSpace(m[2])
	if fence[0] == '`' && strings.Contains(info, "`") {
		return 0, nil, false
	}
	start := pos
	for pos < len(text) {
		line, next := nextLine(text, pos)
		if isClosingFence(line, fence) {
			return skipBlankLines(text, next), []string{fence, info, text[start:pos]}, true
		}
		pos = next
	}
	return len(text), []string{fence, info, text[start:]}, true
}

func isClosingFence(line, fence string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	trimmed = strings.TrimRight(trimmed, " \t")
	return len(trimmed) >= len(fence) && strings.Trim(trimmed, fence[:1]) == ""
}

// scanHTMLBlock matches a raw HTML block: a comment, or an element of a
// block tag, followed by a blank line or the end of text.
func scanHTMLBlock(text string) (int, []string, bool) {
	offset := len(text) - len(strings.TrimLeft(text, " "))
	if offset > 3 {
		return 0, nil, false
	}
	rest := text[offset:]
	if strings.HasPrefix(rest, "<!--") {
		end := strings.Index(rest, "-->")
		if end < 0 {
			return 0, nil, false
		}
		n, ok := blockEnd(text, offset+end+3)
		return n, nil, ok
	}

	m := htmlOpenRe.FindStringSubmatch(rest)
	if m == nil || !htmlBlockTags[strings.ToLower(m[1])] {
		return 0, nil, false
	}
	afterOpen := offset + len(m[0])
	if m[3] == "/" || voidElements[strings.ToLower(m[1])] {
		n, ok := blockEnd(text, afterOpen)
		return n, nil, ok
	}
	for pos := afterOpen; ; {
		start, end, ok := findClosingTag(text, pos, m[1], false)
		if !ok {
			break
		}
		if n, ok := blockEnd(text, end); ok {
			return n, nil, true
		}
		pos = start + 2
	}
	// An opening tag alone on its paragraph
	n, ok := blockEnd(text, afterOpen)
	return n, nil, ok
}

// findClosingTag finds the closing tag of the element name at or after
// from. When nested is set, elements of the same name opened on the way
// must be closed first. Names compare case-insensitively.
func findClosingTag(text string, from int, name string, nested bool) (start, end int, ok bool) {
	depth := 0
	for pos := from; pos < len(text); {
		i := strings.IndexByte(text[pos:], '<')
		if i < 0 {
			break
		}
		pos += i
		closing := strings.HasPrefix(text[pos:], "</")
		nameAt := pos + 1
		if closing {
			nameAt++
		}
		if !hasTagName(text[nameAt:], name) {
			pos++
			continue
		}
		after := nameAt + len(name)
		if !closing {
			if nested {
				depth++
			}
			pos = after
			continue
		}
		gt := strings.IndexByte(text[after:], '>')
		if gt < 0 || strings.TrimSpace(text[after:after+gt]) != "" {
			pos = after
			continue
		}
		if depth == 0 {
			return pos, after + gt + 1, true
		}
		depth--
		pos = after + gt + 1
	}
	return 0, 0, false
}

// hasTagName reports whether text starts with the tag name, followed by a
// character that cannot continue a name
func hasTagName(text, name string) bool {
	if len(text) < len(name) || !strings.EqualFold(text[:len(name)], name) {
		return false
	}
	if len(text) == len(name) {
		return true
	}
	c := text[len(name)]
	return c == '>' || c == '/' || c == ' ' || c == '\t' || c == '\n'
}

// scanList matches a whole list. It ends before a thematic break, or at a
// blank line followed by a line that is neither indented nor a bullet of
// the same indentation. Groups: list text, indentation.
func scanList(text string) (int, []string, bool) {
	first, pos := nextLine(text, 0)
	m := bulletRe.FindStringSubmatch(first)
	if m == nil || hrRe.MatchString(first) {
		return 0, nil, false
	}
	indent := m[1]
	sawBlank := false
	for pos < len(text) {
		line, next := nextLine(text, pos)
		if isBlank(line) {
			sawBlank = true
			pos = next
			continue
		}
		if hrRe.MatchString(line) {
			break
		}
		if sawBlank && !strings.HasPrefix(line, " ") && !isItemStart(line, indent) {
			break
		}
		sawBlank = false
		pos = next
	}
	return pos, []string{text[:pos], indent}, true
}

// isItemStart reports whether line starts a list item at the given
// indentation
func isItemStart(line, indent string) bool {
	m := bulletRe.FindStringSubmatch(line)
	return m != nil && m[1] == indent
}

// splitItems splits a list into the raw text of its items
func splitItems(list, indent string) []string {
	lines := strings.Split(list, "\n")
	var items []string
	var current []string
	for _, line := range lines {
		if isItemStart(line, indent) && !hrRe.MatchString(line) && current != nil {
			items = append(items, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if current != nil {
		items = append(items, strings.Join(current, "\n"))
	}
	return items
}

// scanBlockquote matches consecutive quoted lines with their lazy
// continuation lines. Quotes separated by blank lines are merged.
func scanBlockquote(text string) (int, []string, bool) {
	first, pos := nextLine(text, 0)
	if !quoteRe.MatchString(first) {
		return 0, nil, false
	}
	end := pos
	for pos < len(text) {
		line, next := nextLine(text, pos)
		if isBlank(line) {
			after := skipBlankLines(text, next)
			if after < len(text) {
				if following, _ := nextLine(text, after); quoteRe.MatchString(following) {
					pos = after
					continue
				}
			}
			end = after
			break
		}
		if !quoteRe.MatchString(line) && interrupts(text[pos:], true, true) {
			break
		}
		pos = next
		end = next
	}
	return end, nil, true
}

// paragraphScanner matches a run of non-blank lines that no other block
// interrupts. With templates on, a paragraph also ends before a tag {%.
// Group: content.
func paragraphScanner(template, math bool) func(string) (int, []string, bool) {
	return func(text string) (int, []string, bool) {
		pos := 0
		end := -1
		for pos < len(text) {
			line, next := nextLine(text, pos)
			if isBlank(line) {
				break
			}
			if pos > 0 && (interrupts(text[pos:], template, math) || lheadingRe.MatchString(text[pos:])) {
				break
			}
			if template {
				from := 0
				if pos == 0 {
					from = 1
				}
				if i := strings.Index(line[min(from, len(line)):], "{%"); i >= 0 {
					if cut := pos + from + i; cut > 0 {
						end = cut
					}
					break
				}
			}
			pos = next
		}
		if end < 0 {
			end = pos
		}
		if end == 0 {
			return 0, nil, false
		}
		content := strings.TrimRight(text[:end], "\n")
		return skipNewlines(text, end), []string{content}, true
	}
}

func skipNewlines(text string, pos int) int {
	for pos < len(text) && text[pos] == '\n' {
		pos++
	}
	return pos
}

// interrupts reports whether rest starts a block that ends a paragraph
func interrupts(rest string, template, math bool) bool {
	line, _ := nextLine(rest, 0)
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	switch {
	case hrRe.MatchString(line), headingRe.MatchString(line), quoteRe.MatchString(line):
		return true
	case fenceRe.MatchString(line), bulletRe.MatchString(line) && !isBlank(bulletRe.ReplaceAllString(line, "")):
		return true
	case math && strings.HasPrefix(trimmed, "$$"):
		return true
	case template && (strings.HasPrefix(trimmed, "{%") || strings.HasPrefix(trimmed, "{#")):
		return true
	case strings.HasPrefix(trimmed, "[^") && footnoteRe.MatchString(trimmed):
		return true
	case tableRe.MatchString(rest), npTableRe.MatchString(rest):
		return true
	}
	_, _, ok := scanHTMLBlock(rest)
	return ok
}

// splitCells splits a table row on the pipes that are not escaped. A
// leading and a trailing pipe are not separators.
// escapedAt reports whether the byte at i follows an odd run of backslashes
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func splitCells(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	if strings.HasSuffix(row, "|") && !escapedAt(row, len(row)-1) {
		row = row[:len(row)-1]
	}
	var cells []string
	start := 0
	for i := 0; i < len(row); i++ {
		switch row[i] {
		case '\\':
			i++
		case '|':
			cells = append(cells, strings.TrimSpace(row[start:i]))
			start = i + 1
		}
	}
	return append(cells, strings.TrimSpace(row[start:]))
}
