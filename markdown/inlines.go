package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/model"
)

var (
	footnoteRefRe = regexp.MustCompile(`^\[\^([^\]\s]+)\]`)
	mathInlineRe  = regexp.MustCompile(`^\$\$([\s\S]+?)\$\$`)
	variableRe    = regexp.MustCompile(`^\{\{\s*([^\n]*?)\s*\}\}`)
	breakRe       = regexp.MustCompile(`^ {2,}\n`)
	escapeRe      = regexp.MustCompile("^\\\\([!-/:-@\\[-`{-~])")
	strikeRe      = regexp.MustCompile(`^~~(\S(?:[\s\S]*?\S)?)~~`)
)

func inlineEntries() []engine.Entry {
	return []engine.Entry{
		{
			Name:      "footnote_ref",
			Serialize: engine.Serializer().MatchType(model.InlineFootnoteRef).Then(serializeFootnoteRef),
			Deserialize: engine.Deserializer().MatchRegexp(func(s engine.State, m []string) (engine.State, bool) {
				return s.Push(model.NewVoidInline(model.InlineFootnoteRef, model.NewData("id", m[1]))), true
			}, footnoteRefRe),
		},
		{
			Name:      "image",
			Serialize: engine.Serializer().MatchType(model.InlineImage).MatchObject(model.KindInline).Then(serializeImage),
			Deserialize: engine.Deserializer().Use(
				engine.Deserializer().MatchRegexp(deserializeImage, imageRe),
				engine.Deserializer().MatchRegexp(deserializeRefImage, refImageRe, noImageRe),
			),
		},
		{
			Name:      "link",
			Serialize: engine.Serializer().MatchType(model.InlineLink).Then(serializeLink),
			Deserialize: engine.Deserializer().
				FilterNot(func(s engine.State) bool {
					_, inLink := s.Prop(propLink)
					return inLink
				}).
				Use(
					engine.Deserializer().MatchRegexp(deserializeLink, linkRe),
					engine.Deserializer().MatchRegexp(deserializeRefLink, refLinkRe, noLinkRe),
					engine.Deserializer().MatchRegexp(deserializeAutolink, autolinkRe),
					engine.Deserializer().MatchRegexp(deserializeURL, urlRe),
				),
		},
		{
			Name: "math",
			Serialize: engine.Serializer().MatchType(model.InlineMath).MatchObject(model.KindInline).Then(func(s engine.State) (engine.State, bool) {
				return s.Shift().Write("$$" + s.Peek().Data.String("formula") + "$$"), true
			}),
			Deserialize: engine.Deserializer().
				Filter(func(s engine.State) bool { return enabled(s, propMath) }).
				MatchRegexp(func(s engine.State, m []string) (engine.State, bool) {
					formula := strings.TrimSpace(m[1])
					if formula == "" {
						return engine.State{}, false
					}
					return s.Push(model.NewVoidInline(model.InlineMath, model.NewData("formula", formula))), true
				}, mathInlineRe),
		},
		{
			Name:      "html",
			Serialize: engine.Serializer().MatchType(model.InlineHTML).MatchObject(model.KindInline).Then(serializeInlineHTML),
			Deserialize: engine.Deserializer().Use(
				engine.Deserializer().MatchRegexp(func(s engine.State, _ []string) (engine.State, bool) {
					return s, true
				}, htmlCommentRe),
				engine.Deserializer().MatchScan(scanHTMLPair, deserializeHTMLPair),
				engine.Deserializer().MatchScan(scanHTMLVoid, deserializeHTMLVoid),
			),
		},
		{
			Name: "variable",
			Serialize: engine.Serializer().MatchType(model.InlineVariable).Then(func(s engine.State) (engine.State, bool) {
				return s.Shift().Write("{{ " + s.Peek().Data.String("key") + " }}"), true
			}),
			Deserialize: engine.Deserializer().
				Filter(func(s engine.State) bool { return enabled(s, propTemplate) }).
				MatchRegexp(func(s engine.State, m []string) (engine.State, bool) {
					if m[1] == "" {
						return engine.State{}, false
					}
					return s.Push(model.NewVoidInline(model.InlineVariable, model.NewData("key", m[1]))), true
				}, variableRe),
		},
		{
			Name:      "hardline_break",
			Serialize: engine.Serializer().TransformText(writeBreaks),
			Deserialize: engine.Deserializer().MatchRegexp(func(s engine.State, _ []string) (engine.State, bool) {
				if strings.TrimSpace(s.Text()) == "" {
					return engine.State{}, false
				}
				return s.PushText("\n"), true
			}, breakRe),
		},
		{
			Name:      "escape",
			Serialize: engine.Serializer().TransformText(escapeLeaf),
			Deserialize: engine.Deserializer().MatchRegexp(func(s engine.State, m []string) (engine.State, bool) {
				return s.PushText(m[1]), true
			}, escapeRe),
		},
		{
			Name:      model.MarkCode,
			Serialize: engine.Serializer().TransformMarkedLeaf(model.MarkCode, wrapCode),
			Deserialize: engine.Deserializer().MatchScan(scanCode, func(s engine.State, m []string) (engine.State, bool) {
				marks := s.Marks().Add(model.NewMark(model.MarkCode))
				return s.Push(model.NewTextFromLeaves(model.Leaf{Text: m[1], Marks: marks})), true
			}),
		},
		markEntry(model.MarkBold, "**", engine.Deserializer().MatchScan(scanStrong, deserializeMarked(model.MarkBold))),
		markEntry(model.MarkItalic, "_", engine.Deserializer().MatchScan(scanEm, deserializeMarked(model.MarkItalic))),
		markEntry(model.MarkStrikethrough, "~~", engine.Deserializer().MatchRegexp(deserializeMarked(model.MarkStrikethrough), strikeRe)),
		{
			Name: "text",
			Serialize: engine.Serializer().MatchObject(model.KindText).Then(func(s engine.State) (engine.State, bool) {
				return s.Shift().Write(s.Peek().Text()), true
			}),
			Deserialize: engine.Deserializer().MatchScan(scanText, func(s engine.State, m []string) (engine.State, bool) {
				return s.PushText(Unescape(m[1])), true
			}),
		},
	}
}

func markEntry(markType, chars string, deserialize engine.Rule) engine.Entry {
	return engine.Entry{
		Name: markType,
		Serialize: engine.Serializer().TransformMarkedLeaf(markType, func(_ engine.State, text string, _ model.Mark) string {
			return wrapInline(text, chars)
		}),
		Deserialize: deserialize,
	}
}

// deserializeMarked parses the first group with the mark added
func deserializeMarked(markType string) engine.MatchFunc {
	return func(s engine.State, m []string) (engine.State, bool) {
		return s.Push(s.PushMark(model.NewMark(markType)).Deserialize(m[1])...), true
	}
}

func serializeFootnoteRef(s engine.State) (engine.State, bool) {
	return s.Shift().Write("[^" + s.Peek().Data.String("id") + "]"), true
}

// writeBreaks turns line breaks into hard line breaks where the block
// allows them, or spaces
func writeBreaks(s engine.State, l model.Leaf) model.Leaf {
	if hard, _ := s.PropBool(propHardlineBreak); hard {
		l.Text = strings.ReplaceAll(l.Text, "\n", "  \n")
	} else {
		l.Text = strings.ReplaceAll(l.Text, "\n", " ")
	}
	return l
}

func escapeLeaf(_ engine.State, l model.Leaf) model.Leaf {
	if !l.HasMark(model.MarkCode) {
		l.Text = Escape(l.Text)
	}
	return l
}

// wrapCode writes a code span with a fence of backticks longer than any
// run inside the code
func wrapCode(_ engine.State, text string, _ model.Mark) string {
	fence := "`"
	for strings.Contains(text, fence) {
		fence += "`"
	}
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") {
		text = " " + text + " "
	}
	return fence + text + fence
}

// ============================================================================
// Scanners
// ============================================================================

// scanCode matches a code span closed by a run of backticks of the same
// length. Group: the trimmed code.
func scanCode(text string) (int, []string, bool) {
	n := runLength(text, 0, '`')
	if n == 0 {
		return 0, nil, false
	}
	for i := n; i < len(text); {
		j := strings.IndexByte(text[i:], '`')
		if j < 0 {
			break
		}
		j += i
		run := runLength(text, j, '`')
		if run == n {
			code := strings.TrimSpace(text[n:j])
			if code == "" {
				break
			}
			return j + run, []string{code}, true
		}
		i = j + run
	}
	return 0, nil, false
}

func runLength(text string, from int, c byte) int {
	n := 0
	for from+n < len(text) && text[from+n] == c {
		n++
	}
	return n
}

// scanStrong matches **strong** or __strong__. The content neither starts
// nor ends with white space and the closing delimiter is not followed by a
// third delimiter character.
func scanStrong(text string) (int, []string, bool) {
	if len(text) < 5 || text[:2] != "**" && text[:2] != "__" {
		return 0, nil, false
	}
	c := text[0]
	for i := 3; i+1 < len(text); i++ {
		if skip, ok := skipEscapeOrCode(text, i); ok {
			i = skip
			continue
		}
		if text[i] != c || text[i+1] != c || i+2 < len(text) && text[i+2] == c {
			continue
		}
		inner := text[2:i]
		if isSpaceByte(inner[0]) || isSpaceByte(inner[len(inner)-1]) {
			continue
		}
		if c == '_' && i+2 < len(text) && isWordByte(text[i+2]) {
			continue
		}
		return i + 2, []string{inner}, true
	}
	return 0, nil, false
}

// scanEm matches *emphasis* or _emphasis_, stepping over strong
// delimiters inside. An underscore closes only at a word boundary.
func scanEm(text string) (int, []string, bool) {
	if len(text) < 3 || text[0] != '*' && text[0] != '_' {
		return 0, nil, false
	}
	c := text[0]
	if text[1] == c || isSpaceByte(text[1]) {
		return 0, nil, false
	}
	for i := 2; i < len(text); i++ {
		if skip, ok := skipEscapeOrCode(text, i); ok {
			i = skip
			continue
		}
		if text[i] != c {
			continue
		}
		if i+1 < len(text) && text[i+1] == c {
			i++
			continue
		}
		if isSpaceByte(text[i-1]) {
			continue
		}
		if c == '_' && i+1 < len(text) && isWordByte(text[i+1]) {
			continue
		}
		return i + 1, []string{text[1:i]}, true
	}
	return 0, nil, false
}

// skipEscapeOrCode returns the last position of an escape or a code span
// starting at i
func skipEscapeOrCode(text string, i int) (int, bool) {
	switch text[i] {
	case '\\':
		return i + 1, true
	case '`':
		if n, _, ok := scanCode(text[i:]); ok {
			return i + n - 1, true
		}
	}
	return i, false
}

// scanText matches plain text up to the next character that may start
// inline syntax. It always consumes at least one character. Underscores
// inside words are text.
func scanText(text string) (int, []string, bool) {
	if text == "" {
		return 0, nil, false
	}
	_, i := utf8.DecodeRuneInString(text)
	for ; i < len(text); i++ {
		switch c := text[i]; c {
		case '\\', '<', '!', '[', '*', '`', '~', '$', '{':
			return i, []string{text[:i]}, true
		case '_':
			if !isWordByte(text[i-1]) {
				return i, []string{text[:i]}, true
			}
		case 'h':
			if strings.HasPrefix(text[i:], "http://") || strings.HasPrefix(text[i:], "https://") {
				return i, []string{text[:i]}, true
			}
		case ' ':
			if strings.HasPrefix(text[i:], "  \n") {
				return i, []string{text[:i]}, true
			}
		}
	}
	return i, []string{text}, true
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

func isWordByte(c byte) bool {
	return c >= 0x80 || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
