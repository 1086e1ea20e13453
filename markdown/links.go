package markdown

import (
	"regexp"
	"strings"

	"github.com/tsawler/markit/engine"
	"github.com/tsawler/markit/model"
)

const (
	labelPattern = `\[((?:\[[^\]]*\]|\\[\s\S]|[^\[\]\\])*)\]`
	destPattern  = `\(\s*<?([^\s>]*?)>?(?:\s+"((?:\\[\s\S]|[^"\\])*)"|\s+'((?:\\[\s\S]|[^'\\])*)')?\s*\)`
	refPattern   = `\s*\[([^\]]*)\]`
)

var (
	linkRe     = regexp.MustCompile(`^` + labelPattern + destPattern)
	refLinkRe  = regexp.MustCompile(`^` + labelPattern + refPattern)
	noLinkRe   = regexp.MustCompile(`^` + labelPattern)
	imageRe    = regexp.MustCompile(`^!` + labelPattern + destPattern)
	refImageRe = regexp.MustCompile(`^!` + labelPattern + refPattern)
	noImageRe  = regexp.MustCompile(`^!` + labelPattern)
	autolinkRe = regexp.MustCompile(`^<([^ <>]+(@|:/)[^ <>]+)>`)
	urlRe      = regexp.MustCompile(`^https?://[^\s<]+[^<.,:;"')\]\s]`)
)

func deserializeLink(s engine.State, m []string) (engine.State, bool) {
	return pushLink(s, m[1], UnescapeURL(m[2]), Unescape(m[3]+m[4]))
}

// deserializeRefLink resolves [label][ref], [label][] and [label] against
// the definitions. Unknown labels do not match.
func deserializeRefLink(s engine.State, m []string) (engine.State, bool) {
	ref, ok := resolveRef(s, refKey(m))
	if !ok {
		return engine.State{}, false
	}
	return pushLink(s, m[1], ref.String("href"), ref.String("title"))
}

func refKey(m []string) string {
	if len(m) > 2 && strings.TrimSpace(m[2]) != "" {
		return m[2]
	}
	return m[1]
}

// pushLink pushes a link whose label is parsed with links disabled
func pushLink(s engine.State, label, href, title string) (engine.State, bool) {
	children := s.SetProp(propLink, s.Depth()).Deserialize(label)
	link := model.NewInline(model.InlineLink, children...).
		WithData(model.NewData("href", href, "title", title))
	return s.Push(link), true
}

func deserializeAutolink(s engine.State, m []string) (engine.State, bool) {
	href := m[1]
	if m[2] == "@" && !strings.HasPrefix(href, "mailto:") {
		href = "mailto:" + href
	}
	text := model.NewTextFromLeaves(model.Leaf{Text: m[1], Marks: s.Marks()})
	return s.Push(model.NewInline(model.InlineLink, text).Set("href", href)), true
}

func deserializeURL(s engine.State, m []string) (engine.State, bool) {
	text := model.NewTextFromLeaves(model.Leaf{Text: m[0], Marks: s.Marks()})
	return s.Push(model.NewInline(model.InlineLink, text).Set("href", m[0])), true
}

func deserializeImage(s engine.State, m []string) (engine.State, bool) {
	return pushImage(s, m[1], UnescapeURL(m[2]), Unescape(m[3]+m[4]))
}

func deserializeRefImage(s engine.State, m []string) (engine.State, bool) {
	ref, ok := resolveRef(s, refKey(m))
	if !ok {
		return engine.State{}, false
	}
	return pushImage(s, m[1], ref.String("href"), ref.String("title"))
}

func pushImage(s engine.State, alt, src, title string) (engine.State, bool) {
	data := model.NewData("src", src, "alt", Unescape(alt), "title", title)
	return s.Push(model.NewVoidInline(model.InlineImage, data)), true
}

func serializeLink(s engine.State) (engine.State, bool) {
	n := s.Peek()
	inner := s.Serialize(n.Nodes)
	dest := EscapeURL(n.Data.String("href")) + titleSuffix(n.Data.String("title"))
	return s.Shift().Write("[" + inner + "](" + dest + ")"), true
}

func serializeImage(s engine.State) (engine.State, bool) {
	n := s.Peek()
	dest := EscapeURL(n.Data.String("src")) + titleSuffix(n.Data.String("title"))
	return s.Shift().Write("![" + Escape(n.Data.String("alt")) + "](" + dest + ")"), true
}

func titleSuffix(title string) string {
	if title == "" {
		return ""
	}
	return ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
}
