package htmldoc

import (
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/parser"
	"github.com/tsawler/markit/model"
	"golang.org/x/net/html"
)

// blockTags maps elements to block types
var blockTags = map[string]string{
	"h1":         model.BlockHeading1,
	"h2":         model.BlockHeading2,
	"h3":         model.BlockHeading3,
	"h4":         model.BlockHeading4,
	"h5":         model.BlockHeading5,
	"h6":         model.BlockHeading6,
	"pre":        model.BlockCode,
	"blockquote": model.BlockQuote,
	"p":          model.BlockParagraph,
	"hr":         model.BlockHR,
	"table":      model.BlockTable,
	"tr":         model.BlockTableRow,
	"th":         model.BlockTableCell,
	"td":         model.BlockTableCell,
	"ul":         model.BlockUnorderedList,
	"ol":         model.BlockOrderedList,
	"li":         model.BlockListItem,
}

// inlineTags maps elements to inline types
var inlineTags = map[string]string{
	"a":   model.InlineLink,
	"img": model.InlineImage,
}

// markTags maps elements to marks
var markTags = map[string]string{
	"b":      model.MarkBold,
	"strong": model.MarkBold,
	"em":     model.MarkItalic,
	"i":      model.MarkItalic,
	"del":    model.MarkStrikethrough,
	"s":      model.MarkStrikethrough,
	"strike": model.MarkStrikethrough,
	"code":   model.MarkCode,
}

// classMarks add marks to the extent of elements matching a selector
var classMarks = []struct {
	selector cascadia.Selector
	mark     string
}{
	{cascadia.MustCompile(".line-through, .strikethrough"), model.MarkStrikethrough},
	{cascadia.MustCompile(".bold"), model.MarkBold},
	{cascadia.MustCompile(".italic"), model.MarkItalic},
}

// voidElements never have a closing tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// optionalEnd elements may be left open; they are closed by their parent.
var optionalEnd = map[string]bool{
	"html": true, "body": true, "p": true, "li": true, "dt": true, "dd": true,
	"tr": true, "td": true, "th": true, "thead": true, "tbody": true,
	"tfoot": true, "option": true, "colgroup": true,
}

// skippedElements are dropped with their content
var skippedElements = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"title":    true,
	"svg":      true,
}

// closesParagraph lists the elements that end an open <p>
var closesParagraph = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "dl": true, "footer": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "ul": true,
}

// element wraps a start tag token in a detached node, the form the
// selectors work on
func element(tok html.Token) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tok.Data,
		DataAtom: tok.DataAtom,
		Attr:     tok.Attr,
	}
}

func attr(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// styles returns the declarations of the style attribute, keyed by property
func styles(tok html.Token) map[string]string {
	style, ok := attr(tok, "style")
	style = strings.TrimSpace(style)
	if !ok || style == "" {
		return nil
	}
	// the last declaration is dropped unless terminated
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		tracer().Debugf("ignoring style %q: %v", style, err)
		return nil
	}
	out := make(map[string]string, len(decls))
	for _, d := range decls {
		out[strings.ToLower(d.Property)] = strings.ToLower(strings.TrimSpace(d.Value))
	}
	return out
}

// marksOf returns the marks an element applies to its content
func marksOf(tok html.Token, inPre bool) []model.Mark {
	var marks []model.Mark
	if typ, ok := markTags[tok.Data]; ok && !(inPre && typ == model.MarkCode) {
		marks = append(marks, model.NewMark(typ))
	}
	if _, ok := attr(tok, "class"); ok {
		el := element(tok)
		for _, cm := range classMarks {
			if cm.selector.Match(el) {
				marks = append(marks, model.NewMark(cm.mark))
			}
		}
	}
	for prop, value := range styles(tok) {
		switch {
		case prop == "font-weight" && (value == "bold" || value == "bolder" || value == "700"):
			marks = append(marks, model.NewMark(model.MarkBold))
		case prop == "font-style" && value == "italic":
			marks = append(marks, model.NewMark(model.MarkItalic))
		case prop == "text-decoration" && strings.Contains(value, "line-through"):
			marks = append(marks, model.NewMark(model.MarkStrikethrough))
		}
	}
	return marks
}

// dataOf returns the data a block or inline element carries
func dataOf(tok html.Token) model.Data {
	get := func(key string) string {
		v, _ := attr(tok, key)
		return v
	}
	switch tok.Data {
	case "a":
		return model.NewData("href", get("href"), "title", get("title"))
	case "img":
		return model.NewData("src", get("src"), "alt", get("alt"), "title", get("title"))
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return model.NewData("id", get("id"))
	case "pre", "code":
		return model.NewData("syntax", syntaxOf(get("class")))
	case "ol":
		if n := parseStart(get("start")); n != 1 {
			return model.NewData("start", n)
		}
	case "td", "th":
		align := get("align")
		if a, ok := styles(tok)["text-align"]; ok {
			align = a
		}
		switch align {
		case model.AlignLeft, model.AlignRight, model.AlignCenter:
			return model.NewData(cellAlign, align)
		}
	}
	return nil
}

// cellAlign holds the alignment of a cell until its table is closed
const cellAlign = "align"

func syntaxOf(class string) string {
	for _, c := range strings.Fields(class) {
		for _, prefix := range []string{"language-", "lang-"} {
			if strings.HasPrefix(c, prefix) && len(c) > len(prefix) {
				return c[len(prefix):]
			}
		}
	}
	return ""
}

func parseStart(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return n
}
