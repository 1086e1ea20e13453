package customtag

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/markit/model"
)

// EndPrefix starts the name of a closing tag
const EndPrefix = "end"

const (
	quoted  = `"(?:[^"\\]|\\[\s\S])*"|'(?:[^'\\]|\\[\s\S])*'`
	literal = `(?:` + quoted + `|[^\s"'=]+)`
)

var (
	tagLineRe = regexp.MustCompile(`^\s*([\w-]+)\s*([\s\S]*?)\s*$`)
	propRe    = regexp.MustCompile(`^\s*(?:([A-Za-z_][\w-]*)\s*=\s*(` + literal + `)|(` + literal + `))`)
	numberRe  = regexp.MustCompile(`^(?:-?\d+\.?\d*|\.?\d+)$`)
	boolRe    = regexp.MustCompile(`^(?i:true|false)$`)
	quotedRe  = regexp.MustCompile(`^(?:` + quoted + `)$`)
)

// Tag is a parsed template tag
type Tag struct {
	Name string
	Data model.Data
}

// Parse reads the inside of a tag, e.g. `hint style="info"`. It returns
// false if text does not start with a tag name.
func Parse(text string) (Tag, bool) {
	m := tagLineRe.FindStringSubmatch(text)
	if m == nil {
		return Tag{}, false
	}
	return Tag{Name: m[1], Data: parseData(m[2])}, true
}

func parseData(text string) model.Data {
	var data model.Data
	args := 0
	for {
		m := propRe.FindStringSubmatch(text)
		if m == nil || m[0] == "" {
			break
		}
		if data == nil {
			data = make(model.Data)
		}
		if m[1] != "" {
			data[m[1]] = ParseLiteral(m[2])
		} else {
			data[strconv.Itoa(args)] = ParseLiteral(m[3])
			args++
		}
		text = text[len(m[0]):]
	}
	if rest := strings.TrimSpace(text); rest != "" {
		tracer().Debugf("ignoring unparsable tag arguments %q", rest)
	}
	return data
}

// ParseLiteral converts a literal to an int, a float64, a bool or a string.
// Anything else is returned as the bare word.
func ParseLiteral(s string) any {
	switch {
	case numberRe.MatchString(s):
		if !strings.Contains(s, ".") {
			if n, err := strconv.Atoi(s); err == nil {
				return n
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	case boolRe.MatchString(s):
		return strings.EqualFold(s, "true")
	case quotedRe.MatchString(s):
		return Unescape(s[1 : len(s)-1])
	}
	return s
}

// FormatLiteral writes a value so that ParseLiteral reads it back
func FormatLiteral(v any) string {
	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v)
	case string:
		return `"` + Escape(v) + `"`
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// String writes the tag as {% name args %}. Positional arguments come
// first, keyword arguments follow sorted by name.
func (t Tag) String() string {
	var b strings.Builder
	b.WriteString("{% ")
	b.WriteString(t.Name)
	for _, key := range orderedKeys(t.Data) {
		b.WriteByte(' ')
		if _, err := strconv.Atoi(key); err != nil {
			b.WriteString(key)
			b.WriteByte('=')
		}
		b.WriteString(FormatLiteral(t.Data[key]))
	}
	b.WriteString(" %}")
	return b.String()
}

// IsEnd reports whether the tag closes another tag, and which
func (t Tag) IsEnd() (string, bool) {
	return ClosedName(t.Name)
}

// End returns the name of the closing tag of name
func End(name string) string {
	return EndPrefix + name
}

// ClosedName returns the name of the tag a closing tag closes
func ClosedName(name string) (string, bool) {
	if len(name) <= len(EndPrefix) || !strings.HasPrefix(name, EndPrefix) {
		return "", false
	}
	return name[len(EndPrefix):], true
}

func orderedKeys(data model.Data) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil || errB == nil:
			return errA == nil
		}
		return keys[i] < keys[j]
	})
	return keys
}

// literal escapes
var (
	escaper = strings.NewReplacer(
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
		`"`, `\"`,
		`'`, `\'`,
	)
	unescaper = strings.NewReplacer(
		`\\`, `\`,
		`\*`, `*`,
		`\#`, `#`,
		`\(`, `(`,
		`\)`, `)`,
		`\[`, `[`,
		`\]`, `]`,
		"\\`", "`",
		`\_`, `_`,
		`\|`, `|`,
		`\"`, `"`,
		`\'`, `'`,
	)
)

// Escape backslash-escapes the characters that are special in a quoted literal
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverts Escape
func Unescape(s string) string {
	return unescaper.Replace(s)
}
