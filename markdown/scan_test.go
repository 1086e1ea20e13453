package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Escaping Tests
// ============================================================================

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a*b_c", `a\*b\_c`},
		{"[x](y)", `\[x\]\(y\)`},
		{"a|b", `a\|b`},
		{"<tag>", "&lt;tag&gt;"},
		{"AT&T", "AT&amp;T"},
		{"fish & chips", "fish & chips"},
		{`back\slash`, `back\\slash`},
		{"{{ x }}", `\{\{ x }}`},
		{"$$", `\$\$`},
		{"one $", "one $"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Escape(tc.in))
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`a\*b`, "a*b"},
		{`\a`, `\a`},
		{`&amp; &lt;`, "& <"},
		{`\\`, `\`},
		{"&copy;", "©"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Unescape(tc.in))
		})
	}
}

func TestEscapeUnescapeInverse(t *testing.T) {
	for _, text := range []string{"a*b", "x_y_z", "[link]", "1 < 2 > 0", `c:\path`, "AT&T"} {
		assert.Equal(t, text, Unescape(Escape(text)), text)
	}
}

func TestURLEscaping(t *testing.T) {
	assert.Equal(t, "a%20b%28c%29", EscapeURL("a b(c)"))
	assert.Equal(t, "a b(c)", UnescapeURL("a%20b%28c%29"))
	assert.Equal(t, "https://x.dev/a%2Fb", UnescapeURL("https://x.dev/a%2Fb"))
	assert.Equal(t, "https://x.dev/a b", UnescapeURL("https://x.dev/a%20b"))
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, normalizeLabel("Foo  Bar"), normalizeLabel("foo\nbar"))
	assert.Equal(t, normalizeLabel("STRASSE"), normalizeLabel("strasse"))
	assert.NotEqual(t, normalizeLabel("foo"), normalizeLabel("bar"))
}

func TestWrapInline(t *testing.T) {
	assert.Equal(t, " **a** ", wrapInline(" a ", "**"))
	assert.Equal(t, "  ", wrapInline("  ", "**"))
}

// ============================================================================
// Scanner Tests
// ============================================================================

func TestSplitCells(t *testing.T) {
	tests := []struct {
		row  string
		want []string
	}{
		{`A \| B|C`, []string{`A \| B`, "C"}},
		{"| a | b |", []string{"a", "b"}},
		{"a | b", []string{"a", "b"}},
		{"| a |  |", []string{"a", ""}},
		{`| x \|`, []string{`x \|`}},
		{`| a | b \\|`, []string{"a", `b \\`}},
		{`| a | b \\\|`, []string{"a", `b \\\|`}},
	}
	for _, tc := range tests {
		t.Run(tc.row, func(t *testing.T) {
			assert.Equal(t, tc.want, splitCells(tc.row))
		})
	}
}

func TestCellAlign(t *testing.T) {
	assert.Equal(t, "", cellAlign("---"))
	assert.Equal(t, "left", cellAlign(":--"))
	assert.Equal(t, "right", cellAlign("--:"))
	assert.Equal(t, "center", cellAlign(" :-: "))
}

func TestScanList(t *testing.T) {
	text := "* a\n* b\n\n  continued\n\n* c\n\nAfter\n"
	n, groups, ok := scanList(text)
	require.True(t, ok)
	assert.Equal(t, "* a\n* b\n\n  continued\n\n* c\n\n", text[:n])
	assert.Equal(t, "", groups[1])

	items := splitItems(groups[0], groups[1])
	assert.Equal(t, []string{"* a", "* b\n\n  continued\n", "* c\n\n"}, items)
}

func TestScanList_StopsAtThematicBreak(t *testing.T) {
	n, _, ok := scanList("- a\n- b\n***\n")
	require.True(t, ok)
	assert.Equal(t, len("- a\n- b\n"), n)

	_, _, ok = scanList("---\n")
	assert.False(t, ok)
}

func TestScanFence(t *testing.T) {
	n, groups, ok := scanFence("```go title\ncode\n```\n\nrest")
	require.True(t, ok)
	assert.Equal(t, "```", groups[0])
	assert.Equal(t, "go title", groups[1])
	assert.Equal(t, "code\n", groups[2])
	assert.Equal(t, "rest", "```go title\ncode\n```\n\nrest"[n:])

	_, _, ok = scanFence("``` a`b\n")
	assert.False(t, ok)
}

func TestScanCode(t *testing.T) {
	n, groups, ok := scanCode("`` a`b `` tail")
	require.True(t, ok)
	assert.Equal(t, "a`b", groups[0])
	assert.Equal(t, len("`` a`b ``"), n)

	_, _, ok = scanCode("`open")
	assert.False(t, ok)
}

func TestScanEmphasis(t *testing.T) {
	tests := []struct {
		scan  func(string) (int, []string, bool)
		text  string
		inner string
		ok    bool
	}{
		{scanStrong, "**a**", "a", true},
		{scanStrong, "** a**", "", false},
		{scanStrong, "__a__b", "", false},
		{scanEm, "*a*", "a", true},
		{scanEm, "_a_.", "a", true},
		{scanEm, "_a_b", "", false},
		{scanEm, "*a **b** c*", "a **b** c", true},
		{scanEm, "* a*", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			_, groups, ok := tc.scan(tc.text)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.inner, groups[0])
			}
		})
	}
}

func TestScanText(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"abc*d", "abc"},
		{"*abc", "*abc"},
		{"snake_case", "snake_case"},
		{"a _b", "a "},
		{"see https://x", "see "},
		{"line  \nnext", "line"},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			_, groups, ok := scanText(tc.text)
			require.True(t, ok)
			assert.Equal(t, tc.want, groups[0])
		})
	}
}

func TestParagraphScanner(t *testing.T) {
	scan := paragraphScanner(true, true)

	n, groups, ok := scan("one\ntwo\n\nthree")
	require.True(t, ok)
	assert.Equal(t, "one\ntwo", groups[0])
	assert.Equal(t, 9, n)

	_, groups, ok = scan("text {% tag %}")
	require.True(t, ok)
	assert.Equal(t, "text ", groups[0])

	_, groups, ok = scan("para\n# Heading")
	require.True(t, ok)
	assert.Equal(t, "para", groups[0])

	_, _, ok = scan("\n")
	assert.False(t, ok)
}

func TestCollapseWhiteSpace(t *testing.T) {
	assert.Equal(t, "a b c", collapseWhiteSpace("  a \n b\tc "))
	assert.Equal(t, "a  \nb", collapseWhiteSpace("a   \nb"))
}

func TestOutdentAndIndent(t *testing.T) {
	assert.Equal(t, "a\nb\n c", outdent("a\n  b\n   c", 2))
	assert.Equal(t, "a\n  b\n\n  c", indentLines("a\nb\n\nc", "  "))
}
