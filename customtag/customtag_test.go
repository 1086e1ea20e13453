package customtag

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/markit/model"
)

// ============================================================================
// Literal Tests
// ============================================================================

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"10", 10},
		{"-3", -3},
		{"1.5", 1.5},
		{".5", 0.5},
		{"true", true},
		{"FALSE", false},
		{`"hello"`, "hello"},
		{`'it\'s'`, "it's"},
		{`"say \"hi\""`, `say "hi"`},
		{`"a\\b"`, `a\b`},
		{"word", "word"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseLiteral(tc.in))
		})
	}
}

func TestFormatLiteral(t *testing.T) {
	assert.Equal(t, "true", FormatLiteral(true))
	assert.Equal(t, "30", FormatLiteral(30))
	assert.Equal(t, "2.5", FormatLiteral(2.5))
	assert.Equal(t, `"Hello \"world\""`, FormatLiteral(`Hello "world"`))
}

func TestEscapeRoundTrip(t *testing.T) {
	for _, s := range []string{`plain`, `a\b`, `*[x](y)*`, `\*`, `'"|_#`} {
		assert.Equal(t, s, Unescape(Escape(s)), s)
	}
}

// ============================================================================
// Tag Tests
// ============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		tag  string
		data model.Data
	}{
		{"bare", "hint", "hint", nil},
		{"padded", "  hint  ", "hint", nil},
		{"positional", `import "hello.md"`, "import", model.Data{"0": "hello.md"}},
		{"keywords", `someblock a=10 b = 30`, "someblock", model.Data{"a": 10, "b": 30}},
		{"mixed", `sample "x" lang="js" 2`, "sample", model.Data{"0": "x", "lang": "js", "1": 2}},
		{"end", "endhint", "endhint", nil},
		{"dashes", "code-tabs", "code-tabs", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tag, ok := Parse(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.tag, tag.Name)
			assert.Equal(t, tc.data, tag.Data)
		})
	}

	_, ok := Parse("  ")
	assert.False(t, ok)
}

func TestTagString(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{Tag{Name: "hint"}, "{% hint %}"},
		{Tag{Name: "import", Data: model.Data{"0": "hello.md"}}, `{% import "hello.md" %}`},
		{Tag{Name: "b", Data: model.Data{"b": 30, "a": 10}}, "{% b a=10 b=30 %}"},
		{Tag{Name: "m", Data: model.Data{"k": true, "1": "y", "0": "x"}}, `{% m "x" "y" k=true %}`},
		{Tag{Name: "s", Data: model.Data{"message": `Hello "world"`}}, `{% s message="Hello \"world\"" %}`},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.tag.String())

			back, ok := Parse(tc.want[3 : len(tc.want)-3])
			require.True(t, ok)
			assert.Equal(t, tc.tag.Name, back.Name)
			assert.Equal(t, len(tc.tag.Data), len(back.Data))
		})
	}
}

func TestPositionalOrderIsNumeric(t *testing.T) {
	data := model.Data{}
	for i, v := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		data[itoa(i)] = v
	}
	tag := Tag{Name: "t", Data: data}
	assert.Equal(t, `{% t "a" "b" "c" "d" "e" "f" "g" "h" "i" "j" "k" %}`, tag.String())
}

func TestClosedName(t *testing.T) {
	name, ok := ClosedName("endhint")
	assert.True(t, ok)
	assert.Equal(t, "hint", name)
	assert.Equal(t, "endhint", End("hint"))

	_, ok = ClosedName("end")
	assert.False(t, ok)
	_, ok = ClosedName("hint")
	assert.False(t, ok)
}

// ============================================================================
// Resolver Tests
// ============================================================================

func tag(name string, data ...any) model.Node {
	return model.NewVoidBlock(model.CustomType(name), model.NewData(data...))
}

func para(text string) model.Node {
	return model.NewBlock(model.BlockParagraph, model.NewText(text))
}

func TestResolveClosedTag(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "markit.customtag")
	defer teardown()

	nodes := NewResolver().Resolve([]model.Node{tag("hint"), para("A"), tag("endhint")})
	require.Len(t, nodes, 1)
	assert.Equal(t, "x-hint", nodes[0].Type)
	assert.False(t, nodes[0].Void)
	require.Len(t, nodes[0].Nodes, 1)
	assert.Equal(t, "A", nodes[0].Text())
}

func TestResolveEmptyClosedTag(t *testing.T) {
	nodes := NewResolver().Resolve([]model.Node{tag("hint"), tag("endhint"), para("After")})
	require.Len(t, nodes, 2)
	assert.Equal(t, "x-hint", nodes[0].Type)
	assert.False(t, nodes[0].Void)
	assert.Empty(t, nodes[0].Nodes)
	assert.Equal(t, "After", nodes[1].Text())
}

func TestResolveUnendingSiblings(t *testing.T) {
	r := NewResolver("tag")
	nodes := r.Resolve([]model.Node{tag("tag"), para("A"), tag("tag"), para("B"), tag("endtag")})
	require.Len(t, nodes, 2)
	assert.Equal(t, "A", nodes[0].Text())
	assert.Equal(t, "B", nodes[1].Text())
	assert.Equal(t, "x-tag", nodes[1].Type)
}

func TestResolveVoidTagStaysVoid(t *testing.T) {
	nodes := NewResolver().Resolve([]model.Node{para("Hello"), tag("import", "0", "a.md"), para("After")})
	require.Len(t, nodes, 3)
	assert.True(t, nodes[1].Void)
	assert.Equal(t, "a.md", nodes[1].Data.String("0"))
	assert.Equal(t, "After", nodes[2].Text())
}

func TestResolveNestedUnending(t *testing.T) {
	r := NewResolver("method", "sample")
	nodes := r.Resolve([]model.Node{
		para("Hello World"),
		tag("method"), para("Method 1"),
		tag("sample", "lang", "js"), para("Some code"),
		tag("method"), para("Method 2"),
	})
	require.Len(t, nodes, 3)

	first := nodes[1]
	require.Len(t, first.Nodes, 2)
	assert.Equal(t, "Method 1", first.Nodes[0].Text())
	assert.Equal(t, "x-sample", first.Nodes[1].Type)
	assert.Equal(t, "js", first.Nodes[1].Data.String("lang"))
	assert.Equal(t, "Some code", first.Nodes[1].Text())

	assert.Equal(t, "Method 2", nodes[2].Text())
}

func TestResolveVoidInsideUnending(t *testing.T) {
	r := NewResolver("method", "sample")
	nodes := r.Resolve([]model.Node{
		tag("method"), para("Method 1"),
		tag("sample"), para("Some code"),
		tag("youtube", "src", "https://youtu.be/x"),
	})
	require.Len(t, nodes, 1)
	sample := nodes[0].Nodes[1]
	require.Len(t, sample.Nodes, 2)
	assert.True(t, sample.Nodes[1].Void)
	assert.Equal(t, "x-youtube", sample.Nodes[1].Type)
}

func TestResolveInnermostFirst(t *testing.T) {
	nodes := NewResolver().Resolve([]model.Node{
		tag("a"), tag("b"), para("x"), tag("endb"), para("y"), tag("enda"),
	})
	require.Len(t, nodes, 1)
	a := nodes[0]
	require.Len(t, a.Nodes, 2)
	assert.Equal(t, "x-b", a.Nodes[0].Type)
	assert.Equal(t, "x", a.Nodes[0].Text())
	assert.Equal(t, "y", a.Nodes[1].Text())
}

func TestResolveEndTagClosesUnclosedInner(t *testing.T) {
	nodes := NewResolver().Resolve([]model.Node{
		tag("outer"), tag("inner"), para("x"), tag("endouter"),
	})
	require.Len(t, nodes, 1)
	outer := nodes[0]
	require.Len(t, outer.Nodes, 2)
	assert.True(t, outer.Nodes[0].Void, "inner has no closing tag")
	assert.Equal(t, "x", outer.Nodes[1].Text())
}

func TestResolveStrayEndTag(t *testing.T) {
	nodes := NewResolver().Resolve([]model.Node{para("x"), tag("endhint")})
	require.Len(t, nodes, 2)
	assert.Equal(t, "x-endhint", nodes[1].Type)
	assert.True(t, nodes[1].Void)
}

func TestResolveWithoutTags(t *testing.T) {
	nodes := []model.Node{para("a"), para("b")}
	assert.Equal(t, nodes, NewResolver().Resolve(nodes))
	assert.Nil(t, NewResolver().Resolve(nil))
}

func itoa(i int) string {
	return FormatLiteral(i)
}
