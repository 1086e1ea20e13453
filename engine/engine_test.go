package engine

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/markit/model"
)

var numberRe = regexp.MustCompile(`^\d+`)

// testGrammar knows numbers (printed as #n) and plain text in inline mode,
// and one line per block in block mode.
func testGrammar() *Grammar {
	g := NewGrammar("test")
	g.Add(ModeInline,
		Entry{
			Name: "number",
			Serialize: Serializer().MatchType("number").Then(func(s State) (State, bool) {
				return s.Shift().Write("#" + s.Peek().Data.String("value")), true
			}),
			Deserialize: Deserializer().MatchRegexp(func(s State, m []string) (State, bool) {
				return s.Push(model.NewVoidInline("number", model.Data{"value": m[0]})), true
			}, numberRe),
		},
		Entry{
			Name: "text",
			Serialize: Serializer().MatchObject(model.KindText).Then(func(s State) (State, bool) {
				return s.Shift().Write(s.Peek().Text()), true
			}),
		},
	)
	g.Add(ModeBlock, Entry{
		Name: "line",
		Serialize: Serializer().MatchType(model.BlockUnstyled).Then(func(s State) (State, bool) {
			inner := s.Use(ModeInline).Serialize(s.Peek().Nodes)
			return s.Shift().Write(inner + "\n"), true
		}),
		Deserialize: Deserializer().MatchRegexp(func(s State, m []string) (State, bool) {
			nodes := s.Use(ModeInline).Deserialize(m[1])
			return s.Push(model.NewBlock(model.BlockUnstyled, nodes...)), true
		}, regexp.MustCompile(`^([^\n]+)\n?`)),
	})
	g.Add(ModeDocument, Entry{
		Name: "document",
		Serialize: Serializer().MatchObject(model.KindDocument).Then(func(s State) (State, bool) {
			return s.Shift().Write(s.Use(ModeBlock).Serialize(s.Peek().Nodes)), true
		}),
		Deserialize: Deserializer().Then(func(s State) (State, bool) {
			nodes := s.Use(ModeBlock).Deserialize(s.Text())
			return s.Skip(len(s.Text())).Push(model.NewDocument(nil, nodes...)), true
		}),
	})
	return g
}

// ============================================================================
// State Tests
// ============================================================================

func TestStateIsImmutable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "markit.engine")
	defer teardown()

	s := New(nil, map[string]any{"a": 1})
	pushed := s.Push(model.NewText("x"))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, pushed.Len())

	set := s.SetProp("a", 2)
	v, _ := s.PropInt("a")
	assert.Equal(t, 1, v)
	v, _ = set.PropInt("a")
	assert.Equal(t, 2, v)

	written := s.Write("abc")
	assert.Equal(t, "", s.Text())
	assert.Equal(t, "bc", written.Skip(1).Text())
	assert.Equal(t, "", written.Skip(10).Text())
}

func TestPushDoesNotShareBackingArray(t *testing.T) {
	s := New(nil, nil).Push(model.NewText("a"), model.NewText("b"))
	first := s.Shift()
	left := first.Push(model.NewText("left"))
	right := first.Push(model.NewText("right"))
	assert.Equal(t, "left", left.Nodes()[1].Text())
	assert.Equal(t, "right", right.Nodes()[1].Text())
}

func TestSame(t *testing.T) {
	s := New(nil, nil).Push(model.NewText("a"))
	assert.True(t, Same(s, s))
	assert.True(t, Same(s, s.Use(s.Mode())))
	assert.False(t, Same(s, s.Shift().Unshift(s.Peek())))
	assert.False(t, Same(s, s.SetProp("k", true)))
	assert.False(t, Same(s, s.Write("x")))
	assert.False(t, Same(s, s.PushMark(model.NewMark(model.MarkBold))))
}

func TestDownUpThreadsProps(t *testing.T) {
	s := New(nil, nil).Use(ModeBlock).Push(model.NewText("outer")).Write("rest")

	inner := s.Down(nil, "inner").Use(ModeInline).SetProp("lastAnchorId", "top")
	assert.Equal(t, 1, inner.Depth())
	assert.Equal(t, 0, inner.Len())
	assert.Equal(t, "inner", inner.Text())

	back := inner.Up()
	assert.Equal(t, 0, back.Depth())
	assert.Equal(t, ModeBlock, back.Mode())
	assert.Equal(t, "rest", back.Text())
	require.Equal(t, 1, back.Len())
	assert.Equal(t, "outer", back.Peek().Text())
	assert.Equal(t, "top", back.PropString("lastAnchorId"))
	assert.Equal(t, "", s.PropString("lastAnchorId"))
}

func TestUpWithoutDownRaises(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		New(nil, nil).Up()
	}()
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestRecoverPropagatesForeignPanics(t *testing.T) {
	assert.Panics(t, func() {
		var err error
		defer Recover(&err)
		panic("boom")
	})
}

func TestGenTextInBlockMode(t *testing.T) {
	s := New(nil, nil).PushMark(model.NewMark(model.MarkItalic))
	text := s.Use(ModeInline).GenText("a")
	assert.Equal(t, model.KindText, text.Kind)
	assert.True(t, text.Leaves[0].HasMark(model.MarkItalic))

	block := s.Use(ModeBlock).GenText("a")
	assert.Equal(t, model.BlockUnstyled, block.Type)
}

// ============================================================================
// Rule Tests
// ============================================================================

func TestRuleCombinatorsDoNotModifyReceiver(t *testing.T) {
	base := Serializer().MatchObject(model.KindText)
	extended := base.Filter(func(State) bool { return false })
	assert.Equal(t, []Op{OpMatchObject}, base.Steps())
	assert.Equal(t, []Op{OpMatchObject, OpFilter}, extended.Steps())

	s := New(nil, nil).Push(model.NewText("a"))
	assert.True(t, base.Matches(s))
	assert.False(t, extended.Matches(s))
}

func TestUseFirstAlternativeWins(t *testing.T) {
	var calls []string
	alt := func(name string, ok bool) Rule {
		return Deserializer().Then(func(s State) (State, bool) {
			calls = append(calls, name)
			return s.Write(name), ok
		})
	}
	rule := Deserializer().Use(alt("a", false), alt("b", true), alt("c", true))

	next, ok := rule.Apply(New(nil, nil))
	require.True(t, ok)
	assert.Equal(t, "b", next.Text())
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestFilterNotAndTap(t *testing.T) {
	tapped := 0
	rule := Serializer().
		FilterNot(func(s State) bool { return s.Len() == 0 }).
		Tap(func(State) { tapped++ }).
		Then(func(s State) (State, bool) { return s.Shift(), true })

	_, ok := rule.Apply(New(nil, nil))
	assert.False(t, ok)
	_, ok = rule.Apply(New(nil, nil).Push(model.NewText("a")))
	assert.True(t, ok)
	assert.Equal(t, 1, tapped)
}

func TestMatchTypeAndMark(t *testing.T) {
	bold := model.NewText("a", model.NewMark(model.MarkBold))
	s := New(nil, nil).Push(bold)

	assert.True(t, Serializer().MatchMark(model.MarkBold).Matches(s))
	assert.False(t, Serializer().MatchMark(model.MarkItalic).Matches(s))
	assert.False(t, Serializer().MatchType(model.BlockParagraph).Matches(s))
	assert.False(t, Serializer().MatchType(model.BlockParagraph).Matches(New(nil, nil)))
	assert.True(t, Serializer().MatchTypeFunc(model.IsCustomType).Matches(
		New(nil, nil).Push(model.NewBlock("x-hint"))))
}

func TestTransformMarkedLeaf(t *testing.T) {
	text := model.NewTextFromLeaves(
		model.Leaf{Text: "a", Marks: model.NewMarks(model.NewMark(model.MarkBold))},
		model.Leaf{Text: "b"},
	)
	rule := Serializer().TransformMarkedLeaf(model.MarkBold, func(_ State, s string, _ model.Mark) string {
		return "**" + s + "**"
	})

	next, ok := rule.Apply(New(nil, nil).Push(text))
	require.True(t, ok)
	assert.Equal(t, "**a**b", next.Peek().Text())
	assert.False(t, next.Peek().Leaves[0].HasMark(model.MarkBold))

	_, ok = rule.Apply(next)
	assert.False(t, ok)
}

func TestTransformTextRunsOnce(t *testing.T) {
	upper := Serializer().TransformText(func(_ State, l model.Leaf) model.Leaf {
		l.Text = strings.ToUpper(l.Text)
		return l
	})
	other := Serializer().TransformText(func(_ State, l model.Leaf) model.Leaf {
		l.Text += "!"
		return l
	})

	s := New(nil, nil).Push(model.NewText("abc"))
	once, ok := upper.Apply(s)
	require.True(t, ok)
	assert.Equal(t, "ABC", once.Peek().Text())

	_, ok = upper.Apply(once)
	assert.False(t, ok, "a text pass must not apply to its own output")

	twice, ok := other.Apply(once)
	require.True(t, ok)
	assert.Equal(t, "ABC!", twice.Peek().Text())

	_, ok = upper.Apply(New(nil, nil).Push(model.NewText("")))
	assert.False(t, ok, "empty texts are skipped")
}

func TestMatchScan(t *testing.T) {
	scan := func(text string) (int, []string, bool) {
		if strings.HasPrefix(text, "::") {
			return 2, []string{"colons"}, true
		}
		return 0, nil, false
	}
	rule := Deserializer().MatchScan(scan, func(s State, m []string) (State, bool) {
		return s.PushText(m[0] + "/" + m[1]), true
	})

	next, ok := rule.Apply(New(nil, nil).Use(ModeInline).Down(nil, "::rest"))
	require.True(t, ok)
	assert.Equal(t, "rest", next.Text())
	assert.Equal(t, "::/colons", next.Peek().Text())

	_, ok = rule.Apply(New(nil, nil).Down(nil, "x::"))
	assert.False(t, ok)
}

func TestMatchRegexpIsAnchored(t *testing.T) {
	rule := Deserializer().MatchRegexp(func(s State, m []string) (State, bool) {
		return s.PushText(m[0]), true
	}, regexp.MustCompile(`\d+`))

	_, ok := rule.Apply(New(nil, nil).Down(nil, "ab12"))
	assert.False(t, ok)
	next, ok := rule.Apply(New(nil, nil).Down(nil, "12ab"))
	require.True(t, ok)
	assert.Equal(t, "ab", next.Text())
}

// ============================================================================
// Driver Tests
// ============================================================================

func TestLexCoalescesUnmatchedText(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "markit.engine")
	defer teardown()

	s := New(testGrammar(), nil).Use(ModeInline)
	nodes, err := s.DeserializeNodes("ab 12 cd")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "ab", nodes[0].Text())
	assert.Equal(t, "12", nodes[1].Data.String("value"))
	assert.Equal(t, "cd", nodes[2].Text())

	kept := s.Down(nil, "ab 12 cd").LexWith(LexOptions{KeepSpace: true}).Nodes()
	require.Len(t, kept, 3)
	assert.Equal(t, "ab ", kept[0].Text())
	assert.Equal(t, " cd", kept[2].Text())
}

func TestLexHandlesMultiByteRunes(t *testing.T) {
	s := New(testGrammar(), nil).Use(ModeInline)
	nodes, err := s.DeserializeNodes("héllo wörld")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "héllo wörld", nodes[0].Text())
}

func TestLexStopAt(t *testing.T) {
	s := New(testGrammar(), nil).Use(ModeInline).Down(nil, "ab 12 cd 34")
	stopped := s.LexWith(LexOptions{
		StopAt: func(next, prev State) (State, bool) {
			nodes := next.Nodes()
			if len(nodes) > prev.Len() && nodes[len(nodes)-1].Type == "number" {
				return next, true
			}
			return State{}, false
		},
	})
	assert.Equal(t, " cd 34", stopped.Text())
	require.Equal(t, 2, stopped.Len())
	assert.Equal(t, "12", stopped.Nodes()[1].Data.String("value"))
}

func TestDocumentRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "markit.engine")
	defer teardown()

	s := New(testGrammar(), nil)
	doc, err := s.DeserializeDocument("one 1\ntwo 2\n")
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, model.BlockUnstyled, doc.Nodes[0].Type)

	text, err := s.SerializeDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "one#1\ntwo#2\n", text)
}

func TestEmptyDocumentHoldsOneParagraph(t *testing.T) {
	doc, err := New(testGrammar(), nil).DeserializeDocument("")
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, model.BlockParagraph, doc.Nodes[0].Type)
}

func TestFinishHook(t *testing.T) {
	base := testGrammar()
	g := base.Clone()
	g.SetFinish(ModeInline, func(_ State, nodes []model.Node) []model.Node {
		return append(nodes, model.NewText("!"))
	})
	nodes, err := New(g, nil).Use(ModeInline).DeserializeNodes("a")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "!", nodes[1].Text())

	nodes, err = New(base, nil).Use(ModeInline).DeserializeNodes("a")
	require.NoError(t, err)
	assert.Len(t, nodes, 1, "clones are independent")
}

// ============================================================================
// Loop Guard Tests
// ============================================================================

func TestNoOpDeserializeRuleRaises(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "markit.engine")
	defer teardown()

	g := testGrammar().Clone()
	g.Insert(ModeInline, Entry{Name: "noop", Deserialize: Deserializer()})

	_, err := New(g, nil).Use(ModeInline).DeserializeNodes("abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoOp))

	var invariant *InvariantError
	require.True(t, errors.As(err, &invariant))
	assert.Equal(t, "noop", invariant.Rule)
	assert.Equal(t, PhaseDeserialize, invariant.Phase)
	assert.Equal(t, ModeInline, invariant.Mode)
}

func TestNoOpSerializeRuleRaises(t *testing.T) {
	g := testGrammar().Clone()
	g.Insert(ModeInline, Entry{Name: "peek-only", Serialize: Serializer().MatchObject(model.KindText)})

	_, err := New(g, nil).Use(ModeInline).SerializeNode(model.NewText("a"))
	assert.ErrorIs(t, err, ErrNoOp)
	assert.Contains(t, err.Error(), "peek-only")
}

func TestMissingSerializeRuleRaises(t *testing.T) {
	_, err := New(testGrammar(), nil).Use(ModeInline).SerializeNode(model.NewVoidInline(model.InlineImage, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRule)

	var invariant *InvariantError
	require.True(t, errors.As(err, &invariant))
	assert.Equal(t, PhaseSerialize, invariant.Phase)
	assert.Contains(t, invariant.Node, model.InlineImage)
}
