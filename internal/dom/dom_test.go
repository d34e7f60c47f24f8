package dom

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, markup string) *html.Node {
	t.Helper()
	frag, err := ParseFragment(markup)
	require.NoError(t, err)
	return frag
}

func mustString(t *testing.T, n *html.Node) string {
	t.Helper()
	s, err := String(n)
	require.NoError(t, err)
	return s
}

func describe(n *html.Node) string {
	if n.Type == html.ElementNode {
		return "<" + n.Data + ">"
	}
	return n.Data
}

func TestParseFragment(t *testing.T) {
	frag := mustParse(t, "<p>a<b>c</b></p>d")
	assert.True(t, IsFragment(frag))
	assert.Equal(t, "<p>a<b>c</b></p>d", mustString(t, frag))

	for c := frag.FirstChild; c != nil; c = c.NextSibling {
		assert.Same(t, frag, c.Parent)
	}
}

func TestParseFragmentKeepsContextSensitiveTags(t *testing.T) {
	tests := []string{
		"<tr><td>1</td></tr>",
		"<option>a</option>",
		"<td>x</td>",
		"<li>one</li><li>two</li>",
	}

	for _, markup := range tests {
		t.Run(markup, func(t *testing.T) {
			assert.Equal(t, markup, mustString(t, mustParse(t, markup)))
		})
	}
}

func TestWalk(t *testing.T) {
	frag := mustParse(t, "<p>a<b>c</b><!-- skip --></p>d")

	var got []string
	var indexes []int
	Walk(frag, func(index int, n *html.Node) bool {
		got = append(got, describe(n))
		indexes = append(indexes, index)
		return true
	})

	if diff := cmp.Diff([]string{"<p>", "a", "<b>", "c", "d"}, got); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, indexes)
	assert.Len(t, Collect(frag), 5)
}

func TestWalkStops(t *testing.T) {
	frag := mustParse(t, "<i>1</i><i>2</i><i>3</i>")

	visited := 0
	Walk(frag, func(index int, n *html.Node) bool {
		visited++
		return index < 2
	})
	assert.Equal(t, 3, visited)
}

func TestClone(t *testing.T) {
	frag := mustParse(t, `<div class="x"><span>t</span></div>`)
	c := Clone(frag)

	assert.Equal(t, mustString(t, frag), mustString(t, c))
	assert.Nil(t, c.Parent)

	SetAttr(c.FirstChild, "class", "y")
	c.FirstChild.FirstChild.FirstChild.Data = "changed"
	assert.Equal(t, `<div class="x"><span>t</span></div>`, mustString(t, frag))
	assert.Equal(t, `<div class="y"><span>changed</span></div>`, mustString(t, c))
}

func TestInsertBeforeFragment(t *testing.T) {
	parent := NewElement("div")
	end := NewMarker()
	parent.AppendChild(end)

	InsertBefore(end, mustParse(t, "<i>1</i><i>2</i>"))
	InsertBefore(end, NewText("3"))
	assert.Equal(t, "<i>1</i><i>2</i>3", mustString(t, parent))
	assert.Same(t, end, parent.LastChild)
}

func TestInsertBeforeMovesAttachedNode(t *testing.T) {
	a, b := NewElement("div"), NewElement("div")
	n := NewText("x")
	a.AppendChild(n)
	ref := NewMarker()
	b.AppendChild(ref)

	InsertBefore(ref, n)
	assert.Nil(t, a.FirstChild)
	assert.Same(t, b, n.Parent)
}

func TestRange(t *testing.T) {
	parent := NewElement("div")
	start, end := NewMarker(), NewMarker()
	parent.AppendChild(NewText("before"))
	parent.AppendChild(start)
	parent.AppendChild(end)
	parent.AppendChild(NewText("after"))

	r := Range{Start: start, End: end}
	assert.True(t, r.Empty())

	r.Insert(NewText("a"))
	r.Insert(NewText("b"))
	r.Insert(NewText("c"))
	assert.False(t, r.Empty())
	assert.Equal(t, "abc", TextContent(parent)[len("before"):len("beforeabc")])
	assert.Len(t, r.Nodes(), 3)

	r.ClearAfter(r.Nodes()[0])
	assert.Equal(t, "beforeaafter", TextContent(parent))

	r.Clear()
	assert.True(t, r.Empty())
	assert.Equal(t, "beforeafter", TextContent(parent))
	assert.Same(t, start, parent.FirstChild.NextSibling)
}

func TestMoveAfter(t *testing.T) {
	parent := NewElement("ul")
	var nodes []*html.Node
	for _, s := range strings.Split("a b c d e", " ") {
		n := NewText(s)
		nodes = append(nodes, n)
		parent.AppendChild(n)
	}

	// Move [d, e] after a.
	MoveAfter(nodes[3], nodes[4], nodes[0])
	assert.Equal(t, "adebc", TextContent(parent))

	// Move [a] after the last node.
	MoveAfter(nodes[0], nodes[0], parent.LastChild)
	assert.Equal(t, "debca", TextContent(parent))
}

func TestRemoveInclusive(t *testing.T) {
	parent := NewElement("ul")
	var nodes []*html.Node
	for _, s := range []string{"a", "b", "c", "d"} {
		n := NewText(s)
		nodes = append(nodes, n)
		parent.AppendChild(n)
	}

	RemoveInclusive(nodes[1], nodes[2])
	assert.Equal(t, "ad", TextContent(parent))
	assert.Nil(t, nodes[1].Parent)
	assert.Nil(t, nodes[2].Parent)
	assert.Nil(t, nodes[1].NextSibling)
	assert.Same(t, nodes[3], nodes[0].NextSibling)

	RemoveInclusive(nodes[0], nodes[3])
	assert.Nil(t, parent.FirstChild)
	assert.Nil(t, nodes[3].Parent)
}

func TestExtract(t *testing.T) {
	parent := mustParse(t, "<i>1</i><i>2</i><i>3</i>")
	first := parent.FirstChild.NextSibling

	frag := Extract(first, first.NextSibling)
	assert.Equal(t, "<i>2</i><i>3</i>", mustString(t, frag))
	assert.Equal(t, "<i>1</i>", mustString(t, parent))
}

func TestReplaceWith(t *testing.T) {
	parent := mustParse(t, "<p>x</p>")
	old := parent.FirstChild.FirstChild

	ReplaceWith(old, NewText("a"), NewMarker(), NewText("b"))
	assert.Equal(t, "<p>ab</p>", mustString(t, parent))
	assert.Len(t, Collect(parent), 4)
}

func TestAttributes(t *testing.T) {
	n := NewElement("input")

	_, ok := Attr(n, "value")
	assert.False(t, ok)

	SetAttr(n, "value", "1")
	SetAttr(n, "type", "text")
	SetAttr(n, "value", "2")
	v, ok := Attr(n, "value")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Len(t, n.Attr, 2)

	RemoveAttr(n, 0)
	_, ok = Attr(n, "value")
	assert.False(t, ok)
	assert.Equal(t, `<input type="text"/>`, func() string {
		wrapper := NewElement("div")
		wrapper.AppendChild(n)
		return mustString(t, wrapper)
	}())
}

func TestAppendAndRemoveChildren(t *testing.T) {
	parent := NewElement("div")
	AppendChildren(parent, mustParse(t, "<i>1</i>text"))
	assert.Equal(t, "<i>1</i>text", mustString(t, parent))

	RemoveChildren(parent)
	assert.Nil(t, parent.FirstChild)
}

func TestMinifiedString(t *testing.T) {
	parent := NewElement("div")
	parent.AppendChild(NewText("  spaced   out  "))

	full := mustString(t, parent)
	small, err := MinifiedString(parent)
	require.NoError(t, err)
	assert.Less(t, len(small), len(full))
	assert.Contains(t, small, "spaced out")
}

func TestTextContent(t *testing.T) {
	assert.Equal(t, "abc", TextContent(mustParse(t, "<p>a<b>b</b></p>c")))
	assert.Equal(t, "raw", TextContent(NewText("raw")))
}

func TestMoveAfterInPlace(t *testing.T) {
	parent := NewElement("ul")
	a, b := NewText("a"), NewText("b")
	parent.AppendChild(a)
	parent.AppendChild(b)

	MoveAfter(b, b, a)
	assert.Equal(t, "ab", TextContent(parent))
}
