// Package dom holds the node tree operations the render engine needs on top of
// golang.org/x/net/html: fragment parsing, deep cloning, the canonical walk and
// sibling range surgery.
package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewFragment returns a detached node used as a document fragment.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// NewText creates a detached text node.
func NewText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// NewMarker creates an empty text node used as a range boundary.
func NewMarker() *html.Node {
	return NewText("")
}

// NewElement creates a detached element, e.g. a container for rendering.
func NewElement(tag string) *html.Node {
	a := atom.Lookup([]byte(tag))
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: a}
}

// IsFragment reports whether n is a fragment whose children should be moved
// rather than n itself.
func IsFragment(n *html.Node) bool {
	return n != nil && n.Type == html.DocumentNode
}

// ParseFragment parses markup as the content of a <template> element so that
// context sensitive tags (tr, td, option...) keep their structure.
func ParseFragment(markup string) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "template", DataAtom: atom.Template}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	frag := NewFragment()
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		frag.AppendChild(n)
	}
	return frag, nil
}

// Clone deep-copies n and its descendants. The copy is detached.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Walk visits element and text nodes below root in document order, skipping
// root itself. index counts only visited nodes. Returning false stops the walk.
func Walk(root *html.Node, fn func(index int, n *html.Node) bool) {
	index := 0
	var visit func(n *html.Node) bool
	visit = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode || c.Type == html.TextNode {
				if !fn(index, c) {
					return false
				}
				index++
			}
			if !visit(c) {
				return false
			}
		}
		return true
	}
	visit(root)
}

// Collect returns the nodes Walk would visit, in order.
func Collect(root *html.Node) []*html.Node {
	var nodes []*html.Node
	Walk(root, func(_ int, n *html.Node) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// InsertAfter inserts the detached node n right after ref.
func InsertAfter(ref, n *html.Node) {
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// InsertBefore inserts n before ref in ref's parent. A fragment has its
// children moved instead.
func InsertBefore(ref, n *html.Node) {
	parent := ref.Parent
	if !IsFragment(n) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		parent.InsertBefore(n, ref)
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, ref)
		c = next
	}
}

// AppendChildren moves every child of frag to the end of parent.
func AppendChildren(parent, frag *html.Node) {
	for c := frag.FirstChild; c != nil; {
		next := c.NextSibling
		frag.RemoveChild(c)
		parent.AppendChild(c)
		c = next
	}
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// ReplaceWith swaps old for the given nodes, in order.
func ReplaceWith(old *html.Node, nodes ...*html.Node) {
	parent := old.Parent
	for _, n := range nodes {
		parent.InsertBefore(n, old)
	}
	parent.RemoveChild(old)
}

// Range is a sibling range delimited by two boundary nodes. The boundaries
// are not part of the owned content.
type Range struct {
	Start *html.Node
	End   *html.Node
}

// Empty reports whether nothing sits between the boundaries.
func (r Range) Empty() bool {
	return r.Start.NextSibling == r.End
}

// Nodes returns the nodes strictly between the boundaries.
func (r Range) Nodes() []*html.Node {
	var nodes []*html.Node
	for n := r.Start.NextSibling; n != nil && n != r.End; n = n.NextSibling {
		nodes = append(nodes, n)
	}
	return nodes
}

// Clear removes the content strictly between the boundaries.
func (r Range) Clear() {
	r.ClearAfter(r.Start)
}

// ClearAfter removes the nodes after from up to (not including) End. from must
// be Start or a node inside the range.
func (r Range) ClearAfter(from *html.Node) {
	parent := from.Parent
	for n := from.NextSibling; n != nil && n != r.End; {
		next := n.NextSibling
		parent.RemoveChild(n)
		n = next
	}
}

// Insert places n (or a fragment's children) at the end of the range.
func (r Range) Insert(n *html.Node) {
	InsertBefore(r.End, n)
}

// Extract detaches the inclusive sibling run [first, last] into a fragment.
func Extract(first, last *html.Node) *html.Node {
	frag := NewFragment()
	parent := first.Parent
	for n := first; n != nil; {
		next := n.NextSibling
		parent.RemoveChild(n)
		frag.AppendChild(n)
		if n == last {
			break
		}
		n = next
	}
	return frag
}

// MoveAfter relocates the inclusive sibling run [first, last] so that it
// directly follows ref.
func MoveAfter(first, last, ref *html.Node) {
	if ref.NextSibling == first {
		return
	}
	parent := ref.Parent
	next := ref.NextSibling
	frag := Extract(first, last)
	for c := frag.FirstChild; c != nil; {
		n := c.NextSibling
		frag.RemoveChild(c)
		parent.InsertBefore(c, next)
		c = n
	}
}

// RemoveInclusive detaches the sibling run [first, last] and drops it. The
// removed nodes are left without a parent.
func RemoveInclusive(first, last *html.Node) {
	parent := first.Parent
	for n := first; n != nil; {
		next := n.NextSibling
		parent.RemoveChild(n)
		if n == last {
			return
		}
		n = next
	}
}

// Attr returns the value of the attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or adds the attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key && a.Namespace == "" {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes the attribute at index i of n.
func RemoveAttr(n *html.Node, i int) {
	n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
}

// TextContent concatenates the text of every text node below n.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
			visit(c)
		}
	}
	visit(n)
	return b.String()
}
