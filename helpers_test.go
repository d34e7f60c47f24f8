package livebind

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func newTestContainer(t *testing.T) *html.Node {
	t.Helper()
	c := NewContainer("div")
	t.Cleanup(func() { Unmount(c) })
	return c
}

func renderedHTML(t *testing.T, c *html.Node) string {
	t.Helper()
	s, err := RenderHTML(c)
	require.NoError(t, err)
	return s
}

// elements returns the descendants of root with the given tag, in order.
func elements(root *html.Node, tag string) []*html.Node {
	var found []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				found = append(found, c)
			}
			visit(c)
		}
	}
	visit(root)
	return found
}

func texts(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = TextContent(n)
	}
	return out
}

func mountedNodePart(t *testing.T, c *html.Node, i int) *NodePart {
	t.Helper()
	instance := Mounted(c)
	require.NotNil(t, instance)
	p, ok := instance.Parts()[i].(*NodePart)
	require.True(t, ok)
	return p
}
