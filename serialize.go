package livebind

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/livefir/livebind/internal/dom"
)

// RenderHTML returns the markup currently inside container. Boundary markers
// are empty text nodes and do not appear in the output.
func RenderHTML(container *html.Node) (string, error) {
	s, err := dom.String(container)
	if err != nil {
		return "", fmt.Errorf("failed to serialize container: %w", err)
	}
	return s, nil
}

// RenderMinifiedHTML is RenderHTML with insignificant whitespace removed.
func RenderMinifiedHTML(container *html.Node) (string, error) {
	s, err := dom.MinifiedString(container)
	if err != nil {
		return "", fmt.Errorf("failed to minify container: %w", err)
	}
	return s, nil
}

// TextContent returns the concatenated text below n.
func TextContent(n *html.Node) string {
	return dom.TextContent(n)
}

// NewContainer creates a detached element to render into.
func NewContainer(tag string) *html.Node {
	return dom.NewElement(tag)
}
