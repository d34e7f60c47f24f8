package dom

import (
	"io"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
)

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns a configured HTML minifier (singleton)
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &minhtml.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
	})
	return minifier
}

// Render writes the markup of n's children, i.e. its inner HTML. Empty marker
// text nodes render as nothing.
func Render(w io.Writer, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

// String returns the inner HTML of n.
func String(n *html.Node) (string, error) {
	var b strings.Builder
	if err := Render(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

// MinifiedString returns the inner HTML of n with insignificant whitespace
// removed.
func MinifiedString(n *html.Node) (string, error) {
	s, err := String(n)
	if err != nil {
		return "", err
	}
	return getMinifier().String("text/html", s)
}
