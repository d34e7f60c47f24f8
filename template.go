package livebind

import (
	"regexp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/livefir/livebind/internal/dom"
	"github.com/livefir/livebind/internal/metrics"
)

// PartKind says what a TemplatePart binds to.
type PartKind string

const (
	// PartAttribute binds one or more interpolations inside an attribute value.
	PartAttribute PartKind = "attribute"
	// PartNode binds a range of child nodes.
	PartNode PartKind = "node"
)

// TemplatePart describes one dynamic slot of a Template.
type TemplatePart struct {
	Kind PartKind
	// Index is the position of the bound node in the canonical walk of the
	// template content (element and text nodes, document order).
	Index int
	// Name is the attribute name as normalised by the HTML parser.
	Name string
	// RawName is the attribute name as written in the literal.
	RawName string
	// Strings are the literal fragments around the interpolations of an
	// attribute binding.
	Strings []string
}

// Size reports how many values the part consumes per update.
func (tp TemplatePart) Size() int {
	if tp.Kind == PartAttribute {
		return len(tp.Strings) - 1
	}
	return 1
}

// Template is the parsed, immutable form of a literal: a detached skeleton and
// the ordered list of its dynamic slots.
type Template struct {
	strings []string
	content *html.Node
	parts   []TemplatePart
}

// lastAttributeNameRegex matches an attribute name followed by = and an
// unterminated value at the end of a literal string.
var lastAttributeNameRegex = regexp.MustCompile(
	"[ \\t\\n\\f\\r]([^\\x00-\\x1F\\x7F-\\x9F \\t\\n\\f\\r\"'>=/]+)[ \\t\\n\\f\\r]*=[ \\t\\n\\f\\r]*" +
		"(?:[^ \\t\\n\\f\\r\"'`<>=]*|\"[^\"]*|'[^']*)$")

// BuildTemplate parses the static strings of a literal, joined by the binding
// marker, into a Template.
func BuildTemplate(strs []string) (*Template, error) {
	if len(strs) == 0 {
		return nil, newEmptyLiteralError()
	}

	content, err := dom.ParseFragment(strings.Join(strs, marker))
	if err != nil {
		return nil, NewParseError(err)
	}

	type boundNode struct {
		node *html.Node
		part TemplatePart
	}
	var bound []boundNode
	markerIndex := 0

	for _, n := range dom.Collect(content) {
		switch n.Type {
		case html.ElementNode:
			for i := 0; i < len(n.Attr); {
				a := n.Attr[i]
				if strings.Contains(a.Key, marker) {
					return nil, newMarkerInNameError(a.Key)
				}
				if !strings.Contains(a.Val, marker) {
					i++
					continue
				}
				if markerIndex >= len(strs)-1 {
					return nil, newMarkerCountError(len(strs)-1, markerIndex+1)
				}

				rawName, ok := attributeNameBefore(strs[markerIndex])
				if !ok {
					return nil, newAttributeNameError(a.Key, markerIndex)
				}

				fragments := strings.Split(a.Val, marker)
				bound = append(bound, boundNode{node: n, part: TemplatePart{
					Kind:    PartAttribute,
					Name:    a.Key,
					RawName: rawName,
					Strings: fragments,
				}})
				markerIndex += len(fragments) - 1
				dom.RemoveAttr(n, i)
			}

		case html.TextNode:
			if !strings.Contains(n.Data, marker) {
				if strings.TrimSpace(n.Data) == "" && !preservesWhitespace(n.Parent) {
					n.Parent.RemoveChild(n)
				}
				continue
			}

			literals := strings.Split(n.Data, marker)
			nodes := make([]*html.Node, 0, 2*len(literals)-1)
			for i, literal := range literals {
				if i > 0 {
					start := dom.NewMarker()
					nodes = append(nodes, start)
					bound = append(bound, boundNode{node: start, part: TemplatePart{Kind: PartNode}})
				}
				nodes = append(nodes, dom.NewText(literal))
			}
			dom.ReplaceWith(n, nodes...)
			markerIndex += len(literals) - 1
		}
	}

	if markerIndex != len(strs)-1 {
		return nil, newMarkerCountError(len(strs)-1, markerIndex)
	}

	// Positions come from the final skeleton so pruned and split text nodes
	// are already accounted for.
	positions := make(map[*html.Node]int)
	dom.Walk(content, func(index int, n *html.Node) bool {
		positions[n] = index
		return true
	})

	t := &Template{
		strings: slices.Clone(strs),
		content: content,
		parts:   make([]TemplatePart, 0, len(bound)),
	}
	for _, b := range bound {
		b.part.Index = positions[b.node]
		t.parts = append(t.parts, b.part)
	}
	return t, nil
}

// attributeNameBefore extracts the attribute name a binding belongs to from
// the literal text preceding it.
func attributeNameBefore(s string) (string, bool) {
	m := lastAttributeNameRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func preservesWhitespace(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Pre, atom.Textarea, atom.Script, atom.Style, atom.Listing:
		return true
	}
	return false
}

// Parts returns the template's dynamic slots in canonical order.
func (t *Template) Parts() []TemplatePart {
	return slices.Clone(t.parts)
}

// Strings returns the literal strings the template was built from.
func (t *Template) Strings() []string {
	return slices.Clone(t.strings)
}

// ValueCount is the number of values an update must supply.
func (t *Template) ValueCount() int {
	n := 0
	for _, p := range t.parts {
		n += p.Size()
	}
	return n
}

// Content returns a detached copy of the skeleton.
func (t *Template) Content() *html.Node {
	return dom.Clone(t.content)
}

// Literal is a template call site: the static strings of a markup literal,
// declared once and reused. Its Template is parsed on first use and cached on
// the literal's identity, not on its contents.
//
//	var itemLit = livebind.Lit("<li>", "</li>")
//	result := livebind.HTML(itemLit, name)
type Literal struct {
	strings  []string
	once     sync.Once
	template *Template
	err      error
}

// Lit declares a literal. strings are the markup pieces between values, so a
// literal with n values has n+1 strings.
func Lit(strings ...string) *Literal {
	return &Literal{strings: slices.Clone(strings)}
}

// Template returns the parsed template, building it on first call.
func (l *Literal) Template() (*Template, error) {
	return l.build(nil)
}

func (l *Literal) build(m *metrics.Collector) (*Template, error) {
	built := false
	l.once.Do(func() {
		l.template, l.err = BuildTemplate(l.strings)
		built = true
	})
	if built && l.err == nil {
		m.IncrementTemplateBuilt()
	}
	return l.template, l.err
}

// TemplateResult pairs a literal with the values of one evaluation.
type TemplateResult struct {
	literal *Literal
	Values  []any
}

// HTML evaluates a literal with values, the equivalent of a tagged template
// call.
func HTML(lit *Literal, values ...any) *TemplateResult {
	return &TemplateResult{literal: lit, Values: values}
}

// Literal returns the call site the result came from.
func (r *TemplateResult) Literal() *Literal {
	return r.literal
}

// Template returns the parsed template of the result's literal.
func (r *TemplateResult) Template() (*Template, error) {
	return r.literal.Template()
}
