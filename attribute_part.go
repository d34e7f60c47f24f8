package livebind

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/livefir/livebind/internal/dom"
)

// AttributePart binds the interpolations of one attribute. The whole
// attribute value is rebuilt and set once per update.
type AttributePart struct {
	instance *TemplateInstance
	element  *html.Node
	name     string
	rawName  string
	strings  []string

	// last holds the string each interpolation rendered to, for NoChange.
	last []string
}

// NewAttributePart binds the attribute described by tp on element.
func NewAttributePart(instance *TemplateInstance, element *html.Node, tp TemplatePart) *AttributePart {
	return &AttributePart{
		instance: instance,
		element:  element,
		name:     tp.Name,
		rawName:  tp.RawName,
		strings:  tp.Strings,
		last:     make([]string, len(tp.Strings)-1),
	}
}

// Element returns the bound element.
func (p *AttributePart) Element() *html.Node {
	return p.element
}

// Name returns the attribute name as normalised by the parser.
func (p *AttributePart) Name() string {
	return p.name
}

// RawName returns the attribute name as written in the literal.
func (p *AttributePart) RawName() string {
	return p.rawName
}

// Size is the number of interpolations in the attribute.
func (p *AttributePart) Size() int {
	return len(p.strings) - 1
}

// SetValues interleaves the literal fragments with values and sets the
// attribute.
func (p *AttributePart) SetValues(values []any) error {
	var b strings.Builder
	for i, s := range p.strings {
		b.WriteString(s)
		if i == len(p.strings)-1 {
			break
		}

		v, err := resolveDirectives(p, values[i])
		if err != nil {
			return fmt.Errorf("attribute %s: %w", p.name, err)
		}
		if v != NoChange {
			p.last[i] = attributeText(v)
		}
		b.WriteString(p.last[i])
	}
	dom.SetAttr(p.element, p.name, b.String())
	return nil
}

// attributeText stringifies an interpolated value. Iterables are flattened one
// level: nested iterables print as fmt would print them.
func attributeText(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if _, ok := v.(fmt.Stringer); !ok {
		if items, ok := iterate(v); ok {
			var b strings.Builder
			for item := range items {
				if item != nil {
					fmt.Fprint(&b, item)
				}
			}
			return b.String()
		}
	}
	return fmt.Sprint(v)
}
