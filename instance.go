package livebind

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/livefir/livebind/internal/dom"
)

// PartFactory turns a TemplatePart into a live Part bound to node, the node
// found at the part's position in the cloned content.
type PartFactory func(instance *TemplateInstance, tp TemplatePart, node *html.Node) (Part, error)

// DefaultPartFactory creates an AttributePart for attribute slots and a
// NodePart for node slots.
func DefaultPartFactory(instance *TemplateInstance, tp TemplatePart, node *html.Node) (Part, error) {
	switch tp.Kind {
	case PartAttribute:
		return NewAttributePart(instance, node, tp), nil
	case PartNode:
		return NewNodePart(instance, node, node.NextSibling), nil
	default:
		return nil, newUnknownPartKindError(tp.Kind)
	}
}

// TemplateInstance is a live, cloned realisation of a Template.
type TemplateInstance struct {
	template *Template
	config   *Config
	parts    []Part
}

func newTemplateInstance(t *Template, config *Config) *TemplateInstance {
	config.Metrics.IncrementInstanceCreated()
	return &TemplateInstance{template: t, config: config}
}

// NewTemplateInstance creates an instance of t that uses the given options.
func NewTemplateInstance(t *Template, opts ...Option) *TemplateInstance {
	return newTemplateInstance(t, newConfig(opts))
}

// Template returns the template the instance was built from.
func (i *TemplateInstance) Template() *Template {
	return i.template
}

// Parts returns the live parts in template order.
func (i *TemplateInstance) Parts() []Part {
	return i.parts
}

// Config returns the configuration parts of this instance use.
func (i *TemplateInstance) Config() *Config {
	return i.config
}

// Clone copies the template content and creates one part per template part,
// in a single walk over the copy. The returned fragment is detached.
func (i *TemplateInstance) Clone() (*html.Node, error) {
	fragment := dom.Clone(i.template.content)
	parts := i.template.parts
	i.parts = make([]Part, 0, len(parts))

	next := 0
	var err error
	dom.Walk(fragment, func(index int, n *html.Node) bool {
		for next < len(parts) && parts[next].Index == index {
			var part Part
			part, err = i.config.PartFactory(i, parts[next], n)
			if err != nil {
				return false
			}
			if part == nil {
				err = newNilPartError(parts[next].Kind)
				return false
			}
			i.parts = append(i.parts, part)
			next++
		}
		return next < len(parts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create part %d: %w", next, err)
	}
	return fragment, nil
}

// Update pushes values into the parts positionally. Each part consumes as
// many values as its Size.
func (i *TemplateInstance) Update(values []any) error {
	expected := 0
	for _, p := range i.parts {
		expected += p.Size()
	}
	if len(values) != expected {
		return newValueCountError(expected, len(values))
	}

	offset := 0
	for _, p := range i.parts {
		size := p.Size()
		if err := p.SetValues(values[offset : offset+size]); err != nil {
			return err
		}
		offset += size
	}
	return nil
}
