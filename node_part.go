package livebind

import (
	"fmt"
	"iter"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/livefir/livebind/internal/dom"
)

// NodePart binds the sibling range between two boundary nodes. Everything
// strictly between start and end belongs to the part.
type NodePart struct {
	instance *TemplateInstance
	config   *Config
	start    *html.Node
	end      *html.Node

	// value is the last applied value: a primitive, *TemplateInstance,
	// []*NodePart, *html.Node, *Future or *repeatState.
	value any

	repeat *repeatState
}

// NewNodePart binds the range (start, end) for instance. Both nodes must be
// siblings, start before end.
func NewNodePart(instance *TemplateInstance, start, end *html.Node) *NodePart {
	return &NodePart{
		instance: instance,
		config:   instance.config,
		start:    start,
		end:      end,
	}
}

func (p *NodePart) child(start, end *html.Node) *NodePart {
	return &NodePart{instance: p.instance, config: p.config, start: start, end: end}
}

// StartNode returns the leading boundary.
func (p *NodePart) StartNode() *html.Node {
	return p.start
}

// EndNode returns the trailing boundary.
func (p *NodePart) EndNode() *html.Node {
	return p.end
}

// Size is always 1.
func (p *NodePart) Size() int {
	return 1
}

// SetValues applies values[0].
func (p *NodePart) SetValues(values []any) error {
	return p.SetValue(values[0])
}

func (p *NodePart) bounds() dom.Range {
	return dom.Range{Start: p.start, End: p.end}
}

// SetValue renders value into the part's range.
func (p *NodePart) SetValue(value any) error {
	value, err := resolveDirectives(p, value)
	if err != nil {
		return err
	}
	if value == NoChange {
		return nil
	}

	if isPrimitive(value) {
		if value == p.value {
			return nil
		}
		p.setText(primitiveText(value))
		p.value = value
		return nil
	}

	switch v := value.(type) {
	case *TemplateResult:
		if v == nil {
			return p.SetValue(nil)
		}
		return p.setTemplateResult(v)
	case *html.Node:
		if v == nil {
			return p.SetValue(nil)
		}
		p.setNode(v)
		return nil
	case *Future:
		if v == nil {
			return p.SetValue(nil)
		}
		p.setFuture(v)
		return nil
	case fmt.Stringer:
		return p.SetValue(v.String())
	}

	if items, ok := iterate(value); ok {
		return p.setIterable(items)
	}
	return p.SetValue(fmt.Sprint(value))
}

// setText updates the single text child in place when the previous value was
// rendered as text, otherwise replaces the range content.
func (p *NodePart) setText(text string) {
	first := p.start.NextSibling
	if isPrimitive(p.value) && first != p.end && first.Type == html.TextNode && first.NextSibling == p.end {
		first.Data = text
		return
	}
	p.Clear()
	p.bounds().Insert(dom.NewText(text))
}

func (p *NodePart) setTemplateResult(result *TemplateResult) error {
	t, err := result.literal.build(p.config.Metrics)
	if err != nil {
		return err
	}

	if instance, ok := p.value.(*TemplateInstance); ok && instance.template == t {
		return instance.Update(result.Values)
	}

	instance := newTemplateInstance(t, p.config)
	fragment, err := instance.Clone()
	if err != nil {
		return err
	}
	if err := instance.Update(result.Values); err != nil {
		return err
	}
	p.setNode(fragment)
	p.value = instance
	return nil
}

func (p *NodePart) setNode(n *html.Node) {
	if p.value == n {
		return
	}
	p.Clear()
	p.bounds().Insert(n)
	p.value = n
}

func (p *NodePart) setFuture(f *Future) {
	if p.value == f {
		return
	}
	p.value = f
	f.then(p.config.Scheduler, func(v any, err error) {
		m := p.config.Metrics
		if p.value != f {
			m.IncrementFutureDiscarded()
			return
		}
		if err != nil {
			m.IncrementFutureRejected()
			p.config.Logger.Error("unhandled future rejection", zap.Error(err))
			return
		}
		m.IncrementFutureApplied()
		if err := p.SetValue(v); err != nil {
			p.config.Logger.Error("failed to render resolved future", zap.Error(err))
		}
	})
}

// setIterable renders items positionally: item i always goes to the i-th item
// part of the previous render. Each item part has its own boundary markers so
// nested lists never share a boundary with their parent.
func (p *NodePart) setIterable(items iter.Seq[any]) error {
	itemParts, ok := p.value.([]*NodePart)
	if !ok {
		p.Clear()
		itemParts = nil
	}

	count := 0
	for item := range items {
		if count == len(itemParts) {
			start, end := dom.NewMarker(), dom.NewMarker()
			r := p.bounds()
			r.Insert(start)
			r.Insert(end)
			itemParts = append(itemParts, p.child(start, end))
		}
		if err := itemParts[count].SetValue(item); err != nil {
			p.value = itemParts
			return err
		}
		count++
	}

	if count < len(itemParts) {
		dom.RemoveInclusive(itemParts[count].start, itemParts[len(itemParts)-1].end)
		itemParts = itemParts[:count]
	}
	p.value = itemParts
	return nil
}

// Clear removes the part's content and forgets any list state bound to it.
func (p *NodePart) Clear() {
	p.bounds().Clear()
	p.repeat = nil
	p.value = nil
}
