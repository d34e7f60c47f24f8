package livebind

import (
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/livefir/livebind/internal/dom"
)

func TestCloneCreatesPartsInOrder(t *testing.T) {
	tmpl, err := BuildTemplate([]string{`<div id="`, `">`, `<span>`, `</span></div>`})
	require.NoError(t, err)

	instance := NewTemplateInstance(tmpl)
	fragment, err := instance.Clone()
	require.NoError(t, err)
	require.NotNil(t, fragment)

	parts := instance.Parts()
	require.Len(t, parts, 3)
	assert.IsType(t, &AttributePart{}, parts[0])
	assert.IsType(t, &NodePart{}, parts[1])
	assert.IsType(t, &NodePart{}, parts[2])

	// The attribute part is bound to the cloned div, not the skeleton's.
	attr := parts[0].(*AttributePart)
	assert.Same(t, fragment.FirstChild, attr.Element())
	assert.NotSame(t, tmpl.content.FirstChild, attr.Element())

	require.NoError(t, instance.Update([]any{"box", "a", "b"}))
	c := NewContainer("div")
	dom.AppendChildren(c, fragment)
	assert.Equal(t, `<div id="box">a<span>b</span></div>`, renderedHTML(t, c))
}

func TestCustomPartFactory(t *testing.T) {
	var seen []TemplatePart
	factory := func(instance *TemplateInstance, tp TemplatePart, node *html.Node) (Part, error) {
		seen = append(seen, tp)
		return DefaultPartFactory(instance, tp, node)
	}

	tmpl, err := BuildTemplate([]string{`<b title="`, `">`, `</b>`})
	require.NoError(t, err)

	instance := NewTemplateInstance(tmpl, WithPartFactory(factory))
	_, err = instance.Clone()
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, PartAttribute, seen[0].Kind)
	assert.Equal(t, PartNode, seen[1].Kind)
}

func TestPartFactoryUnknownKind(t *testing.T) {
	factory := func(instance *TemplateInstance, tp TemplatePart, node *html.Node) (Part, error) {
		tp.Kind = "comment"
		return DefaultPartFactory(instance, tp, node)
	}

	tmpl, err := BuildTemplate([]string{"<p>", "</p>"})
	require.NoError(t, err)

	_, err = NewTemplateInstance(tmpl, WithPartFactory(factory)).Clone()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPartKind))
	assert.Contains(t, err.Error(), "failed to create part 0")

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	kind, ok := customErr.GetMetadata(MetaKeyKind)
	assert.True(t, ok)
	assert.Equal(t, "comment", kind)
}

func TestPartFactoryNilPart(t *testing.T) {
	factory := func(*TemplateInstance, TemplatePart, *html.Node) (Part, error) {
		return nil, nil
	}

	tmpl, err := BuildTemplate([]string{"<p>", "</p>"})
	require.NoError(t, err)

	_, err = NewTemplateInstance(tmpl, WithPartFactory(factory)).Clone()
	assert.True(t, errors.Is(err, ErrNilPart))
}

func TestUpdateValueCount(t *testing.T) {
	tmpl, err := BuildTemplate([]string{"<p>", "</p>"})
	require.NoError(t, err)

	instance := NewTemplateInstance(tmpl)
	_, err = instance.Clone()
	require.NoError(t, err)

	err = instance.Update([]any{1, 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValueCount))

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	expected, _ := customErr.GetMetadata(MetaKeyExpected)
	got, _ := customErr.GetMetadata(MetaKeyGot)
	assert.Equal(t, "1", expected)
	assert.Equal(t, "2", got)
}

func TestInstanceWithoutParts(t *testing.T) {
	tmpl, err := BuildTemplate([]string{"<hr>"})
	require.NoError(t, err)

	instance := NewTemplateInstance(tmpl)
	fragment, err := instance.Clone()
	require.NoError(t, err)
	assert.Empty(t, instance.Parts())
	assert.NoError(t, instance.Update(nil))
	assert.Equal(t, "hr", fragment.FirstChild.Data)
	assert.Same(t, tmpl, instance.Template())
}
