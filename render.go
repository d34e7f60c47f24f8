package livebind

import (
	"fmt"
	"sync"

	"golang.org/x/net/html"

	"github.com/livefir/livebind/internal/dom"
)

// mounts records which instance occupies each container.
type mounts struct {
	mu        sync.Mutex
	instances map[*html.Node]*TemplateInstance
}

var mounted = &mounts{instances: make(map[*html.Node]*TemplateInstance)}

func (m *mounts) get(container *html.Node) *TemplateInstance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instances[container]
}

// set stores instance and reports whether the container was empty before.
func (m *mounts) set(container *html.Node, instance *TemplateInstance) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.instances[container]
	m.instances[container] = instance
	return !exists
}

func (m *mounts) remove(container *html.Node) *TemplateInstance {
	m.mu.Lock()
	defer m.mu.Unlock()
	instance := m.instances[container]
	delete(m.instances, container)
	return instance
}

// Render renders result into container. If the container already holds an
// instance of the same template built with the same part factory, that
// instance is updated in place. Otherwise a new instance is built and fully
// updated while detached, then swapped in for the container's children.
func Render(result *TemplateResult, container *html.Node, opts ...Option) error {
	config := newConfig(opts)

	t, err := result.literal.build(config.Metrics)
	if err != nil {
		return err
	}

	if instance := mounted.get(container); instance != nil &&
		instance.template == t && sameFactory(instance.config.PartFactory, config.PartFactory) {
		config.Metrics.IncrementRender(true)
		return instance.Update(result.Values)
	}

	instance := newTemplateInstance(t, config)
	fragment, err := instance.Clone()
	if err != nil {
		return fmt.Errorf("failed to instantiate template: %w", err)
	}
	if err := instance.Update(result.Values); err != nil {
		return err
	}

	dom.RemoveChildren(container)
	dom.AppendChildren(container, fragment)
	if mounted.set(container, instance) {
		config.Metrics.IncrementMount()
	}
	config.Metrics.IncrementRender(false)
	return nil
}

// Mounted returns the instance currently rendered into container, if any.
func Mounted(container *html.Node) *TemplateInstance {
	return mounted.get(container)
}

// Unmount forgets the instance rendered into container so both can be
// garbage collected. The container's children are left as they are.
func Unmount(container *html.Node) {
	if instance := mounted.remove(container); instance != nil {
		instance.config.Metrics.IncrementUnmount()
	}
}
