package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector provides simple built-in render metrics with no external dependencies.
// A nil *Collector is valid and records nothing.
type Collector struct {
	renderMetrics     *RenderMetrics
	operationCounters map[string]*int64
	mu                sync.RWMutex
	startTime         time.Time
}

// RenderMetrics tracks render engine activity
type RenderMetrics struct {
	// Template lifecycle
	TemplatesBuilt   int64 `json:"templates_built"`
	InstancesCreated int64 `json:"instances_created"`

	// Render entry point
	Renders         int64 `json:"renders"`
	FastPathRenders int64 `json:"fast_path_renders"`
	ActiveMounts    int64 `json:"active_mounts"`
	MaxMounts       int64 `json:"max_mounts"`

	// List reconciliation
	PartsCreated int64 `json:"parts_created"`
	PartsMoved   int64 `json:"parts_moved"`
	PartsRemoved int64 `json:"parts_removed"`
	ItemErrors   int64 `json:"item_errors"`

	// Async values
	FuturesApplied   int64 `json:"futures_applied"`
	FuturesDiscarded int64 `json:"futures_discarded"`
	FuturesRejected  int64 `json:"futures_rejected"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		renderMetrics: &RenderMetrics{
			StartTime: time.Now(),
		},
		operationCounters: make(map[string]*int64),
		startTime:         time.Now(),
	}
}

func (c *Collector) add(field *int64, delta int64) {
	atomic.AddInt64(field, delta)
}

// IncrementTemplateBuilt records a parsed template
func (c *Collector) IncrementTemplateBuilt() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.TemplatesBuilt, 1)
}

// IncrementInstanceCreated records a cloned template instance
func (c *Collector) IncrementInstanceCreated() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.InstancesCreated, 1)
}

// IncrementRender records a call to the render entry point. fastPath is true
// when the mounted instance was updated in place.
func (c *Collector) IncrementRender(fastPath bool) {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.Renders, 1)
	if fastPath {
		c.add(&c.renderMetrics.FastPathRenders, 1)
	}
}

// IncrementMount records a container gaining a mounted instance
func (c *Collector) IncrementMount() {
	if c == nil {
		return
	}
	currentActive := atomic.AddInt64(&c.renderMetrics.ActiveMounts, 1)

	// Update max concurrent if needed
	for {
		max := atomic.LoadInt64(&c.renderMetrics.MaxMounts)
		if currentActive <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.renderMetrics.MaxMounts, max, currentActive) {
			break
		}
	}
}

// IncrementUnmount records a container being released
func (c *Collector) IncrementUnmount() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.ActiveMounts, -1)
}

// IncrementPartCreated records a list item part created by reconciliation
func (c *Collector) IncrementPartCreated() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.PartsCreated, 1)
}

// IncrementPartMoved records a list item range relocated within its list
func (c *Collector) IncrementPartMoved() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.PartsMoved, 1)
}

// IncrementPartRemoved records a list item range removed from the tree
func (c *Collector) IncrementPartRemoved() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.PartsRemoved, 1)
}

// IncrementItemError records a list item skipped because it failed to evaluate
func (c *Collector) IncrementItemError() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.ItemErrors, 1)
}

// IncrementFutureApplied records a settled future whose value was rendered
func (c *Collector) IncrementFutureApplied() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.FuturesApplied, 1)
}

// IncrementFutureDiscarded records a settled future superseded by a newer value
func (c *Collector) IncrementFutureDiscarded() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.FuturesDiscarded, 1)
}

// IncrementFutureRejected records a future that settled with an error
func (c *Collector) IncrementFutureRejected() {
	if c == nil {
		return
	}
	c.add(&c.renderMetrics.FuturesRejected, 1)
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.operationCounters[name]; exists {
		atomic.AddInt64(counter, 1)
	} else {
		var newCounter int64 = 1
		c.operationCounters[name] = &newCounter
	}
}

// GetMetrics returns current render metrics
func (c *Collector) GetMetrics() RenderMetrics {
	if c == nil {
		return RenderMetrics{}
	}

	m := c.renderMetrics
	return RenderMetrics{
		TemplatesBuilt:   atomic.LoadInt64(&m.TemplatesBuilt),
		InstancesCreated: atomic.LoadInt64(&m.InstancesCreated),
		Renders:          atomic.LoadInt64(&m.Renders),
		FastPathRenders:  atomic.LoadInt64(&m.FastPathRenders),
		ActiveMounts:     atomic.LoadInt64(&m.ActiveMounts),
		MaxMounts:        atomic.LoadInt64(&m.MaxMounts),
		PartsCreated:     atomic.LoadInt64(&m.PartsCreated),
		PartsMoved:       atomic.LoadInt64(&m.PartsMoved),
		PartsRemoved:     atomic.LoadInt64(&m.PartsRemoved),
		ItemErrors:       atomic.LoadInt64(&m.ItemErrors),
		FuturesApplied:   atomic.LoadInt64(&m.FuturesApplied),
		FuturesDiscarded: atomic.LoadInt64(&m.FuturesDiscarded),
		FuturesRejected:  atomic.LoadInt64(&m.FuturesRejected),
		StartTime:        m.StartTime,
		Uptime:           time.Since(c.startTime),
	}
}

// GetCustomCounters returns all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	result := make(map[string]int64)
	if c == nil {
		return result
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, counter := range c.operationCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.renderMetrics
	for _, field := range []*int64{
		&m.TemplatesBuilt, &m.InstancesCreated,
		&m.Renders, &m.FastPathRenders, &m.ActiveMounts, &m.MaxMounts,
		&m.PartsCreated, &m.PartsMoved, &m.PartsRemoved, &m.ItemErrors,
		&m.FuturesApplied, &m.FuturesDiscarded, &m.FuturesRejected,
	} {
		atomic.StoreInt64(field, 0)
	}

	// Reset custom counters
	c.operationCounters = make(map[string]*int64)

	// Reset start time
	c.startTime = time.Now()
	m.StartTime = c.startTime
}

// GetFastPathRate returns the percentage of renders served by updating the
// mounted instance in place
func (c *Collector) GetFastPathRate() float64 {
	if c == nil {
		return 0.0
	}
	renders := atomic.LoadInt64(&c.renderMetrics.Renders)
	fast := atomic.LoadInt64(&c.renderMetrics.FastPathRenders)

	if renders == 0 {
		return 0.0
	}

	return float64(fast) / float64(renders) * 100.0
}
