package livebind

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/livefir/livebind/internal/metrics"
)

// Metrics collects render counters. A nil *Metrics records nothing.
type Metrics = metrics.Collector

// RenderMetrics is a snapshot of Metrics.
type RenderMetrics = metrics.RenderMetrics

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return metrics.NewCollector()
}

// Config holds render configuration. Parts created during a render keep the
// configuration they were created with.
type Config struct {
	PartFactory PartFactory
	Logger      *zap.Logger
	Scheduler   Scheduler
	Metrics     *Metrics
}

// Option is a functional option for configuring a render
type Option func(*Config)

// WithPartFactory sets the factory used to turn template parts into live parts
func WithPartFactory(factory PartFactory) Option {
	return func(c *Config) {
		c.PartFactory = factory
	}
}

// WithLogger sets the logger used for skipped list items and unhandled future rejections
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithScheduler sets where future continuations are queued
func WithScheduler(s Scheduler) Option {
	return func(c *Config) {
		c.Scheduler = s
	}
}

// WithMetrics records render activity into m
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

func newConfig(opts []Option) *Config {
	config := &Config{
		PartFactory: DefaultPartFactory,
		Scheduler:   DefaultQueue,
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.PartFactory == nil {
		config.PartFactory = DefaultPartFactory
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Scheduler == nil {
		config.Scheduler = DefaultQueue
	}
	return config
}

// sameFactory compares factories by code pointer; funcs are not comparable.
func sameFactory(a, b PartFactory) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
