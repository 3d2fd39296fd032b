package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vmirror/pkg/vdom"
)

// MetricsConfig configures the Prometheus metrics of an engine.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vmirror").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vmirror",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors updated by an engine.
type Metrics struct {
	flushes       prometheus.Counter
	flushDuration prometheus.Histogram
	flushErrors   prometheus.Counter
	mutations     *prometheus.CounterVec
	patches       *prometheus.CounterVec
	handles       prometheus.Gauge
	nodes         prometheus.Gauge
	tokens        prometheus.Gauge
}

// NewMetrics registers the engine collectors.
//
// Metrics collected:
//   - vmirror_flushes_total: Counter of completed flushes
//   - vmirror_flush_duration_seconds: Histogram of flush duration
//   - vmirror_flush_errors_total: Counter of failed flushes
//   - vmirror_mutations_total: Counter of target calls by operation
//   - vmirror_handle_patches_total: Counter of handle patches by result
//   - vmirror_live_handles: Gauge of bound handle slots
//   - vmirror_committed_nodes: Gauge of nodes in the committed tree
//   - vmirror_interned_strings: Gauge of dynamically interned strings
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of flushes applied to the target",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_errors_total",
			Help:        "Total number of flushes that failed",
			ConstLabels: config.ConstLabels,
		}),

		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total target calls by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		patches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handle_patches_total",
			Help:        "Total handle patches by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		handles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_handles",
			Help:        "Number of bound handle slots",
			ConstLabels: config.ConstLabels,
		}),

		nodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "committed_nodes",
			Help:        "Number of nodes in the committed tree",
			ConstLabels: config.ConstLabels,
		}),

		tokens: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "interned_strings",
			Help:        "Number of dynamically interned strings",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) recordPatch(ok bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !ok {
		result = "inert"
	}
	m.patches.WithLabelValues(result).Inc()
}

// countingTarget counts target calls per operation.
type countingTarget struct {
	vdom.Target
	m *prometheus.CounterVec
}

func (t countingTarget) SetAttribute(el vdom.Element, name, value string) error {
	t.m.WithLabelValues("set_attribute").Inc()
	return t.Target.SetAttribute(el, name, value)
}

func (t countingTarget) RemoveAttribute(el vdom.Element, name string) error {
	t.m.WithLabelValues("remove_attribute").Inc()
	return t.Target.RemoveAttribute(el, name)
}

func (t countingTarget) SetTextContent(el vdom.Element, text string) error {
	t.m.WithLabelValues("set_text_content").Inc()
	return t.Target.SetTextContent(el, text)
}

func (t countingTarget) InsertAdjacentHTML(el vdom.Element, pos vdom.Position, html string) error {
	t.m.WithLabelValues("insert_adjacent_html").Inc()
	return t.Target.InsertAdjacentHTML(el, pos, html)
}

func (t countingTarget) InsertAdjacentElement(el vdom.Element, pos vdom.Position, moved vdom.Element) error {
	t.m.WithLabelValues("insert_adjacent_element").Inc()
	return t.Target.InsertAdjacentElement(el, pos, moved)
}

func (t countingTarget) SetOuterHTML(el vdom.Element, html string) error {
	t.m.WithLabelValues("set_outer_html").Inc()
	return t.Target.SetOuterHTML(el, html)
}

func (t countingTarget) Remove(el vdom.Element) error {
	t.m.WithLabelValues("remove").Inc()
	return t.Target.Remove(el)
}
