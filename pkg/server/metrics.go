package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/resume/pkg/runtime"
	"github.com/vango-dev/resume/pkg/sched"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "resume").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors and serves /metrics.
	// Default: a new registry.
	Registry *prometheus.Registry
}

// MetricsOption configures the Prometheus collectors.
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

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the server's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	dispatchErrors  *prometheus.CounterVec
	batchesTotal    prometheus.Counter
	batchHosts      prometheus.Histogram
	rendersTotal    *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	childRenders    prometheus.Counter
	removedNodes    prometheus.Counter
	dehydrateBytes  prometheus.Histogram
	snapshotsTotal  *prometheus.CounterVec
	liveConnections prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
//
// Metrics collected:
//   - resume_http_requests_total: Counter of requests by route and status
//   - resume_http_request_duration_seconds: Histogram by route
//   - resume_dispatch_errors_total: Counter of failed events by kind
//   - resume_render_batches_total: Counter of executed render batches
//   - resume_render_batch_hosts: Histogram of hosts per batch
//   - resume_renders_total: Counter of host renders by status
//   - resume_render_duration_seconds: Histogram of host render time
//   - resume_child_renders_total: Counter of nested host renders enqueued
//   - resume_removed_nodes_total: Counter of live nodes pruned
//   - resume_dehydrate_bytes: Histogram of state block sizes
//   - resume_snapshots_total: Counter of snapshot operations by op
//   - resume_live_connections: Gauge of open live connections
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "resume",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		registry: config.Registry,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		dispatchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_errors_total",
			Help:        "Total number of failed event dispatches",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		batchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_batches_total",
			Help:        "Total number of executed render batches",
			ConstLabels: config.ConstLabels,
		}),

		batchHosts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_batch_hosts",
			Help:        "Number of hosts rendered per batch",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100},
		}),

		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of host renders",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Host render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		childRenders: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "child_renders_total",
			Help:        "Total nested host renders enqueued by reconciliation",
			ConstLabels: config.ConstLabels,
		}),

		removedNodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "removed_nodes_total",
			Help:        "Total live nodes pruned by reconciliation",
			ConstLabels: config.ConstLabels,
		}),

		dehydrateBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dehydrate_bytes",
			Help:        "Size of the encoded state block in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{256, 1024, 10240, 102400, 1048576}, // 256B to 1MB
		}),

		snapshotsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "snapshots_total",
			Help:        "Total snapshot store operations",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		liveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_connections",
			Help:        "Number of open live WebSocket connections",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeBatch(s sched.BatchStats) {
	if m == nil {
		return
	}
	m.batchesTotal.Inc()
	m.batchHosts.Observe(float64(s.Hosts))
}

func (m *Metrics) observeRender(s runtime.RenderStats) {
	if m == nil {
		return
	}
	if s.Err != nil {
		m.rendersTotal.WithLabelValues("failed").Inc()
		return
	}
	m.rendersTotal.WithLabelValues("ok").Inc()
	m.renderDuration.Observe(s.Duration.Seconds())
	m.childRenders.Add(float64(s.Children))
	m.removedNodes.Add(float64(s.Removed))
}

func (m *Metrics) observeDehydrate(bytes int) {
	if m == nil {
		return
	}
	m.dehydrateBytes.Observe(float64(bytes))
}

func (m *Metrics) observeSnapshot(op string) {
	if m == nil {
		return
	}
	m.snapshotsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) observeDispatchError(err error) {
	if m == nil {
		return
	}
	m.dispatchErrors.WithLabelValues(errorKind(err)).Inc()
}

func (m *Metrics) liveOpened() {
	if m != nil {
		m.liveConnections.Inc()
	}
}

func (m *Metrics) liveClosed() {
	if m != nil {
		m.liveConnections.Dec()
	}
}

// instrument records request count and duration for route.
func (m *Metrics) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
}
