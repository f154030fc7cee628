package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for the layout and render pipeline
type Registry struct {
	// Frame metrics
	FramesTotal   *prometheus.CounterVec
	FrameDuration *prometheus.HistogramVec

	// Layout metrics
	RelayoutsTotal    *prometheus.CounterVec
	SnapshotNodes     *prometheus.GaugeVec
	MeshSettleSeconds prometheus.Histogram

	// Render metrics
	ImageLoadsTotal *prometheus.CounterVec
	HitTestsTotal   *prometheus.CounterVec
	NodesDrawn      prometheus.Histogram

	// Scheduler metrics
	SchedulerTransitions *prometheus.CounterVec
	SchedulerState       *prometheus.GaugeVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initFrameMetrics()
	r.initLayoutMetrics()
	r.initRenderMetrics()
	r.initSchedulerMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
