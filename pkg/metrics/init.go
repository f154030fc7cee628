package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initFrameMetrics() {
	r.FramesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitgraph_frames_total",
			Help: "Total number of frames drawn",
		},
		[]string{"mode", "paused"},
	)

	r.FrameDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitgraph_frame_duration_seconds",
			Help:    "Time spent computing and drawing one frame",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .016, .033, .05, .1, .25},
		},
		[]string{"mode"},
	)
}

func (r *Registry) initLayoutMetrics() {
	r.RelayoutsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitgraph_relayouts_total",
			Help: "Total number of relayouts by trigger",
		},
		[]string{"trigger"},
	)

	r.SnapshotNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orbitgraph_snapshot_nodes",
			Help: "Number of nodes in the current snapshot by role",
		},
		[]string{"role"},
	)

	r.MeshSettleSeconds = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitgraph_mesh_settle_seconds",
			Help:    "Time for the mesh physics simulation to cool below its alpha threshold",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
}

func (r *Registry) initRenderMetrics() {
	r.ImageLoadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitgraph_image_loads_total",
			Help: "Total number of node photo loads by outcome",
		},
		[]string{"status"},
	)

	r.HitTestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitgraph_hit_tests_total",
			Help: "Total number of pointer hit tests by result",
		},
		[]string{"result"},
	)

	r.NodesDrawn = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitgraph_nodes_drawn",
			Help:    "Number of nodes drawn per frame",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
}

func (r *Registry) initSchedulerMetrics() {
	r.SchedulerTransitions = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitgraph_scheduler_transitions_total",
			Help: "Total number of animation scheduler state transitions",
		},
		[]string{"to"},
	)

	r.SchedulerState = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orbitgraph_scheduler_state",
			Help: "Current animation scheduler state (1 for the active state)",
		},
		[]string{"state"},
	)
}
