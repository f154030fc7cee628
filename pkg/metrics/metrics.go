package metrics

import (
	"strconv"
	"time"
)

var schedulerStates = []string{"idle", "running", "paused", "stopped"}

// RecordFrame records one drawn frame
func (r *Registry) RecordFrame(mode string, paused bool, nodes int, duration time.Duration) {
	r.FramesTotal.WithLabelValues(mode, strconv.FormatBool(paused)).Inc()
	r.FrameDuration.WithLabelValues(mode).Observe(duration.Seconds())
	r.NodesDrawn.Observe(float64(nodes))
}

// RecordRelayout records a full recomputation of node positions
func (r *Registry) RecordRelayout(trigger string) {
	r.RelayoutsTotal.WithLabelValues(trigger).Inc()
}

// SetSnapshotSize publishes the node counts of the active snapshot
func (r *Registry) SetSnapshotSize(centers, groups int) {
	r.SnapshotNodes.WithLabelValues("center").Set(float64(centers))
	r.SnapshotNodes.WithLabelValues("group").Set(float64(groups))
}

// RecordMeshSettle records how long a mesh simulation ran before cooling
func (r *Registry) RecordMeshSettle(d time.Duration) {
	r.MeshSettleSeconds.Observe(d.Seconds())
}

// RecordImageLoad records the outcome of a photo load: loaded or failed
func (r *Registry) RecordImageLoad(status string) {
	r.ImageLoadsTotal.WithLabelValues(status).Inc()
}

// RecordHitTest records whether a pointer probe landed on a node
func (r *Registry) RecordHitTest(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.HitTestsTotal.WithLabelValues(result).Inc()
}

// RecordSchedulerTransition counts a transition and flips the state gauge
func (r *Registry) RecordSchedulerTransition(to string) {
	r.SchedulerTransitions.WithLabelValues(to).Inc()
	for _, s := range schedulerStates {
		r.SchedulerState.WithLabelValues(s).Set(0)
	}
	r.SchedulerState.WithLabelValues(to).Set(1)
}
