package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.FramesTotal == nil || r.FrameDuration == nil {
		t.Error("frame metrics not initialized")
	}
	if r.ImageLoadsTotal == nil || r.HitTestsTotal == nil {
		t.Error("render metrics not initialized")
	}
	if r.SchedulerTransitions == nil || r.SchedulerState == nil {
		t.Error("scheduler metrics not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordFrame(t *testing.T) {
	r := NewRegistry()
	r.RecordFrame("orbit", false, 7, 2*time.Millisecond)
	r.RecordFrame("orbit", false, 7, 3*time.Millisecond)
	r.RecordFrame("orbit", true, 7, time.Millisecond)

	c, err := r.FramesTotal.GetMetricWithLabelValues("orbit", "false")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if v := counterValue(t, c); v != 2 {
		t.Errorf("running frames = %v, want 2", v)
	}

	var m dto.Metric
	if err := r.NodesDrawn.Write(&m); err != nil {
		t.Fatal(err)
	}
	if got := m.GetHistogram().GetSampleCount(); got != 3 {
		t.Errorf("nodes drawn samples = %d, want 3", got)
	}
}

func TestRecordHitTest(t *testing.T) {
	r := NewRegistry()
	r.RecordHitTest(true)
	r.RecordHitTest(false)
	r.RecordHitTest(false)

	hit, _ := r.HitTestsTotal.GetMetricWithLabelValues("hit")
	miss, _ := r.HitTestsTotal.GetMetricWithLabelValues("miss")
	if counterValue(t, hit) != 1 || counterValue(t, miss) != 2 {
		t.Errorf("hit=%v miss=%v", counterValue(t, hit), counterValue(t, miss))
	}
}

func TestSchedulerStateGauge(t *testing.T) {
	r := NewRegistry()
	r.RecordSchedulerTransition("running")
	r.RecordSchedulerTransition("paused")

	paused, _ := r.SchedulerState.GetMetricWithLabelValues("paused")
	running, _ := r.SchedulerState.GetMetricWithLabelValues("running")
	if gaugeValue(t, paused) != 1 {
		t.Error("paused gauge should be 1")
	}
	if gaugeValue(t, running) != 0 {
		t.Error("running gauge should be reset to 0")
	}
}

func TestSnapshotSizeAndImages(t *testing.T) {
	r := NewRegistry()
	r.SetSnapshotSize(1, 6)
	r.RecordImageLoad("loaded")
	r.RecordImageLoad("failed")
	r.RecordRelayout("resize")

	groups, _ := r.SnapshotNodes.GetMetricWithLabelValues("group")
	if gaugeValue(t, groups) != 6 {
		t.Errorf("group nodes = %v", gaugeValue(t, groups))
	}
	failed, _ := r.ImageLoadsTotal.GetMetricWithLabelValues("failed")
	if counterValue(t, failed) != 1 {
		t.Error("failed image load not counted")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordFrame("static", false, 3, time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "orbitgraph_frames_total") {
		t.Error("exposition missing orbitgraph_frames_total")
	}
}
