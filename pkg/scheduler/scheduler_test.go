package scheduler

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/orbitgraph/pkg/metrics"
)

func runFrame(t *testing.T, s *Scheduler) Result {
	t.Helper()
	f, err := s.Request()
	require.NoError(t, err)
	res, err := s.Run(f)
	require.NoError(t, err)
	return res
}

func TestLifecycle(t *testing.T) {
	ticks := 0
	s := New(func() { ticks++ }, Options{})
	assert.Equal(t, Idle, s.State())

	_, err := s.Request()
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, s.Start())
	assert.Equal(t, Running, s.State())
	require.NoError(t, s.Start(), "start is idempotent")

	for i := 0; i < 5; i++ {
		res := runFrame(t, s)
		assert.True(t, res.Updated)
	}
	assert.Equal(t, 5, ticks)

	s.Stop()
	assert.Equal(t, Stopped, s.State())
	assert.ErrorIs(t, s.Start(), ErrStopped)
	_, err = s.Request()
	assert.ErrorIs(t, err, ErrStopped)
	s.Stop()
}

func TestPauseStillDrawsWithoutUpdating(t *testing.T) {
	ticks := 0
	s := New(func() { ticks++ }, Options{})
	require.NoError(t, s.Start())

	runFrame(t, s)
	s.Pause()
	assert.Equal(t, Paused, s.State())
	for i := 0; i < 4; i++ {
		res := runFrame(t, s)
		assert.False(t, res.Updated)
		assert.Equal(t, Paused, res.State)
	}
	assert.Equal(t, 1, ticks)

	s.Resume()
	runFrame(t, s)
	assert.Equal(t, 2, ticks)

	updated, paused := s.Counts()
	assert.Equal(t, uint64(2), updated)
	assert.Equal(t, uint64(4), paused)
}

func TestPauseResumeOnlyFromMatchingStates(t *testing.T) {
	s := New(nil, Options{})
	s.Pause()
	assert.Equal(t, Idle, s.State(), "pause before start is ignored")
	s.Resume()
	assert.Equal(t, Idle, s.State())

	require.NoError(t, s.Start())
	s.Resume()
	assert.Equal(t, Running, s.State())

	s.Stop()
	s.Resume()
	assert.Equal(t, Stopped, s.State())
}

func TestStaleFrames(t *testing.T) {
	ticks := 0
	s := New(func() { ticks++ }, Options{})
	require.NoError(t, s.Start())

	old, err := s.Request()
	require.NoError(t, err)
	newer, err := s.Request()
	require.NoError(t, err)

	_, err = s.Run(old)
	assert.ErrorIs(t, err, ErrStaleFrame, "superseded request")

	_, err = s.Run(newer)
	require.NoError(t, err)
	_, err = s.Run(newer)
	assert.ErrorIs(t, err, ErrStaleFrame, "a token runs at most once")

	pending, err := s.Request()
	require.NoError(t, err)
	s.Stop()
	_, err = s.Run(pending)
	assert.ErrorIs(t, err, ErrStaleFrame, "stop cancels the pending frame")
	assert.Equal(t, 1, ticks)
}

func TestTokensDoNotCrossSchedulers(t *testing.T) {
	a := New(nil, Options{})
	require.NoError(t, a.Start())
	f, err := a.Request()
	require.NoError(t, err)
	a.Stop()

	b := New(nil, Options{})
	require.NoError(t, b.Start())
	assert.NotEqual(t, a.Generation(), b.Generation())
	_, err = b.Request()
	require.NoError(t, err)

	_, err = b.Run(f)
	assert.ErrorIs(t, err, ErrStaleFrame)
}

func TestTransitionsRecorded(t *testing.T) {
	reg := metrics.NewRegistry()
	s := New(nil, Options{Metrics: reg})
	require.NoError(t, s.Start())
	s.Pause()
	s.Resume()
	s.Stop()

	running, err := reg.SchedulerTransitions.GetMetricWithLabelValues("running")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, running.Write(&m))
	assert.Equal(t, 2.0, m.GetCounter().GetValue())

	stopped, err := reg.SchedulerState.GetMetricWithLabelValues("stopped")
	require.NoError(t, err)
	require.NoError(t, stopped.Write(&m))
	assert.Equal(t, 1.0, m.GetGauge().GetValue())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "unknown", State(42).String())
}
