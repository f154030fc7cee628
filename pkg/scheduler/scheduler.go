// Package scheduler drives the per-frame update cycle. The host loop asks
// for a frame token, waits for its next frame slot and hands the token back;
// the scheduler runs the position update and tells the host to draw. Tokens
// carry a generation so frames requested before a stop or a newer request
// are rejected instead of writing stale positions.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dd0wney/orbitgraph/pkg/logging"
	"github.com/dd0wney/orbitgraph/pkg/metrics"
)

var (
	// ErrStaleFrame is returned for a token that was cancelled or superseded.
	ErrStaleFrame = errors.New("stale frame")
	// ErrStopped is returned when requesting frames from a stopped scheduler.
	ErrStopped = errors.New("scheduler stopped")
	// ErrNotStarted is returned when requesting frames before Start.
	ErrNotStarted = errors.New("scheduler not started")
)

// State is the scheduler lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// generations is shared by every scheduler so tokens never collide across
// snapshots.
var generations atomic.Uint64

// Frame is a token for one requested frame.
type Frame struct {
	Generation uint64
	Seq        uint64
}

// Result reports what a frame did.
type Result struct {
	// Updated is false when the frame was paused and positions were left alone.
	Updated bool
	State   State
}

// Options configures a Scheduler.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Scheduler is the Idle -> Running <-> Paused -> Stopped state machine.
type Scheduler struct {
	mu         sync.Mutex
	state      State
	generation uint64
	seq        uint64
	update     func()
	ran        uint64
	paused     uint64
	logger     logging.Logger
	metrics    *metrics.Registry
}

// New creates an idle scheduler that calls update once per unpaused frame.
func New(update func(), opts Options) *Scheduler {
	gen := generations.Add(1)
	return &Scheduler{
		state:      Idle,
		generation: gen,
		update:     update,
		logger:     logging.OrNop(opts.Logger).With(logging.Component("scheduler"), logging.Uint64("generation", gen)),
		metrics:    opts.Metrics,
	}
}

func (s *Scheduler) transition(to State) {
	s.state = to
	s.logger.Info("scheduler transition", logging.State(to.String()))
	if s.metrics != nil {
		s.metrics.RecordSchedulerTransition(to.String())
	}
}

// Start moves Idle to Running. Starting a running or paused scheduler is a
// no-op; starting a stopped one fails.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Stopped:
		return ErrStopped
	case Idle:
		s.transition(Running)
	}
	return nil
}

// Request issues the token for the next frame. Any earlier outstanding token
// becomes stale, so at most one frame callback is ever live.
func (s *Scheduler) Request() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Idle:
		return Frame{}, ErrNotStarted
	case Stopped:
		return Frame{}, ErrStopped
	}
	s.seq++
	return Frame{Generation: s.generation, Seq: s.seq}, nil
}

// Run executes the frame for token f: the position update when running,
// nothing when paused. The caller draws whenever Run returns nil.
func (s *Scheduler) Run(f Frame) (Result, error) {
	s.mu.Lock()
	if f.Generation != s.generation || f.Seq != s.seq || s.state == Stopped || s.state == Idle {
		state := s.state
		s.mu.Unlock()
		return Result{State: state}, fmt.Errorf("%w: generation %d seq %d", ErrStaleFrame, f.Generation, f.Seq)
	}
	// consume the token so a duplicate delivery cannot run twice
	s.seq++
	if s.state == Paused {
		s.paused++
		s.mu.Unlock()
		return Result{State: Paused}, nil
	}
	s.ran++
	update := s.update
	s.mu.Unlock()

	if update != nil {
		update()
	}
	return Result{Updated: true, State: Running}, nil
}

// Pause freezes updates; frames still run so the host keeps drawing.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		s.transition(Paused)
	}
}

// Resume releases a pause.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Paused {
		s.transition(Running)
	}
}

// Stop is terminal. Every outstanding token becomes stale.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped {
		return
	}
	s.seq++
	s.transition(Stopped)
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation identifies this scheduler's tokens.
func (s *Scheduler) Generation() uint64 {
	return s.generation
}

// Counts returns how many frames ran an update and how many were paused.
func (s *Scheduler) Counts() (updated, paused uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ran, s.paused
}
