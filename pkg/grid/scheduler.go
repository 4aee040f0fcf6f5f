package grid

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
)

// ThrottleInterval is the minimum spacing between two throttled
// recomputations.
const ThrottleInterval = 50 * time.Millisecond

// Scheduler defers work behind a fixed minimum interval.
type Scheduler interface {
	// Schedule requests a run. Requests arriving faster than the interval
	// are coalesced into one trailing run.
	Schedule()
	// Cancel drops any pending run.
	Cancel()
}

// Dispatcher hands a unit of work to the goroutine that owns the table. The
// default runs it in place.
type Dispatcher func(run func())

func inline(run func()) { run() }

// ThrottledScheduler runs fn at most once per interval. The first request of
// a quiet period runs immediately; requests inside the interval schedule one
// run at the end of it.
type ThrottledScheduler struct {
	clock    clock.WithDelayedExecution
	interval time.Duration
	fn       func()
	dispatch Dispatcher

	mu      sync.Mutex
	ran     bool
	lastRun time.Time
	timer   clock.Timer
	gen     uint64
}

var _ Scheduler = (*ThrottledScheduler)(nil)

// NewThrottledScheduler builds a scheduler on clk. A nil clk uses the real
// clock; a non-positive interval uses ThrottleInterval. Timer-driven runs are
// passed through dispatch when it is non-nil.
func NewThrottledScheduler(clk clock.WithDelayedExecution, interval time.Duration, dispatch Dispatcher, fn func()) *ThrottledScheduler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if interval <= 0 {
		interval = ThrottleInterval
	}
	if dispatch == nil {
		dispatch = inline
	}
	return &ThrottledScheduler{
		clock:    clk,
		interval: interval,
		fn:       fn,
		dispatch: dispatch,
	}
}

// Interval returns the minimum spacing between runs.
func (s *ThrottledScheduler) Interval() time.Duration { return s.interval }

// Schedule implements Scheduler.
func (s *ThrottledScheduler) Schedule() {
	s.mu.Lock()
	if s.timer != nil {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	elapsed := now.Sub(s.lastRun)
	if !s.ran || elapsed >= s.interval {
		s.ran = true
		s.lastRun = now
		s.mu.Unlock()
		s.fn()
		return
	}
	deadline := s.lastRun.Add(s.interval)
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.interval-elapsed, func() { s.fire(gen, deadline) })
	s.mu.Unlock()
}

// fire must not call into the clock: fake clocks invoke it while holding
// their own lock.
func (s *ThrottledScheduler) fire(gen uint64, at time.Time) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.ran = true
	s.lastRun = at
	s.mu.Unlock()
	s.dispatch(s.fn)
}

// RunNow drops any pending run and runs fn immediately, restarting the
// interval.
func (s *ThrottledScheduler) RunNow() {
	s.mu.Lock()
	s.stopLocked()
	s.ran = true
	s.lastRun = s.clock.Now()
	s.mu.Unlock()
	s.fn()
}

// Cancel implements Scheduler.
func (s *ThrottledScheduler) Cancel() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

// Pending reports whether a trailing run is scheduled.
func (s *ThrottledScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *ThrottledScheduler) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Measurer reads a width from the rendering surface. Unavailable
// measurements are reported as zero.
type Measurer func() float64

// ResizeOptions tunes a ResizeScheduler.
type ResizeOptions struct {
	Clock    clock.WithDelayedExecution
	Interval time.Duration
	Dispatch Dispatcher
	Logger   logr.Logger
}

// ResizeScheduler re-resolves column widths when the table mounts, when its
// columns change and when its container is resized. It exclusively owns the
// table's MeasurementState.
type ResizeScheduler struct {
	throttle *ThrottledScheduler
	measure  Measurer
	columns  func() []ColumnSpec
	apply    func(ColumnsSizes)
	log      logr.Logger

	mu    sync.Mutex
	state MeasurementState
	torn  bool
}

// NewResizeScheduler wires a scheduler. columns is read on every
// recomputation and apply receives the resolved widths.
func NewResizeScheduler(measure Measurer, columns func() []ColumnSpec, apply func(ColumnsSizes), opts ResizeOptions) *ResizeScheduler {
	r := &ResizeScheduler{
		measure: measure,
		columns: columns,
		apply:   apply,
		log:     opts.Logger,
	}
	if r.log.GetSink() == nil {
		r.log = logr.Discard()
	}
	r.throttle = NewThrottledScheduler(opts.Clock, opts.Interval, opts.Dispatch, r.recompute)
	return r
}

// OnMount resolves immediately so the first paint has final widths.
func (r *ResizeScheduler) OnMount() {
	r.log.V(1).Info("column layout mount")
	r.throttle.RunNow()
}

// OnInputsChanged resolves immediately for a new column set, dropping any
// throttled run computed for the old one.
func (r *ResizeScheduler) OnInputsChanged() {
	r.log.V(1).Info("column layout inputs changed")
	r.throttle.RunNow()
}

// OnResize requests a throttled recomputation.
func (r *ResizeScheduler) OnResize() {
	if r.isTorn() {
		return
	}
	r.throttle.Schedule()
}

// OnTeardown cancels any pending recomputation. Later triggers are ignored.
func (r *ResizeScheduler) OnTeardown() {
	r.mu.Lock()
	r.torn = true
	r.mu.Unlock()
	r.throttle.Cancel()
	r.log.V(1).Info("column layout teardown")
}

// Pending reports whether a throttled recomputation is waiting.
func (r *ResizeScheduler) Pending() bool { return r.throttle.Pending() }

// Measurement returns a copy of the measurement state.
func (r *ResizeScheduler) Measurement() MeasurementState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// recompute holds mu only around the measurement state, so measure, apply
// and anything they call may use the scheduler again.
func (r *ResizeScheduler) recompute() {
	if r.isTorn() {
		return
	}
	width := 0.0
	if r.measure != nil {
		width = r.measure()
	}

	r.mu.Lock()
	if r.torn {
		r.mu.Unlock()
		return
	}
	previous := r.state.PreviousContainerWidth
	r.state.PreviousContainerWidth = width
	r.mu.Unlock()

	var cols []ColumnSpec
	if r.columns != nil {
		cols = r.columns()
	}
	sizes := Resolve(cols, width, previous)
	r.log.V(1).Info("resolved column widths", "container", width, "previous", previous, "sizes", sizes.String())
	if r.apply == nil || r.isTorn() {
		return
	}
	r.apply(sizes)
}

func (r *ResizeScheduler) isTorn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.torn
}
