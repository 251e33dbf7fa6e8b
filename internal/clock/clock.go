package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Since returns the time elapsed since t as seen by NowFunc.
func Since(t time.Time) time.Duration { return NowFunc().Sub(t) }

// Stopwatch accumulates the duration of a sequence of measured intervals.
// Time between Stop and the next Start is not counted. The zero value is ready
// to use; it is not safe for concurrent use.
type Stopwatch struct {
	total   time.Duration
	started time.Time
	running bool
}

// Start opens an interval. Starting a running stopwatch is a no-op.
func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.started = NowFunc()
	s.running = true
}

// Stop closes the current interval and returns its length.
func (s *Stopwatch) Stop() time.Duration {
	if !s.running {
		return 0
	}
	lap := NowFunc().Sub(s.started)
	if lap < 0 {
		lap = 0
	}
	s.total += lap
	s.running = false
	return lap
}

// Total returns the accumulated duration of all closed intervals.
func (s *Stopwatch) Total() time.Duration { return s.total }

// Running reports whether an interval is open.
func (s *Stopwatch) Running() bool { return s.running }
