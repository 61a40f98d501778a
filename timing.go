package kstats

import (
	"fmt"
	"sync"
	"time"
)

// NoMin is the value of Stats.Min before the first observation.
const NoMin time.Duration = -1

// Stats is a point-in-time copy of a Timing.
type Stats struct {
	Called    int64
	Aggregate time.Duration
	Min       time.Duration
	Max       time.Duration
}

// Average returns Aggregate / Called, truncated.
// Returns ErrNoData if nothing has been observed.
func (s Stats) Average() (time.Duration, error) {
	if s.Called == 0 {
		return 0, ErrNoData
	}
	return s.Aggregate / time.Duration(s.Called), nil
}

// Timing aggregates repeated duration observations: count, sum, min and max.
// The zero value is an empty Timing ready to use. Segment and Path embed one.
//
// Timing is safe for concurrent use. Each instance has its own lock, so
// updates to different timings never contend.
type Timing struct {
	mu        sync.Mutex
	called    int64
	aggregate time.Duration
	// min is only meaningful once called > 0; readers report NoMin before.
	min time.Duration
	max time.Duration
}

// NewTiming creates an empty Timing. It is equivalent to new(Timing).
func NewTiming() *Timing {
	return &Timing{}
}

// Update records one observation.
// A negative duration is rejected with ErrNegativeDuration and leaves the
// timing untouched.
func (t *Timing) Update(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDuration, d)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.called++
	t.aggregate += d
	if t.called == 1 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	return nil
}

// Start returns a stopwatch. Calling it records the time elapsed since Start
// and returns it. Calling it more than once records more than once.
func (t *Timing) Start() func() time.Duration {
	begin := time.Now()
	return func() time.Duration {
		elapsed := time.Since(begin)
		// time.Since is monotonic, elapsed is never negative
		_ = t.Update(elapsed)
		return elapsed
	}
}

// Stats returns a consistent snapshot of all fields.
func (t *Timing) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Called:    t.called,
		Aggregate: t.aggregate,
		Min:       t.minLocked(),
		Max:       t.max,
	}
}

func (t *Timing) minLocked() time.Duration {
	if t.called == 0 {
		return NoMin
	}
	return t.min
}

// Average returns the truncated mean of all observations.
// Returns ErrNoData if Update was never called.
func (t *Timing) Average() (time.Duration, error) {
	return t.Stats().Average()
}

func (t *Timing) Called() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.called
}

func (t *Timing) AggregateTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aggregate
}

// MinTime returns the smallest observation, or NoMin.
func (t *Timing) MinTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.minLocked()
}

func (t *Timing) MaxTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.max
}
