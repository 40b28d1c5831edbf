// Package clock abstracts wall time so the timer-driven components
// (connectivity sweep, scheduler tick) can be driven deterministically
// in tests instead of sleeping on real tickers.
package clock

import "time"

// Clock provides the current time and periodic ticks.
type Clock interface {
	Now() time.Time
	Tick(d time.Duration) <-chan time.Time
}

// Real is the wall-clock implementation used in production.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Tick returns a channel that fires every d. The underlying ticker is
// never stopped, so callers must be process-lifetime loops (the sweep and
// the scheduler tick), not short-lived consumers.
func (Real) Tick(d time.Duration) <-chan time.Time {
	return time.NewTicker(d).C
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	now   time.Time
	ticks chan time.Time
}

// NewFake returns a Fake pinned at the given instant.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now, ticks: make(chan time.Time, 16)}
}

func (f *Fake) Now() time.Time { return f.now }

func (f *Fake) Tick(time.Duration) <-chan time.Time { return f.ticks }

// Advance moves the fake clock forward and emits one tick at the new time.
func (f *Fake) Advance(d time.Duration) {
	f.now = f.now.Add(d)
	f.ticks <- f.now
}

// Set pins the fake clock at an absolute instant without ticking.
func (f *Fake) Set(now time.Time) { f.now = now }
