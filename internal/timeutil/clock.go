// Package timeutil supplies the time source for stored run timestamps and
// the busy-retry backoff, so both can be driven by hand in tests.
package timeutil

import (
	"sync"
	"time"
)

// Clock reads the time and waits.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the wall clock. Times are returned in UTC.
type System struct{}

func (System) Now() time.Time        { return time.Now().UTC() }
func (System) Sleep(d time.Duration) { time.Sleep(d) }

// Manual is a Clock that only moves when told to. Sleep advances it and
// records the wait instead of blocking.
type Manual struct {
	mu    sync.Mutex
	at    time.Time
	waits []time.Duration
}

// NewManual returns a Manual clock reading at.
func NewManual(at time.Time) *Manual {
	return &Manual{at: at}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.at
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.at = m.at.Add(d)
}

func (m *Manual) Sleep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits = append(m.waits, d)
	m.at = m.at.Add(d)
}

// Waits returns a copy of every duration passed to Sleep, in call order.
func (m *Manual) Waits() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.waits...)
}

// Backoff returns the delay before retry number attempt (1-based) when the
// first retry waits initial and each later one doubles it.
func Backoff(initial time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return initial << (attempt - 1)
}
