package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	_ Clock = System{}
	_ Clock = (*Manual)(nil)
)

func TestSystem(t *testing.T) {
	c := System{}
	start := c.Now()
	assert.Equal(t, time.UTC, start.Location())
	c.Sleep(time.Millisecond)
	assert.False(t, c.Now().Before(start.Add(time.Millisecond)))
}

func TestManual(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewManual(start)
	assert.Equal(t, start, c.Now())
	assert.Empty(t, c.Waits())

	c.Advance(time.Minute)
	assert.Equal(t, start.Add(time.Minute), c.Now())

	c.Sleep(10 * time.Millisecond)
	c.Sleep(20 * time.Millisecond)
	assert.Equal(t, start.Add(time.Minute+30*time.Millisecond), c.Now())

	waits := c.Waits()
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, waits)
	waits[0] = 0
	assert.Equal(t, 10*time.Millisecond, c.Waits()[0], "Waits returns a copy")
}

func TestBackoff(t *testing.T) {
	base := 10 * time.Millisecond
	assert.Equal(t, time.Duration(0), Backoff(base, 0))
	assert.Equal(t, base, Backoff(base, 1))
	assert.Equal(t, 20*time.Millisecond, Backoff(base, 2))
	assert.Equal(t, 80*time.Millisecond, Backoff(base, 4))
}
