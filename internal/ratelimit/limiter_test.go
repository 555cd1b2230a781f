package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets the tests move time forward manually.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(max int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(max, window, WithClock(clock.now)), clock
}

func TestAllow_ExactBudget(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	assert.True(t, l.Allow("u1"))
	assert.True(t, l.Allow("u1"))
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
}

func TestAllow_WindowExpiry(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	assert.True(t, l.Allow("u1"))
	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))

	clock.advance(time.Minute + time.Second)
	assert.True(t, l.Allow("u1"))
}

func TestAllow_RejectionNotRecorded(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)

	assert.True(t, l.Allow("u1"))
	for i := 0; i < 5; i++ {
		assert.False(t, l.Allow("u1"))
	}

	// Only the one accepted request occupies the window; once it ages out
	// the identifier is unconstrained again.
	clock.advance(61 * time.Second)
	assert.True(t, l.Allow("u1"))
}

func TestAllow_IdentifiersIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	assert.True(t, l.Allow("u1"))
	assert.False(t, l.Allow("u1"))
	assert.True(t, l.Allow("u2"))
}

func TestRemaining_NonDestructive(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	assert.Equal(t, 3, l.Remaining("u1"))
	assert.Equal(t, 3, l.Remaining("u1"))

	l.Allow("u1")
	assert.Equal(t, 2, l.Remaining("u1"))

	l.Allow("u1")
	l.Allow("u1")
	assert.Equal(t, 0, l.Remaining("u1"))

	l.Allow("u1") // rejected
	assert.Equal(t, 0, l.Remaining("u1"))
}

func TestRemaining_RecoversAfterWindow(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	l.Allow("u1")
	clock.advance(30 * time.Second)
	l.Allow("u1")
	assert.Equal(t, 0, l.Remaining("u1"))

	// First request ages out, second still in window.
	clock.advance(31 * time.Second)
	assert.Equal(t, 1, l.Remaining("u1"))
}

func TestResetAt(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)

	assert.True(t, l.ResetAt("u1").IsZero())

	start := clock.t
	l.Allow("u1")
	assert.Equal(t, start.Add(time.Minute), l.ResetAt("u1"))
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	l.Allow("u1")
	assert.False(t, l.Allow("u1"))

	l.Reset("u1")
	assert.True(t, l.Allow("u1"))
}
