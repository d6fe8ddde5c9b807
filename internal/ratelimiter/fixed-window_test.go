package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestLimiter(limit int, period time.Duration) (*FixedWindowRateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewFixedWindowLimiter(limit, period)
	rl.now = clock.Now
	return rl, clock
}

func TestAllowWithinLimit(t *testing.T) {
	rl, clock := newTestLimiter(2, 5*time.Second)

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	clock.t = clock.t.Add(2 * time.Second)
	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, 3*time.Second, retry)

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok, "keys are independent")
}

func TestWindowResets(t *testing.T) {
	rl, clock := newTestLimiter(1, time.Second)

	ok, _ := rl.Allow("k")
	assert.True(t, ok)
	ok, _ = rl.Allow("k")
	assert.False(t, ok)

	clock.t = clock.t.Add(time.Second)
	ok, _ = rl.Allow("k")
	assert.True(t, ok)
}

func TestCleanupDropsExpired(t *testing.T) {
	rl, clock := newTestLimiter(1, time.Second)
	rl.Allow("a")
	clock.t = clock.t.Add(500 * time.Millisecond)
	rl.Allow("b")

	clock.t = clock.t.Add(600 * time.Millisecond)
	rl.cleanup()
	assert.Equal(t, 1, rl.Len())
}

func TestNewFixedWindowLimiterStartsEmpty(t *testing.T) {
	rl := NewFixedWindowLimiter(3, time.Minute)
	assert.Equal(t, 0, rl.Len())
	assert.Equal(t, time.Minute, rl.window)

	ok, _ := rl.Allow("k")
	assert.True(t, ok)
	assert.Equal(t, 1, rl.Len())
}
