package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d", i)
	}
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.Equal(t, 0, rl.Remaining("1.2.3.4"))

	// A different key has its own window.
	assert.True(t, rl.Allow("5.6.7.8"))
	assert.Equal(t, 2, rl.Remaining("5.6.7.8"))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Hour)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("k"))
	assert.True(t, rl.Allow("k"))
	assert.False(t, rl.Allow("k"))

	// Half an hour later the window is still full.
	clock = clock.Add(30 * time.Minute)
	assert.False(t, rl.Allow("k"))

	// Once the first requests age out, capacity returns.
	clock = clock.Add(31 * time.Minute)
	assert.True(t, rl.Allow("k"))
}

func TestRateLimiterSweepDropsIdleKeys(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return clock }

	rl.Allow("idle")
	clock = clock.Add(2 * time.Minute)
	rl.Allow("active")

	rl.mu.Lock()
	_, idleKept := rl.seen["idle"]
	rl.mu.Unlock()
	assert.False(t, idleKept)
}

func TestRateLimiterRemainingFreshKey(t *testing.T) {
	rl := NewRateLimiter(10, time.Hour)
	assert.Equal(t, 10, rl.Remaining("new"))
}
