package classifier

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testBreaker(clock *fakeClock) *Breaker {
	return NewBreaker(BreakerConfig{
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
		SuccessThreshold: 1,
		Now:              clock.Now,
	})
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := testBreaker(newFakeClock())
	failure := errors.New("connection refused")

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.Mark(failure)
		assert.Equal(t, BreakerClosed, b.State())
	}

	require.NoError(t, b.Allow())
	b.Mark(failure)
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := testBreaker(newFakeClock())
	failure := errors.New("timeout")

	b.Mark(failure)
	b.Mark(failure)
	b.Mark(nil)
	b.Mark(failure)
	b.Mark(failure)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerHalfOpenAfterCooldown(t *testing.T) {
	clock := newFakeClock()
	b := testBreaker(clock)
	failure := errors.New("connection refused")

	for i := 0; i < 3; i++ {
		b.Mark(failure)
	}
	require.Equal(t, BreakerOpen, b.State())
	require.ErrorIs(t, b.Allow(), ErrBreakerOpen)

	clock.Advance(29 * time.Second)
	require.ErrorIs(t, b.Allow(), ErrBreakerOpen)

	clock.Advance(time.Second)
	require.NoError(t, b.Allow())
	assert.Equal(t, BreakerHalfOpen, b.State())

	b.Mark(nil)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerReopensOnProbeFailure(t *testing.T) {
	clock := newFakeClock()
	b := testBreaker(clock)
	failure := errors.New("connection refused")

	for i := 0; i < 3; i++ {
		b.Mark(failure)
	}
	clock.Advance(30 * time.Second)
	require.NoError(t, b.Allow())
	require.Equal(t, BreakerHalfOpen, b.State())

	b.Mark(failure)
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrBreakerOpen)
}
