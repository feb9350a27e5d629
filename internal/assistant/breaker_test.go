package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, probe time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(threshold, probe)
	b.now = clock.now
	return b, clock
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, 5*time.Second)
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(2, time.Second)
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenAllowsSingleProbe(t *testing.T) {
	b, clock := newTestBreaker(1, 10*time.Second)
	b.RecordFailure()
	assert.False(t, b.Allow())

	clock.advance(10 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
	assert.True(t, b.Allow(), "first probe")
	assert.False(t, b.Allow(), "second call while probing")
}

func TestBreaker_ProbeOutcome(t *testing.T) {
	b, clock := newTestBreaker(1, time.Second)
	b.RecordFailure()
	clock.advance(time.Second)
	b.Allow()
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	clock.advance(time.Second)
	b.Allow()
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
	assert.Equal(t, "unknown", BreakerState(9).String())
}
