package assistant

import (
	"sync"
	"time"
)

// BreakerState is the state of the upstream circuit breaker.
type BreakerState int

const (
	StateClosed   BreakerState = iota // calls flow
	StateOpen                         // calls rejected
	StateHalfOpen                     // one probe call allowed
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker stops calls to the completion API after consecutive failures and
// lets a single probe through once the recovery interval has elapsed.
type Breaker struct {
	mu sync.Mutex

	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool

	failureThreshold      int
	recoveryProbeInterval time.Duration
	now                   func() time.Time
}

func NewBreaker(failureThreshold int, recoveryProbeInterval time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	return &Breaker{
		state:                 StateClosed,
		failureThreshold:      failureThreshold,
		recoveryProbeInterval: recoveryProbeInterval,
		now:                   time.Now,
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState moves OPEN to HALF_OPEN once the probe interval elapsed.
// Must be called with mu held.
func (b *Breaker) currentState() BreakerState {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.recoveryProbeInterval {
		b.state = StateHalfOpen
		b.probing = false
	}
	return b.state
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.probing = false
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	switch b.state {
	case StateClosed:
		if b.failures >= b.failureThreshold {
			b.open()
		}
	case StateHalfOpen:
		b.open()
	}
}

// must be called with mu held.
func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.probing = false
}
