package classifier

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// BreakerState is the state of the circuit breaker guarding the classifier.
type BreakerState int

const (
	// BreakerClosed - normal operation, calls allowed.
	BreakerClosed BreakerState = iota
	// BreakerOpen - failing, calls blocked until the cooldown elapses.
	BreakerOpen
	// BreakerHalfOpen - probing whether the service recovered.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned by Allow while the breaker is open.
var ErrBreakerOpen = fmt.Errorf("circuit breaker open")

type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration
	// SuccessThreshold is the number of consecutive half-open successes
	// needed to close the breaker again.
	SuccessThreshold int
	// Now supplies the clock; defaults to time.Now. Tests inject a fake.
	Now func() time.Time
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
		SuccessThreshold: 1,
	}
}

// Breaker implements a consecutive-failure circuit breaker.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Breaker{
		cfg:   cfg,
		now:   now,
		state: BreakerClosed,
	}
}

// Allow reports whether a call may proceed. Callers must follow up with
// Mark to record the outcome of an allowed call.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if b.now().Sub(b.lastFailureTime) >= b.cfg.Cooldown {
			b.state = BreakerHalfOpen
			b.successCount = 0
			slog.Info("classifier breaker half-open, probing recovery")
			return nil
		}
		return ErrBreakerOpen
	case BreakerHalfOpen:
		return nil
	default:
		return fmt.Errorf("unknown breaker state: %v", b.state)
	}
}

// Mark records the outcome of an allowed call. Pass nil for success.
func (b *Breaker) Mark(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.onSuccess()
	} else {
		b.onFailure()
	}
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case BreakerClosed:
		b.failureCount = 0
	case BreakerHalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.state = BreakerClosed
			b.failureCount = 0
			b.successCount = 0
			slog.Info("classifier breaker closed, service recovered")
		}
	}
}

func (b *Breaker) onFailure() {
	b.lastFailureTime = b.now()

	switch b.state {
	case BreakerClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.state = BreakerOpen
			slog.Warn("classifier breaker opened", "consecutive_failures", b.failureCount)
		}
	case BreakerHalfOpen:
		// Any failure during the probe reopens the breaker.
		b.state = BreakerOpen
		b.successCount = 0
		slog.Warn("classifier breaker reopened, probe failed")
	}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
