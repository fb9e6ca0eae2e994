package classifier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/taskforge-ai/taskforge/internal/config"
)

// ErrUnavailable is returned when classification could not produce a usable
// result within the resilience budget. Callers treat it as "no hint", never
// as a failure of the orchestration call.
var ErrUnavailable = errors.New("classifier unavailable")

type ResilientConfig struct {
	// Timeout is the hard per-attempt deadline. Classification must stay
	// cheaper than a no-op fallback, so this is tens of milliseconds.
	Timeout time.Duration
	// MaxAttempts bounds retries of transient failures within one Classify.
	MaxAttempts int
	// RetryInterval is the fixed backoff between attempts.
	RetryInterval time.Duration
	Breaker       BreakerConfig
}

func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		Timeout:       50 * time.Millisecond,
		MaxAttempts:   2,
		RetryInterval: 20 * time.Millisecond,
		Breaker:       DefaultBreakerConfig(),
	}
}

func ResilientConfigFromEnv(env *config.ClassifierEnv) ResilientConfig {
	cfg := DefaultResilientConfig()
	if env.Timeout > 0 {
		cfg.Timeout = env.Timeout
	}
	if env.MaxAttempts > 0 {
		cfg.MaxAttempts = env.MaxAttempts
	}
	if env.RetryInterval > 0 {
		cfg.RetryInterval = env.RetryInterval
	}
	if env.BreakerFailures > 0 {
		cfg.Breaker.FailureThreshold = env.BreakerFailures
	}
	if env.BreakerCooldown > 0 {
		cfg.Breaker.Cooldown = env.BreakerCooldown
	}
	return cfg
}

// Resilient composes retry, circuit breaking, and a hard per-attempt timeout
// around a raw classifier client. The orchestrator's request path never
// blocks longer than MaxAttempts x Timeout plus backoff.
type Resilient struct {
	underlying Client
	cfg        ResilientConfig
	breaker    *Breaker
}

func NewResilient(underlying Client, cfg ResilientConfig) *Resilient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 50 * time.Millisecond
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 20 * time.Millisecond
	}
	return &Resilient{
		underlying: underlying,
		cfg:        cfg,
		breaker:    NewBreaker(cfg.Breaker),
	}
}

// Breaker exposes the wrapped breaker for observability.
func (r *Resilient) Breaker() *Breaker {
	return r.breaker
}

func (r *Resilient) Classify(ctx context.Context, req *Request) (*Result, error) {
	operation := func() (*Result, error) {
		if err := r.breaker.Allow(); err != nil {
			// Breaker open: stop retrying, the cooldown outlasts the budget.
			return nil, backoff.Permanent(ErrUnavailable)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		result, err := r.underlying.Classify(attemptCtx, req)
		cancel()

		r.breaker.Mark(err)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ErrUnavailable)
			}
			return nil, err
		}
		return result, nil
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.cfg.RetryInterval)),
		backoff.WithMaxTries(uint(r.cfg.MaxAttempts)),
	)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			slog.DebugContext(ctx, "classification degraded to unavailable", "error", err)
		}
		return nil, ErrUnavailable
	}
	return result, nil
}
