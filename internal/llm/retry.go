package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retry wraps a Client with a bounded retry of transient completion failures.
// A cancelled caller context is never retried; every agent call goes through
// this wrapper, so each pipeline stage carries its own local retry budget.
type Retry struct {
	underlying  Client
	maxAttempts int
	interval    time.Duration
}

func NewRetry(underlying Client, maxAttempts int, interval time.Duration) *Retry {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Retry{
		underlying:  underlying,
		maxAttempts: maxAttempts,
		interval:    interval,
	}
}

func (r *Retry) Model() string {
	return r.underlying.Model()
}

func (r *Retry) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	operation := func() (*CompletionResponse, error) {
		resp, err := r.underlying.Complete(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			slog.DebugContext(ctx, "llm completion failed, retrying", "model", r.underlying.Model(), "error", err)
			return nil, err
		}
		return resp, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.interval)),
		backoff.WithMaxTries(uint(r.maxAttempts)),
	)
}
