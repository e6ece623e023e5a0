package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryProvider retries transient failures with exponential backoff and
// jitter. It never sleeps past the caller's deadline.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	log    *zap.Logger
}

// WithRetry wraps a Provider with retry logic. log may be nil.
func WithRetry(p Provider, cfg RetryConfig, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &RetryProvider{inner: p, config: cfg, log: log}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	invalidRetried := false

	attempts := max(r.config.MaxAttempts, 1)
	for attempt := range attempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err, &invalidRetried) || attempt == attempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			break
		}
		r.log.Debug("retrying llm request",
			zap.String("purpose", string(CallFrom(ctx).Purpose)),
			zap.Int("attempt", attempt+1),
			zap.String("kind", string(KindOf(err))),
			zap.Duration("wait", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether err is worth another attempt. Malformed output
// gets a single retry; refusals, truncation and timeouts get none.
func retryable(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch KindOf(err) {
	case KindRejected, KindTruncated, KindTimeout:
		return false
	case KindInvalidOutput:
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
	}
	return true
}

// backoff computes the wait before the retry after attempt.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		return e.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = min(wait, float64(r.config.MaxWait))
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(wait, 0))
}
