package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimeoutProvider bounds every request, retries included, by a fixed
// duration.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider with a per-request deadline. A non-positive
// timeout disables the bound.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		resp *Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := t.inner.Generate(ctx, req)
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, t.expired(r.err)
		}
		return r.resp, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, t.expired(ctx.Err())
		}
		return nil, ctx.Err()
	}
}

func (t *TimeoutProvider) expired(cause error) error {
	return &Error{Kind: KindTimeout, Err: fmt.Errorf("after %s: %w", t.timeout, cause)}
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
