package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func failure(kind Kind) MockResponse {
	return MockResponse{Err: &Error{Kind: kind, Provider: "test", Err: errors.New(string(kind))}}
}

var okReply = MockResponse{Content: json.RawMessage(`{"overall_score":7}`)}

func TestRetry_Policy(t *testing.T) {
	tests := []struct {
		name      string
		script    []MockResponse
		wantCalls int
		wantKind  Kind
	}{
		{"first attempt succeeds", []MockResponse{okReply}, 1, ""},
		{"unavailable then success", []MockResponse{failure(KindUnavailable), okReply}, 2, ""},
		{"rate limited then success", []MockResponse{failure(KindRateLimited), okReply}, 2, ""},
		{"gives up after max attempts", []MockResponse{failure(KindUnavailable), failure(KindUnavailable), failure(KindUnavailable), okReply}, 3, KindUnavailable},
		{"invalid output retried once", []MockResponse{failure(KindInvalidOutput), failure(KindInvalidOutput), okReply}, 2, KindInvalidOutput},
		{"truncated not retried", []MockResponse{failure(KindTruncated), okReply}, 1, KindTruncated},
		{"rejected not retried", []MockResponse{failure(KindRejected), okReply}, 1, KindRejected},
		{"timeout not retried", []MockResponse{failure(KindTimeout), okReply}, 1, KindTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.script...)
			_, err := WithRetry(mock, fastRetry(), nil).Generate(context.Background(), Request{})

			if got := mock.CallCount(); got != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", got, tt.wantCalls)
			}
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if KindOf(err) != tt.wantKind {
				t.Fatalf("kind = %q, want %q (%v)", KindOf(err), tt.wantKind, err)
			}
		})
	}
}

func TestRetry_CancelledContextStops(t *testing.T) {
	mock := NewMockProvider(failure(KindUnavailable), failure(KindUnavailable), okReply)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(mock, fastRetry(), nil).Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindRateLimited, RetryAfter: 5 * time.Millisecond}},
		okReply,
	)
	start := time.Now()
	if _, err := WithRetry(mock, fastRetry(), nil).Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Fatal("retry did not wait for Retry-After")
	}
}

func TestRetry_DoesNotSleepPastDeadline(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindRateLimited, RetryAfter: time.Minute}},
		okReply,
	)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := WithRetry(mock, fastRetry(), nil).Generate(ctx, Request{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected the rate limit to be returned, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("retry slept past the caller's deadline")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_BackoffIsCapped(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: 200 * time.Millisecond, Multiplier: 10}}
	for attempt := range 4 {
		if wait := r.backoff(attempt, errors.New("x")); wait > 240*time.Millisecond {
			t.Fatalf("attempt %d waited %s, above the cap plus jitter", attempt, wait)
		}
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	p := WithRetry(NewMockProvider(), fastRetry(), nil)
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
}
