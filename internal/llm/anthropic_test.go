package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func messageReply(text, stop string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": stop,
			"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
		})
	}
}

func messageError(status int, errType string, header http.Header) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for k, v := range header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": errType, "message": errType},
		})
	}
}

func TestAnthropicProvider_HappyPath(t *testing.T) {
	var sent struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
	}
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&sent)
		messageReply(`{"overall_score":6,"strengths":"Good greeting."}`, "end_turn")(w, r)
	})

	resp, err := p.Generate(context.Background(), Request{
		System:   "You are an English tutor.",
		Messages: []Message{{Role: RoleUser, Content: "Score this letter."}},
		Schema:   essayScoreSchema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.TotalTokens != 80 {
		t.Fatalf("expected 80 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if resp.StopReason != StopEnd {
		t.Fatalf("expected stop reason %q, got %q", StopEnd, resp.StopReason)
	}
	if sent.Model != "claude-haiku-4-5-20251001" {
		t.Fatalf("friendly model name not resolved: %q", sent.Model)
	}
	if sent.MaxTokens != anthropicMaxTokens {
		t.Fatalf("expected default max tokens, got %d", sent.MaxTokens)
	}
	if len(sent.System) != 1 || sent.System[0].Text != "You are an English tutor." {
		t.Fatalf("unexpected system %+v", sent.System)
	}
}

func TestAnthropicProvider_RateLimitCarriesRetryAfter(t *testing.T) {
	var calls atomic.Int32
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		messageError(http.StatusTooManyRequests, "rate_limit_error", http.Header{"Retry-After": {"7"}})(w, r)
	})

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "test"}}})
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindRateLimited {
		t.Fatalf("expected rate limit, got %T (%v)", err, err)
	}
	if e.RetryAfter != 7*time.Second {
		t.Fatalf("retry after = %s", e.RetryAfter)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("the SDK must not retry on its own, got %d calls", n)
	}
}

func TestAnthropicProvider_ReplyFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    Kind
	}{
		{"server error", messageError(http.StatusInternalServerError, "api_error", nil), KindUnavailable},
		{"bad key", messageError(http.StatusUnauthorized, "authentication_error", nil), KindRejected},
		{"truncated", messageReply(`{"overall_score":6,"stre`, "max_tokens"), KindTruncated},
		{"refusal", messageReply(`I can't help with that.`, "refusal"), KindRejected},
		{"prose instead of JSON", messageReply(`Great essay!`, "end_turn"), KindInvalidOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestAnthropicProvider(t, tt.handler)
			_, err := p.Generate(context.Background(), Request{
				Messages: []Message{{Role: RoleUser, Content: "test"}},
				Schema:   essayScoreSchema,
			})
			if KindOf(err) != tt.want {
				t.Fatalf("kind = %q, want %q (%v)", KindOf(err), tt.want, err)
			}
		})
	}
}

func TestAnthropicModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"claude-sonnet", "claude-sonnet-4-20250514"},
		{"claude-haiku", "claude-haiku-4-5-20251001"},
		{"claude-sonnet-4-20250514", "claude-sonnet-4-20250514"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, anthropicModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
