package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func TestOpenRouterProvider_SendsAttributionHeaders(t *testing.T) {
	var title, referer, auth, model string
	server := newHTTPServer(t, func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("X-Title")
		referer = r.Header.Get("HTTP-Referer")
		auth = r.Header.Get("Authorization")
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		model = body.Model
		chatReply(`{"overall_score":5}`, "stop")(w, r)
	})

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.0-flash-exp",
		BaseURL: server.URL,
		Referer: "https://tutor.example",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}, Schema: essayScoreSchema}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if title != defaultOpenRouterTitle {
		t.Errorf("X-Title = %q", title)
	}
	if referer != "https://tutor.example" {
		t.Errorf("HTTP-Referer = %q", referer)
	}
	if auth != "Bearer sk-or-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if model != "google/gemini-2.0-flash-exp" {
		t.Errorf("model should pass through unchanged, got %q", model)
	}
}

func TestOpenRouterProvider_FailuresNameOpenRouter(t *testing.T) {
	server := newHTTPServer(t, chatError(http.StatusBadGateway, "upstream_error"))
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "meta-llama/llama-3-8b", BaseURL: server.URL, Title: "Tutor CI"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if KindOf(err) != KindUnavailable {
		t.Fatalf("kind = %q (%v)", KindOf(err), err)
	}
	if e := err.(*Error); e.Provider != ProviderOpenRouter {
		t.Fatalf("provider = %q", e.Provider)
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"}); err == nil {
		t.Fatal("expected error for empty API key")
	}

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "anthropic/claude-3-haiku"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "anthropic/claude-3-haiku" {
		t.Errorf("model = %q", p.ModelID())
	}
}
