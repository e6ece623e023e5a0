package llm

import (
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterTitle   = "AI Tutor"
)

// NewOpenRouterProvider creates a provider for the OpenRouter API, which
// speaks the OpenAI chat protocol. Model IDs such as
// "google/gemini-2.0-flash-exp" pass through unchanged, and requests carry
// OpenRouter's app attribution headers.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	if config.BaseURL == "" {
		config.BaseURL = defaultOpenRouterBaseURL
	}

	headers := http.Header{}
	title := cfg.Title
	if title == "" {
		title = defaultOpenRouterTitle
	}
	headers.Set("X-Title", title)
	if cfg.Referer != "" {
		headers.Set("HTTP-Referer", cfg.Referer)
	}
	config.HTTPClient = &http.Client{
		Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
	}

	return newChatProvider(ProviderOpenRouter, config, cfg.Model), nil
}
