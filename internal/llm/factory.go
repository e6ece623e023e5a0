package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Deps are the optional collaborators of a configured provider.
type Deps struct {
	Recorder EventRecorder
	Observer Observer
	Logger   *zap.Logger
}

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout, retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, deps Deps) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → timeout → retry → logging → base
	logged := WithLogging(base, cfg.Provider, deps.Recorder, deps.Observer, deps.Logger)
	retried := WithRetry(logged, cfg.Retry, deps.Logger)

	return WithTimeout(retried, cfg.Timeout), nil
}
