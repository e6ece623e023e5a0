package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// EventRecorder persists LLM request events.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, ev *models.LLMRequestEvent) error
}

// Observer receives per-call latency, e.g. for metrics.
type Observer interface {
	ObserveLLMCall(purpose string, latency time.Duration, success bool)
}

// LoggingProvider is a decorator that logs and records every LLM request.
type LoggingProvider struct {
	inner    Provider
	provider string
	recorder EventRecorder
	observer Observer
	log      *zap.Logger
}

// WithLogging wraps a Provider with event logging. recorder and observer
// may be nil.
func WithLogging(p Provider, providerName string, recorder EventRecorder, observer Observer, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingProvider{inner: p, provider: providerName, recorder: recorder, observer: observer, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	call := CallFrom(ctx)
	purpose := string(call.Purpose)

	resp, err := l.inner.Generate(ctx, req)

	latency := time.Since(start)

	ev := &models.LLMRequestEvent{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		Subject:     call.Subject,
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.Model = resp.Model
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	fields := []zap.Field{
		zap.String("provider", ev.Provider),
		zap.String("model", ev.Model),
		zap.String("purpose", purpose),
		zap.String("subject", call.Subject),
		zap.Duration("latency", latency),
		zap.Int("input_tokens", ev.InputTokens),
		zap.Int("output_tokens", ev.OutputTokens),
	}
	if cost := LookupCost(ev.Model); cost != nil {
		fields = append(fields, zap.Float64("cost_usd", cost.Cost(ev.InputTokens, ev.OutputTokens)))
	}
	if err != nil {
		fields = append(fields, zap.String("kind", string(KindOf(err))), zap.Error(err))
		l.log.Warn("llm request failed", fields...)
	} else {
		l.log.Debug("llm request", fields...)
	}

	if l.observer != nil {
		l.observer.ObserveLLMCall(purpose, latency, err == nil)
	}

	// Recording failures never fail the request.
	if l.recorder != nil {
		if recErr := l.recorder.AppendLLMRequest(context.WithoutCancel(ctx), ev); recErr != nil {
			l.log.Warn("failed to record llm request event", zap.Error(recErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(schemaDef)
			b.WriteString("\n")
		}
	}

	return b.String()
}
