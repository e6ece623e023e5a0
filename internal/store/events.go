package store

import (
	"context"
	"time"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// QueryOpts filters event listings. Zero fields match everything.
type QueryOpts struct {
	Limit      int
	Purpose    string
	Subject    string // attempt ID or "type/level"
	FailedOnly bool
	From       time.Time
	To         time.Time
}

// AppendLLMRequest records an LLM API call event.
func (s *Store) AppendLLMRequest(ctx context.Context, ev *models.LLMRequestEvent) error {
	return wrap("append llm request", s.conn(ctx).Create(ev).Error)
}

// ListLLMRequests returns LLM request events, newest first.
func (s *Store) ListLLMRequests(ctx context.Context, opts QueryOpts) ([]models.LLMRequestEvent, error) {
	q := s.conn(ctx).Omit("request_body", "response_body")
	if opts.Purpose != "" {
		q = q.Where("purpose = ?", opts.Purpose)
	}
	if opts.Subject != "" {
		q = q.Where("subject = ?", opts.Subject)
	}
	if opts.FailedOnly {
		q = q.Where("success = ?", false)
	}
	if !opts.From.IsZero() {
		q = q.Where("created_at >= ?", opts.From)
	}
	if !opts.To.IsZero() {
		q = q.Where("created_at <= ?", opts.To)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	var out []models.LLMRequestEvent
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, wrap("list llm requests", err)
	}
	return out, nil
}

// GetLLMRequest loads one event including its bodies.
func (s *Store) GetLLMRequest(ctx context.Context, id string) (*models.LLMRequestEvent, error) {
	var ev models.LLMRequestEvent
	if err := s.conn(ctx).First(&ev, "id = ?", id).Error; err != nil {
		return nil, wrap("get llm request", err)
	}
	return &ev, nil
}

// LLMUsageStats aggregates LLM calls for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int
}

// LLMModelUsage aggregates LLM calls for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// LLMUsageByPurpose sums recorded LLM calls per purpose.
func (s *Store) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	var out []LLMUsageStats
	err := s.conn(ctx).Model(&models.LLMRequestEvent{}).
		Select("purpose, COUNT(*) AS calls, " +
			"COALESCE(SUM(input_tokens), 0) AS input_tokens, " +
			"COALESCE(SUM(output_tokens), 0) AS output_tokens, " +
			"CAST(COALESCE(AVG(latency_ms), 0) AS INTEGER) AS avg_latency_ms").
		Group("purpose").
		Order("purpose").
		Scan(&out).Error
	if err != nil {
		return nil, wrap("llm usage by purpose", err)
	}
	return out, nil
}

// LLMUsageByModel sums recorded LLM calls per model.
func (s *Store) LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error) {
	var out []LLMModelUsage
	err := s.conn(ctx).Model(&models.LLMRequestEvent{}).
		Select("model, COUNT(*) AS calls, " +
			"COALESCE(SUM(input_tokens), 0) AS input_tokens, " +
			"COALESCE(SUM(output_tokens), 0) AS output_tokens").
		Group("model").
		Order("model").
		Scan(&out).Error
	if err != nil {
		return nil, wrap("llm usage by model", err)
	}
	return out, nil
}
