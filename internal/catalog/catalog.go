// Package catalog serves learning content: modules with per-user progress
// and tests, including LLM-generated ones.
package catalog

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/scoring"
	"github.com/aniketthapawork/ai-tutor/internal/store"
	"github.com/aniketthapawork/ai-tutor/internal/testgen"
)

// GenerationMetrics receives test generation outcomes.
type GenerationMetrics interface {
	TestGenerated(testType models.TestType, ok bool)
}

type nopMetrics struct{}

func (nopMetrics) TestGenerated(models.TestType, bool) {}

// ModuleView is a module merged with the user's progress on it.
type ModuleView struct {
	models.Module
	Completed bool     `json:"completed"`
	Score     *float64 `json:"score"`
}

// ProgressUpdate is a module progress submission.
type ProgressUpdate struct {
	Completed bool
	Score     *float64
}

// Service serves the catalog.
type Service struct {
	store     *store.Store
	generator testgen.Generator
	metrics   GenerationMetrics
	log       *zap.Logger
	now       func() time.Time
}

// NewService creates a Service. generator may be nil, in which case
// GenerateTest fails.
func NewService(s *store.Store, generator testgen.Generator, metrics GenerationMetrics, log *zap.Logger) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, generator: generator, metrics: metrics, log: log, now: time.Now}
}

// Modules lists modules, optionally for one level, with the user's
// completion state.
func (s *Service) Modules(ctx context.Context, userID string, level models.Level) ([]ModuleView, error) {
	mods, err := s.store.ListModules(ctx, level)
	if err != nil {
		return nil, err
	}
	progress, err := s.store.ListModuleProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	byModule := lo.KeyBy(progress, func(p models.ModuleProgress) string { return p.ModuleID })

	return lo.Map(mods, func(m models.Module, _ int) ModuleView {
		v := ModuleView{Module: m}
		if p, ok := byModule[m.ID]; ok {
			v.Completed = p.Completed
			v.Score = p.Score
		}
		return v
	}), nil
}

// ModulesByLevel validates raw and lists that level's modules.
func (s *Service) ModulesByLevel(ctx context.Context, userID, raw string) ([]ModuleView, error) {
	level, err := models.ParseLevel(raw)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	return s.Modules(ctx, userID, level)
}

// UpdateProgress records the user's progress on a module. Scores are
// clamped into [0, 10].
func (s *Service) UpdateProgress(ctx context.Context, userID, moduleID string, u ProgressUpdate) (*models.ModuleProgress, error) {
	if _, err := s.store.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}
	score := u.Score
	if score != nil {
		v := scoring.Normalize(*score)
		score = &v
	}
	return s.store.UpsertModuleProgress(ctx, userID, moduleID, u.Completed, score, s.now())
}

// Tests lists tests matching f, newest first.
func (s *Service) Tests(ctx context.Context, f store.TestFilter) ([]models.Test, error) {
	return s.store.ListTests(ctx, f)
}

// TestsByType validates raw and lists tests of that type.
func (s *Service) TestsByType(ctx context.Context, raw string) ([]models.Test, error) {
	t, err := models.ParseTestType(raw)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	return s.store.ListTests(ctx, store.TestFilter{Type: t})
}

// TestsByLevel validates raw and lists tests of that level.
func (s *Service) TestsByLevel(ctx context.Context, raw string) ([]models.Test, error) {
	l, err := models.ParseLevel(raw)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	return s.store.ListTests(ctx, store.TestFilter{Level: l})
}

// Test returns one test.
func (s *Service) Test(ctx context.Context, id string) (*models.Test, error) {
	return s.store.GetTest(ctx, id)
}

// GenerateRequest asks for a new test.
type GenerateRequest struct {
	Type  string
	Level string
	Count int
}

// GenerateTest generates and stores a test. Nothing is stored when
// generation fails.
func (s *Service) GenerateTest(ctx context.Context, r GenerateRequest) (*models.Test, error) {
	t, err := models.ParseTestType(r.Type)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	l, err := models.ParseLevel(r.Level)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if r.Count < 0 {
		return nil, apperr.Validation("count must not be negative")
	}
	if s.generator == nil {
		return nil, apperr.GenerationFailed("generate test", errGeneratorDisabled)
	}

	existing, err := s.store.ListTests(ctx, store.TestFilter{Type: t, Level: l})
	if err != nil {
		return nil, err
	}
	avoid := lo.Map(existing, func(x models.Test, _ int) string {
		c := x.Content.Data()
		if c.Passage != "" {
			return c.Passage
		}
		return c.Prompt
	})

	test, err := s.generator.Generate(ctx, testgen.Request{Type: t, Level: l, Count: r.Count, Avoid: avoid})
	s.metrics.TestGenerated(t, err == nil)
	if err != nil {
		s.log.Warn("test generation failed",
			zap.String("type", string(t)),
			zap.String("level", string(l)),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.store.CreateTest(ctx, test); err != nil {
		return nil, err
	}
	s.log.Info("test generated",
		zap.String("test_id", test.ID),
		zap.String("type", string(t)),
		zap.String("level", string(l)),
		zap.Int("questions", len(test.Content.Data().Questions)),
	)
	return test, nil
}
