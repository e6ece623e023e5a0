// Package attempt implements test submission: scoring, persistence, AI
// feedback and reward crediting.
package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/aniketthapawork/ai-tutor/internal/activity"
	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/feedback"
	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/scoring"
	"github.com/aniketthapawork/ai-tutor/internal/store"
)

// DefaultFeedbackTimeout bounds one feedback call.
const DefaultFeedbackTimeout = 30 * time.Second

// MaxTimeSpent is the largest accepted time spent, in minutes.
const MaxTimeSpent = 24 * 60

// feedbackGrace covers the store writes that follow a feedback call.
const feedbackGrace = 5 * time.Second

// Metrics receives submission outcomes.
type Metrics interface {
	ObserveSubmission(testType models.TestType, status models.AttemptStatus)
	FeedbackFailed(testType models.TestType)
}

type nopMetrics struct{}

func (nopMetrics) ObserveSubmission(models.TestType, models.AttemptStatus) {}
func (nopMetrics) FeedbackFailed(models.TestType)                          {}

// SubmitRequest is one submission.
type SubmitRequest struct {
	UserID string `validate:"required"`
	TestID string `validate:"required"`
	// AttemptID is an optional client-chosen id. Resubmitting it returns the
	// stored attempt.
	AttemptID string          `validate:"omitempty,uuid"`
	Answers   json.RawMessage `validate:"required"`
	TimeSpent *int            `validate:"omitempty,min=0"`
}

// Submission is the outcome of a submit.
type Submission struct {
	Attempt       *models.TestAttempt  `json:"attempt"`
	Feedback      *models.AIFeedback   `json:"feedback,omitempty"`
	PointsEarned  int                  `json:"pointsEarned"`
	CurrentStreak int                  `json:"currentStreak"`
	Achievements  []models.Achievement `json:"achievements"`
	// Replayed is true when the attempt id had already been submitted.
	Replayed bool `json:"replayed"`
	// Pending is true for a replay that arrived while the first submit was
	// still waiting on feedback. Nothing is credited; the first submit
	// credits the final score.
	Pending bool `json:"pending,omitempty"`
}

// Options configures a Service.
type Options struct {
	FeedbackTimeout time.Duration
	Metrics         Metrics
	Logger          *zap.Logger
}

// Service runs the attempt lifecycle.
type Service struct {
	store    *store.Store
	recorder *activity.Recorder
	feedback feedback.Generator
	validate *validator.Validate
	timeout  time.Duration
	metrics  Metrics
	log      *zap.Logger
	now      func() time.Time
}

// NewService creates a Service.
func NewService(s *store.Store, rec *activity.Recorder, fb feedback.Generator, opts Options) *Service {
	svc := &Service{
		store:    s,
		recorder: rec,
		feedback: fb,
		validate: validator.New(),
		timeout:  opts.FeedbackTimeout,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		now:      time.Now,
	}
	if svc.timeout <= 0 {
		svc.timeout = DefaultFeedbackTimeout
	}
	if svc.metrics == nil {
		svc.metrics = nopMetrics{}
	}
	if svc.log == nil {
		svc.log = zap.NewNop()
	}
	return svc
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Submit scores and stores a submission. Subjective submissions are
// assessed by the feedback generator; if that fails the provisional score
// stands and the submission still succeeds.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation("invalid submission: %v", err)
	}
	if len(req.Answers) == 0 {
		return nil, apperr.Validation("answers are required")
	}
	if req.TimeSpent != nil && *req.TimeSpent > MaxTimeSpent {
		return nil, apperr.Validation("timeSpent must be at most %d minutes", MaxTimeSpent)
	}

	test, err := s.store.GetTest(ctx, req.TestID)
	if err != nil {
		return nil, err
	}

	if req.AttemptID != "" {
		existing, err := s.store.GetAttempt(ctx, req.AttemptID)
		switch {
		case err == nil:
			return s.replay(ctx, req, existing)
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}

	result, err := scoring.Score(test, req.Answers)
	if err != nil {
		return nil, err
	}

	a := &models.TestAttempt{
		ID:          req.AttemptID,
		UserID:      req.UserID,
		TestID:      test.ID,
		Answers:     datatypes.JSON(req.Answers),
		Score:       scoring.Round1(result.Score),
		Status:      models.AttemptFinalized,
		TimeSpent:   req.TimeSpent,
		CompletedAt: s.now().UTC(),
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if result.Provisional {
		a.Status = models.AttemptProvisional
	}

	created, err := s.store.CreateAttempt(ctx, a)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost a race with a concurrent submit of the same id.
		existing, err := s.store.GetAttempt(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return s.replay(ctx, req, existing)
	}

	sub := &Submission{Attempt: a}
	if a.Status == models.AttemptProvisional {
		sub.Feedback = s.assess(ctx, test, a, result.Response)
	}
	s.metrics.ObserveSubmission(test.Type, a.Status)

	if err := s.credit(ctx, sub); err != nil {
		return nil, err
	}
	a.Test = test
	a.Feedback = sub.Feedback
	return sub, nil
}

// replay returns a previously stored attempt, crediting it if an earlier
// submit stopped before doing so. A provisional attempt is only credited
// once its feedback window has passed; before that the first submit may
// still finalize it with a different score.
func (s *Service) replay(ctx context.Context, req SubmitRequest, existing *models.TestAttempt) (*Submission, error) {
	if existing.UserID != req.UserID || existing.TestID != req.TestID {
		return nil, apperr.Conflict("attempt %s belongs to another submission", existing.ID)
	}
	stored, err := s.store.GetUserAttempt(ctx, req.UserID, existing.ID)
	if err != nil {
		return nil, err
	}
	sub := &Submission{Attempt: stored, Feedback: stored.Feedback, Replayed: true}
	if s.feedbackPending(stored) {
		sub.Pending = true
		sub.Achievements = []models.Achievement{}
	} else if err := s.credit(ctx, sub); err != nil {
		return nil, err
	}
	if sub.CurrentStreak == 0 {
		u, err := s.store.GetUser(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		sub.CurrentStreak = u.CurrentStreak
	}
	return sub, nil
}

// feedbackPending reports whether a submit may still be assessing a.
func (s *Service) feedbackPending(a *models.TestAttempt) bool {
	if a.Status != models.AttemptProvisional || a.Rewarded {
		return false
	}
	return s.now().Before(a.CompletedAt.Add(s.timeout + feedbackGrace))
}

// assess runs the feedback generator under the feedback timeout and
// finalizes the attempt in place on success. Failures are logged and
// counted, never returned.
func (s *Service) assess(ctx context.Context, test *models.Test, a *models.TestAttempt, response string) *models.AIFeedback {
	fctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content := test.Content.Data()
	res, err := s.feedback.Assess(fctx, feedback.Request{
		AttemptID:    a.ID,
		TestType:     test.Type,
		Level:        test.Level,
		Prompt:       content.Prompt,
		Instructions: content.Instructions,
		Response:     response,
	})
	if err != nil {
		s.feedbackFailed(test, a, err)
		return nil
	}

	fb := res.Model(a.ID)
	err = s.store.Atomically(ctx, func(tx *store.Store) error {
		if _, err := tx.FinalizeAttempt(ctx, a.ID, fb.OverallScore); err != nil {
			return err
		}
		_, err := tx.InsertFeedback(ctx, fb)
		return err
	})
	if err != nil {
		s.feedbackFailed(test, a, err)
		return nil
	}

	a.Score = fb.OverallScore
	a.Status = models.AttemptFinalized
	return fb
}

func (s *Service) feedbackFailed(test *models.Test, a *models.TestAttempt, err error) {
	s.log.Warn("feedback failed, keeping provisional score",
		zap.String("attempt_id", a.ID),
		zap.String("test_type", string(test.Type)),
		zap.Float64("score", a.Score),
		zap.Error(err),
	)
	s.metrics.FeedbackFailed(test.Type)
}

// credit records the attempt's activity and points. It is a no-op for an
// attempt that was already credited.
func (s *Service) credit(ctx context.Context, sub *Submission) error {
	a := sub.Attempt
	score := a.Score
	points := scoring.Points(score)
	res, err := s.recorder.Record(ctx, activity.Entry{
		UserID:      a.UserID,
		AttemptID:   a.ID,
		Activities:  1,
		Points:      points,
		Score:       &score,
		CreditTotal: true,
	})
	if err != nil {
		return err
	}
	if res.Applied {
		a.PointsEarned = points
		a.Rewarded = true
		sub.CurrentStreak = res.CurrentStreak
		sub.Achievements = res.Achievements
	}
	sub.PointsEarned = a.PointsEarned
	if sub.Achievements == nil {
		sub.Achievements = []models.Achievement{}
	}
	return nil
}

// History returns the user's most recent attempts, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]models.TestAttempt, error) {
	return s.store.ListAttempts(ctx, userID, limit)
}

// Feedback returns the AI feedback of one of the user's attempts.
func (s *Service) Feedback(ctx context.Context, userID, attemptID string) (*models.AIFeedback, error) {
	a, err := s.store.GetUserAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Feedback == nil {
		return nil, apperr.NotFound("feedback", attemptID)
	}
	return a.Feedback, nil
}
