package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/stats"
)

// CreateAttempt inserts a if no attempt with its id exists. It reports
// whether a row was written.
func (s *Store) CreateAttempt(ctx context.Context, a *models.TestAttempt) (bool, error) {
	res := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if res.Error != nil {
		return false, wrap("create attempt", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// GetAttempt loads an attempt by id.
func (s *Store) GetAttempt(ctx context.Context, id string) (*models.TestAttempt, error) {
	var a models.TestAttempt
	if err := s.conn(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, wrap("get attempt", err)
	}
	return &a, nil
}

// GetUserAttempt loads an attempt owned by userID, with its test and
// feedback.
func (s *Store) GetUserAttempt(ctx context.Context, userID, id string) (*models.TestAttempt, error) {
	var a models.TestAttempt
	err := s.conn(ctx).Preload("Test").Preload("Feedback").
		First(&a, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, wrap("get user attempt", err)
	}
	return &a, nil
}

// FinalizeAttempt replaces a provisional score in place. It reports false
// when the attempt was already finalized.
func (s *Store) FinalizeAttempt(ctx context.Context, id string, score float64) (bool, error) {
	res := s.conn(ctx).Model(&models.TestAttempt{}).
		Where("id = ? AND status = ?", id, models.AttemptProvisional).
		Updates(map[string]any{"score": score, "status": models.AttemptFinalized})
	if res.Error != nil {
		return false, wrap("finalize attempt", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ClaimReward marks an attempt's points as credited. It reports false when
// they already were, so callers credit each attempt at most once.
func (s *Store) ClaimReward(ctx context.Context, id string, points int) (bool, error) {
	res := s.conn(ctx).Model(&models.TestAttempt{}).
		Where("id = ? AND rewarded = ?", id, false).
		Updates(map[string]any{"rewarded": true, "points_earned": points})
	if res.Error != nil {
		return false, wrap("claim reward", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListAttempts returns a user's most recent attempts with their test and
// feedback. A non-positive limit returns all.
func (s *Store) ListAttempts(ctx context.Context, userID string, limit int) ([]models.TestAttempt, error) {
	q := s.conn(ctx).Preload("Test").Preload("Feedback").
		Where("user_id = ?", userID).
		Order("completed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.TestAttempt
	if err := q.Find(&out).Error; err != nil {
		return nil, wrap("list attempts", err)
	}
	return out, nil
}

// CountAttempts counts a user's attempts.
func (s *Store) CountAttempts(ctx context.Context, userID string) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.TestAttempt{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, wrap("count attempts", err)
	}
	return int(n), nil
}

// ListScoredAttempts returns every attempt score of a user with its test
// type.
func (s *Store) ListScoredAttempts(ctx context.Context, userID string) ([]stats.ScoredAttempt, error) {
	var out []stats.ScoredAttempt
	err := s.conn(ctx).Table("test_attempts").
		Select("tests.type AS test_type, test_attempts.score AS score").
		Joins("JOIN tests ON tests.id = test_attempts.test_id").
		Where("test_attempts.user_id = ?", userID).
		Scan(&out).Error
	if err != nil {
		return nil, wrap("list scored attempts", err)
	}
	return out, nil
}

// InsertFeedback stores feedback unless the attempt already has some. It
// reports whether a row was written.
func (s *Store) InsertFeedback(ctx context.Context, f *models.AIFeedback) (bool, error) {
	res := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "test_attempt_id"}},
		DoNothing: true,
	}).Create(f)
	if res.Error != nil {
		return false, wrap("insert feedback", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// GetFeedback loads the feedback of an attempt.
func (s *Store) GetFeedback(ctx context.Context, attemptID string) (*models.AIFeedback, error) {
	var f models.AIFeedback
	if err := s.conn(ctx).First(&f, "test_attempt_id = ?", attemptID).Error; err != nil {
		return nil, wrap("get feedback", err)
	}
	return &f, nil
}

// ListGrammarScores returns the grammar scores of a user's feedback.
func (s *Store) ListGrammarScores(ctx context.Context, userID string) ([]float64, error) {
	var scores []float64
	err := s.conn(ctx).Table("ai_feedback").
		Joins("JOIN test_attempts ON test_attempts.id = ai_feedback.test_attempt_id").
		Where("test_attempts.user_id = ?", userID).
		Pluck("ai_feedback.grammar_score", &scores).Error
	if err != nil {
		return nil, wrap("list grammar scores", err)
	}
	return scores, nil
}
