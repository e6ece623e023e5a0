package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// AddDailyActivity accumulates activity into the user's row for day,
// creating it if needed.
func (s *Store) AddDailyActivity(ctx context.Context, userID, day string, activities, points int) error {
	row := models.DailyActivity{
		UserID:              userID,
		Day:                 day,
		ActivitiesCompleted: activities,
		PointsEarned:        points,
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"activities_completed": gorm.Expr("streak_history.activities_completed + excluded.activities_completed"),
			"points_earned":        gorm.Expr("streak_history.points_earned + excluded.points_earned"),
		}),
	}).Create(&row).Error
	return wrap("add daily activity", err)
}

// GetDailyActivity loads the user's row for day.
func (s *Store) GetDailyActivity(ctx context.Context, userID, day string) (*models.DailyActivity, error) {
	var row models.DailyActivity
	if err := s.conn(ctx).First(&row, "user_id = ? AND day = ?", userID, day).Error; err != nil {
		return nil, wrap("get daily activity", err)
	}
	return &row, nil
}

// ListDailyActivity returns a user's rows from sinceDay (inclusive), newest
// first.
func (s *Store) ListDailyActivity(ctx context.Context, userID, sinceDay string) ([]models.DailyActivity, error) {
	var rows []models.DailyActivity
	err := s.conn(ctx).
		Where("user_id = ? AND day >= ?", userID, sinceDay).
		Order("day DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("list daily activity", err)
	}
	return rows, nil
}

// GrantAchievement stores an achievement unless the user already has it.
// It reports whether it was newly granted.
func (s *Store) GrantAchievement(ctx context.Context, a *models.Achievement) (bool, error) {
	if a.EarnedAt.IsZero() {
		a.EarnedAt = time.Now().UTC()
	}
	res := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}, {Name: "title"}},
		DoNothing: true,
	}).Create(a)
	if res.Error != nil {
		return false, wrap("grant achievement", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListAchievements returns a user's achievements, newest first. A
// non-positive limit returns all.
func (s *Store) ListAchievements(ctx context.Context, userID string, limit int) ([]models.Achievement, error) {
	q := s.conn(ctx).Where("user_id = ?", userID).Order("earned_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Achievement
	if err := q.Find(&out).Error; err != nil {
		return nil, wrap("list achievements", err)
	}
	return out, nil
}
