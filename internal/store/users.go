package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// Profile is the identity information supplied by the authentication gate.
type Profile struct {
	ID              string
	Email           *string
	FirstName       *string
	LastName        *string
	ProfileImageURL *string
}

// UpsertUser creates the user or updates the profile fields p sets. Nil
// fields keep their stored value and counters are never touched.
func (s *Store) UpsertUser(ctx context.Context, p Profile) (*models.User, error) {
	u := models.User{
		ID:              p.ID,
		Email:           p.Email,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		ProfileImageURL: p.ProfileImageURL,
		CurrentLevel:    models.LevelBeginner,
	}
	cols := []string{"updated_at"}
	for _, f := range []struct {
		col string
		v   *string
	}{
		{"email", p.Email},
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"profile_image_url", p.ProfileImageURL},
	} {
		if f.v != nil {
			cols = append(cols, f.col)
		}
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&u).Error
	if err != nil {
		return nil, wrap("upsert user", err)
	}
	return s.GetUser(ctx, p.ID)
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap("get user", err)
	}
	return &u, nil
}

// LockUser loads a user for update. Row locks are taken on PostgreSQL;
// SQLite transactions are already serialized.
func (s *Store) LockUser(ctx context.Context, id string) (*models.User, error) {
	q := s.conn(ctx)
	if s.driver == DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var u models.User
	if err := q.First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap("lock user", err)
	}
	return &u, nil
}

// SetStreak stores the streak state of a user.
func (s *Store) SetStreak(ctx context.Context, id string, current int, lastActivity time.Time) error {
	err := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"current_streak":     current,
		"last_activity_date": lastActivity,
	}).Error
	return wrap("set streak", err)
}

// AddPoints atomically increments a user's total points.
func (s *Store) AddPoints(ctx context.Context, id string, points int) error {
	if points <= 0 {
		return nil
	}
	err := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("total_points", gorm.Expr("total_points + ?", points)).Error
	return wrap("add points", err)
}

// Leaderboard returns users ordered by points then streak.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.conn(ctx).
		Order("total_points DESC").
		Order("current_streak DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, wrap("leaderboard", err)
	}
	return users, nil
}

// UserRank returns the 1-based leaderboard position of a user: one more
// than the number of users ordered before it by Leaderboard.
func (s *Store) UserRank(ctx context.Context, id string) (int, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return 0, err
	}
	var ahead int64
	err = s.conn(ctx).Model(&models.User{}).
		Where("total_points > ?", u.TotalPoints).
		Or("total_points = ? AND current_streak > ?", u.TotalPoints, u.CurrentStreak).
		Or("total_points = ? AND current_streak = ? AND created_at < ?", u.TotalPoints, u.CurrentStreak, u.CreatedAt).
		Or("total_points = ? AND current_streak = ? AND created_at = ? AND id < ?", u.TotalPoints, u.CurrentStreak, u.CreatedAt, u.ID).
		Count(&ahead).Error
	if err != nil {
		return 0, wrap("user rank", err)
	}
	return int(ahead) + 1, nil
}
