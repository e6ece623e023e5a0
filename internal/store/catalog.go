package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// ListModules returns modules ordered by level and sequence. An empty level
// lists every module.
func (s *Store) ListModules(ctx context.Context, level models.Level) ([]models.Module, error) {
	q := s.conn(ctx)
	if level != "" {
		q = q.Where("level = ?", level)
	}
	var mods []models.Module
	err := q.Order("CASE level WHEN 'beginner' THEN 0 WHEN 'intermediate' THEN 1 ELSE 2 END").
		Order("sort_order").
		Find(&mods).Error
	if err != nil {
		return nil, wrap("list modules", err)
	}
	return mods, nil
}

// GetModule loads a module by id.
func (s *Store) GetModule(ctx context.Context, id string) (*models.Module, error) {
	var m models.Module
	if err := s.conn(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, wrap("get module", err)
	}
	return &m, nil
}

// UpsertModuleProgress inserts or replaces a user's progress on a module.
// CompletedAt is now when completed, otherwise cleared.
func (s *Store) UpsertModuleProgress(ctx context.Context, userID, moduleID string, completed bool, score *float64, now time.Time) (*models.ModuleProgress, error) {
	p := models.ModuleProgress{
		UserID:    userID,
		ModuleID:  moduleID,
		Completed: completed,
		Score:     score,
	}
	if completed {
		p.CompletedAt = &now
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "score", "completed_at"}),
	}).Create(&p).Error
	if err != nil {
		return nil, wrap("upsert module progress", err)
	}

	var out models.ModuleProgress
	if err := s.conn(ctx).First(&out, "user_id = ? AND module_id = ?", userID, moduleID).Error; err != nil {
		return nil, wrap("reload module progress", err)
	}
	return &out, nil
}

// ListModuleProgress returns a user's progress rows.
func (s *Store) ListModuleProgress(ctx context.Context, userID string) ([]models.ModuleProgress, error) {
	var rows []models.ModuleProgress
	if err := s.conn(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, wrap("list module progress", err)
	}
	return rows, nil
}

// CountCompletedModules counts modules the user has completed.
func (s *Store) CountCompletedModules(ctx context.Context, userID string) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.ModuleProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&n).Error
	if err != nil {
		return 0, wrap("count completed modules", err)
	}
	return int(n), nil
}

// TestFilter narrows ListTests. Zero fields match everything.
type TestFilter struct {
	Type  models.TestType
	Level models.Level
}

// ListTests returns tests matching f, newest first.
func (s *Store) ListTests(ctx context.Context, f TestFilter) ([]models.Test, error) {
	q := s.conn(ctx)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Level != "" {
		q = q.Where("level = ?", f.Level)
	}
	var tests []models.Test
	if err := q.Order("created_at DESC").Find(&tests).Error; err != nil {
		return nil, wrap("list tests", err)
	}
	return tests, nil
}

// GetTest loads a test by id.
func (s *Store) GetTest(ctx context.Context, id string) (*models.Test, error) {
	var t models.Test
	if err := s.conn(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, wrap("get test", err)
	}
	return &t, nil
}

// CreateTest persists a new test.
func (s *Store) CreateTest(ctx context.Context, t *models.Test) error {
	return wrap("create test", s.conn(ctx).Create(t).Error)
}
