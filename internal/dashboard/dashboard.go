// Package dashboard assembles the read-side views: dashboard, progress and
// leaderboard.
package dashboard

import (
	"context"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/stats"
	"github.com/aniketthapawork/ai-tutor/internal/store"
	"github.com/aniketthapawork/ai-tutor/internal/streak"
)

// View sizes.
const (
	RecentAttempts          = 5
	DashboardLeaderboard    = 10
	DashboardAchievements   = 3
	HistoryDays             = 30
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// StreakSummary describes a user's streak for display.
type StreakSummary struct {
	// Current is 0 once the streak has lapsed, even before the next
	// activity resets it.
	Current      int              `json:"current"`
	ActiveToday  bool             `json:"activeToday"`
	LastActivity *time.Time       `json:"lastActivity"`
	Next         streak.Milestone `json:"nextMilestone"`
	DaysToNext   int              `json:"daysToNext"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank            int     `json:"rank"`
	UserID          string  `json:"userId"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	ProfileImageURL *string `json:"profileImageUrl"`
	TotalPoints     int     `json:"totalPoints"`
	CurrentStreak   int     `json:"currentStreak"`
}

// RecentAttempt is an attempt with its test and feedback.
type RecentAttempt struct {
	Attempt  models.TestAttempt `json:"attempt"`
	Test     *models.Test       `json:"test"`
	Feedback *models.AIFeedback `json:"feedback"`
}

// Dashboard is the landing view.
type Dashboard struct {
	User           *models.User         `json:"user"`
	Stats          stats.Summary        `json:"stats"`
	RecentAttempts []RecentAttempt      `json:"recentAttempts"`
	Leaderboard    []LeaderboardEntry   `json:"leaderboard"`
	Achievements   []models.Achievement `json:"achievements"`
	Rank           int                  `json:"rank"`
	Streak         StreakSummary        `json:"streak"`
}

// Progress is the progress view.
type Progress struct {
	Stats         stats.Summary          `json:"stats"`
	StreakHistory []models.DailyActivity `json:"streakHistory"`
	Achievements  []models.Achievement   `json:"achievements"`
	Streak        StreakSummary          `json:"streak"`
}

// Service builds views.
type Service struct {
	store  *store.Store
	stats  *stats.Aggregator
	engine *streak.Engine
	now    func() time.Time
}

// NewService creates a Service.
func NewService(s *store.Store, engine *streak.Engine) *Service {
	return &Service{store: s, stats: stats.NewAggregator(s), engine: engine, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Dashboard loads the dashboard of userID. Its parts are read concurrently.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	var (
		d        Dashboard
		attempts []models.TestAttempt
		leaders  []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.User, err = s.store.GetUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.Stats, err = s.stats.Compute(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		attempts, err = s.store.ListAttempts(gctx, userID, RecentAttempts)
		return err
	})
	g.Go(func() (err error) {
		leaders, err = s.store.Leaderboard(gctx, DashboardLeaderboard)
		return err
	})
	g.Go(func() (err error) {
		d.Achievements, err = s.store.ListAchievements(gctx, userID, DashboardAchievements)
		return err
	})
	g.Go(func() (err error) {
		d.Rank, err = s.store.UserRank(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.RecentAttempts = lo.Map(attempts, func(a models.TestAttempt, _ int) RecentAttempt {
		ra := RecentAttempt{Attempt: a, Test: a.Test, Feedback: a.Feedback}
		ra.Attempt.Test, ra.Attempt.Feedback = nil, nil
		return ra
	})
	d.Leaderboard = rank(leaders, 1)
	d.Streak = s.summary(d.User)
	return &d, nil
}

// Progress loads the progress view of userID with the last HistoryDays of
// daily activity.
func (s *Service) Progress(ctx context.Context, userID string) (*Progress, error) {
	var (
		p    Progress
		user *models.User
	)
	since := s.engine.DayKey(s.now().AddDate(0, 0, -(HistoryDays - 1)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p.Stats, err = s.stats.Compute(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		p.StreakHistory, err = s.store.ListDailyActivity(gctx, userID, since)
		return err
	})
	g.Go(func() (err error) {
		p.Achievements, err = s.store.ListAchievements(gctx, userID, 0)
		return err
	})
	g.Go(func() (err error) {
		user, err = s.store.GetUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.Streak = s.summary(user)
	return &p, nil
}

// Leaderboard returns the top users. A non-positive limit uses the default;
// limits above MaxLeaderboardLimit are capped.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	limit = min(limit, MaxLeaderboardLimit)
	users, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	return rank(users, 1), nil
}

// Stats computes the statistics of userID.
func (s *Service) Stats(ctx context.Context, userID string) (stats.Summary, error) {
	return s.stats.Compute(ctx, userID)
}

func (s *Service) summary(u *models.User) StreakSummary {
	now := s.now()
	st := streak.State{Current: u.CurrentStreak, LastActivity: u.LastActivityDate}
	current := s.engine.Effective(st, now)
	next := streak.NextMilestone(current)
	return StreakSummary{
		Current:      current,
		ActiveToday:  s.engine.ActiveToday(st, now),
		LastActivity: u.LastActivityDate,
		Next:         next,
		DaysToNext:   next.Days - current,
	}
}

func rank(users []models.User, first int) []LeaderboardEntry {
	return lo.Map(users, func(u models.User, i int) LeaderboardEntry {
		return LeaderboardEntry{
			Rank:            first + i,
			UserID:          u.ID,
			FirstName:       u.FirstName,
			LastName:        u.LastName,
			ProfileImageURL: u.ProfileImageURL,
			TotalPoints:     u.TotalPoints,
			CurrentStreak:   u.CurrentStreak,
		}
	})
}
