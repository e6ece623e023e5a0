// Package activity records learning activity: streak, daily history,
// points and achievements, applied atomically per user.
package activity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aniketthapawork/ai-tutor/internal/achievements"
	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/store"
	"github.com/aniketthapawork/ai-tutor/internal/streak"
)

// Entry is one activity to record.
type Entry struct {
	UserID string
	// AttemptID, when set, ties the entry to a test attempt. The entry is
	// applied at most once per attempt.
	AttemptID  string
	Activities int
	Points     int
	// Score is the attempt's final score, nil for plain activity.
	Score *float64
	// CreditTotal adds Points to the user's total.
	CreditTotal bool
}

// Result is the outcome of recording an entry.
type Result struct {
	// Applied is false when the attempt had already been credited.
	Applied       bool                 `json:"applied"`
	CurrentStreak int                  `json:"currentStreak"`
	PointsAdded   int                  `json:"pointsAdded"`
	Achievements  []models.Achievement `json:"achievements"`
}

// Recorder applies entries.
type Recorder struct {
	store  *store.Store
	engine *streak.Engine
	locks  keyedMutex
	now    func() time.Time
	log    *zap.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(s *store.Store, engine *streak.Engine, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: s, engine: engine, now: time.Now, log: log}
}

// SetClock overrides the time source.
func (r *Recorder) SetClock(now func() time.Time) {
	r.now = now
}

// Record applies e in one transaction: reward claim, streak update, daily
// history upsert, points and achievements. Entries for the same user are
// serialized.
func (r *Recorder) Record(ctx context.Context, e Entry) (Result, error) {
	if e.UserID == "" {
		return Result{}, apperr.Unauthorized("missing user")
	}
	if e.Activities < 0 || e.Points < 0 {
		return Result{}, apperr.Validation("activities and points must not be negative")
	}

	unlock := r.locks.Lock(e.UserID)
	defer unlock()

	now := r.now()
	var res Result
	err := r.store.Atomically(ctx, func(tx *store.Store) error {
		if e.AttemptID != "" {
			claimed, err := tx.ClaimReward(ctx, e.AttemptID, e.Points)
			if err != nil {
				return err
			}
			if !claimed {
				return nil
			}
		}
		res.Applied = true

		u, err := tx.LockUser(ctx, e.UserID)
		if err != nil {
			return err
		}

		before := streak.State{Current: u.CurrentStreak, LastActivity: u.LastActivityDate}
		after := r.engine.Update(before, now)
		if err := tx.SetStreak(ctx, e.UserID, after.Current, now); err != nil {
			return err
		}
		res.CurrentStreak = after.Current

		if err := tx.AddDailyActivity(ctx, e.UserID, r.engine.DayKey(now), e.Activities, e.Points); err != nil {
			return err
		}

		if e.CreditTotal {
			if err := tx.AddPoints(ctx, e.UserID, e.Points); err != nil {
				return err
			}
			res.PointsAdded = e.Points
		}

		in := achievements.Input{StreakBefore: before.Current, StreakAfter: after.Current, Score: e.Score}
		if e.Score != nil {
			if in.TestsCompleted, err = tx.CountAttempts(ctx, e.UserID); err != nil {
				return err
			}
		}
		for _, aw := range achievements.Evaluate(in) {
			a := models.Achievement{
				UserID:      e.UserID,
				Type:        aw.Type,
				Title:       aw.Title,
				Description: aw.Description,
				EarnedAt:    now.UTC(),
			}
			granted, err := tx.GrantAchievement(ctx, &a)
			if err != nil {
				return err
			}
			if granted {
				res.Achievements = append(res.Achievements, a)
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Applied {
		r.log.Debug("activity recorded",
			zap.String("user_id", e.UserID),
			zap.String("attempt_id", e.AttemptID),
			zap.Int("streak", res.CurrentStreak),
			zap.Int("points", res.PointsAdded),
			zap.Int("achievements", len(res.Achievements)),
		)
	}
	return res, nil
}

// Logged is the outcome of LogActivity.
type Logged struct {
	Activity     *models.DailyActivity `json:"activity"`
	User         *models.User          `json:"user"`
	Achievements []models.Achievement  `json:"achievements"`
}

// LogActivity records activity not tied to an attempt. It updates the
// streak and the day's history but not the user's total points.
func (r *Recorder) LogActivity(ctx context.Context, userID string, activities, points int) (*Logged, error) {
	now := r.now()
	res, err := r.Record(ctx, Entry{UserID: userID, Activities: activities, Points: points})
	if err != nil {
		return nil, err
	}
	day, err := r.store.GetDailyActivity(ctx, userID, r.engine.DayKey(now))
	if err != nil {
		return nil, err
	}
	u, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &Logged{Activity: day, User: u, Achievements: res.Achievements}
	if out.Achievements == nil {
		out.Achievements = []models.Achievement{}
	}
	return out, nil
}
