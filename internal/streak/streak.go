// Package streak tracks consecutive days of learning activity.
package streak

import "time"

// State is the streak-relevant part of a user.
type State struct {
	Current      int
	LastActivity *time.Time
}

// Engine evaluates streaks on calendar days in a fixed location.
type Engine struct {
	loc *time.Location
}

// NewEngine creates an Engine for loc. A nil loc means UTC.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

// Location returns the engine's calendar location.
func (e *Engine) Location() *time.Location { return e.loc }

// Update applies one activity at now to s.
//
//	same day            -> unchanged
//	next day            -> +1
//	gap of 2+ days/none -> 1
//
// A last activity after now (clock skew) counts as the same day.
// LastActivity always becomes now.
func (e *Engine) Update(s State, now time.Time) State {
	next := State{Current: s.Current, LastActivity: &now}
	if s.LastActivity == nil {
		next.Current = 1
		return next
	}

	switch diff := e.DaysBetween(*s.LastActivity, now); {
	case diff <= 0:
		if next.Current < 1 {
			next.Current = 1
		}
	case diff == 1:
		next.Current = s.Current + 1
	default:
		next.Current = 1
	}
	return next
}

// Effective returns the streak as it should be displayed at now: a streak
// whose last activity is older than yesterday is already broken.
func (e *Engine) Effective(s State, now time.Time) int {
	if s.LastActivity == nil {
		return 0
	}
	if e.DaysBetween(*s.LastActivity, now) > 1 {
		return 0
	}
	return max(s.Current, 0)
}

// ActiveToday reports whether s already counts an activity on now's day.
func (e *Engine) ActiveToday(s State, now time.Time) bool {
	return s.LastActivity != nil && e.DaysBetween(*s.LastActivity, now) <= 0
}

// DaysBetween returns the number of calendar days from a to b.
func (e *Engine) DaysBetween(a, b time.Time) int {
	da := civil(a.In(e.loc))
	db := civil(b.In(e.loc))
	return int(db.Sub(da).Hours() / 24)
}

// DayKey formats t's calendar day as YYYY-MM-DD.
func (e *Engine) DayKey(t time.Time) string {
	return t.In(e.loc).Format(time.DateOnly)
}

// civil truncates t to midnight UTC of its wall-clock date, so that day
// differences ignore DST shifts.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
