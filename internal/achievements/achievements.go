// Package achievements decides which badges an activity earns.
package achievements

import (
	"fmt"

	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/scoring"
	"github.com/aniketthapawork/ai-tutor/internal/streak"
)

// Award is an achievement to grant.
type Award struct {
	Type        models.AchievementType
	Title       string
	Description string
}

// Input describes the state change of one recorded activity.
type Input struct {
	StreakBefore int
	StreakAfter  int
	// Score is the final score of a completed test, nil for plain activity.
	Score *float64
	// TestsCompleted is the user's attempt count including this one.
	TestsCompleted int
}

// completionMilestones are attempt counts that earn a badge.
var completionMilestones = []struct {
	count int
	title string
}{
	{1, "First Steps"},
	{10, "Committed Learner"},
	{50, "Test Veteran"},
}

// Evaluate returns the awards earned by in. Awards are keyed by title, so
// granting one the user already holds is harmless.
func Evaluate(in Input) []Award {
	var out []Award

	for _, m := range streak.Crossed(in.StreakBefore, in.StreakAfter) {
		out = append(out, StreakAward(m))
	}

	if in.Score != nil && *in.Score >= scoring.MaxScore {
		out = append(out, Award{
			Type:        models.AchievementScore,
			Title:       "Perfect Score",
			Description: "Scored 10 out of 10 on a test",
		})
	}

	if in.Score != nil {
		for _, m := range completionMilestones {
			if in.TestsCompleted == m.count {
				out = append(out, Award{
					Type:        models.AchievementCompletion,
					Title:       m.title,
					Description: fmt.Sprintf("Completed %d %s", m.count, plural(m.count, "test")),
				})
			}
		}
	}

	return out
}

// StreakAward builds the award for a streak milestone.
func StreakAward(m streak.Milestone) Award {
	return Award{
		Type:        models.AchievementStreak,
		Title:       fmt.Sprintf("%d-Day %s", m.Days, m.Title),
		Description: fmt.Sprintf("Practiced %d days in a row", m.Days),
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
