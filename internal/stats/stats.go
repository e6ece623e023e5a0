// Package stats aggregates a user's learning statistics.
package stats

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// Skills is the per-skill mean score breakdown.
type Skills struct {
	Reading float64 `json:"reading"`
	Essay   float64 `json:"essay"`
	Letter  float64 `json:"letter"`
	Grammar float64 `json:"grammar"`
}

// Summary is a user's aggregate statistics.
type Summary struct {
	CompletedLessons int     `json:"completedLessons"`
	TestsCompleted   int     `json:"testsCompleted"`
	AverageScore     float64 `json:"averageScore"`
	SkillsBreakdown  Skills  `json:"skillsBreakdown"`
}

// ScoredAttempt is an attempt score tagged with its test type.
type ScoredAttempt struct {
	TestType models.TestType
	Score    float64
}

// Input holds the raw facts a Summary is computed from.
type Input struct {
	CompletedModules int
	Attempts         []ScoredAttempt
	GrammarScores    []float64
}

// Source reads the raw facts for one user.
type Source interface {
	CountCompletedModules(ctx context.Context, userID string) (int, error)
	ListScoredAttempts(ctx context.Context, userID string) ([]ScoredAttempt, error)
	ListGrammarScores(ctx context.Context, userID string) ([]float64, error)
}

// Aggregator computes summaries from a Source.
type Aggregator struct {
	src Source
}

// NewAggregator creates an Aggregator.
func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Compute returns the summary for userID.
func (a *Aggregator) Compute(ctx context.Context, userID string) (Summary, error) {
	var in Input
	var err error
	if in.CompletedModules, err = a.src.CountCompletedModules(ctx, userID); err != nil {
		return Summary{}, fmt.Errorf("count completed modules: %w", err)
	}
	if in.Attempts, err = a.src.ListScoredAttempts(ctx, userID); err != nil {
		return Summary{}, fmt.Errorf("list attempts: %w", err)
	}
	if in.GrammarScores, err = a.src.ListGrammarScores(ctx, userID); err != nil {
		return Summary{}, fmt.Errorf("list grammar scores: %w", err)
	}
	return Summarize(in), nil
}

// Summarize computes a Summary. Means are exact arithmetic means; rounding
// is left to whoever displays them. Every mean over an empty set is 0.
func Summarize(in Input) Summary {
	scores := lo.Map(in.Attempts, func(a ScoredAttempt, _ int) float64 { return a.Score })
	bySkill := lo.GroupBy(in.Attempts, func(a ScoredAttempt) string { return a.TestType.Skill() })
	skillMean := func(skill string) float64 {
		return mean(lo.Map(bySkill[skill], func(a ScoredAttempt, _ int) float64 { return a.Score }))
	}

	return Summary{
		CompletedLessons: in.CompletedModules,
		TestsCompleted:   len(in.Attempts),
		AverageScore:     mean(scores),
		SkillsBreakdown: Skills{
			Reading: skillMean(models.TestComprehension.Skill()),
			Essay:   skillMean(models.TestEssay.Skill()),
			Letter:  skillMean(models.TestLetter.Skill()),
			Grammar: mean(in.GrammarScores),
		},
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return lo.Sum(xs) / float64(len(xs))
}
