package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(Input{})
	assert.Equal(t, Summary{}, got)
}

func TestSummarize_Means(t *testing.T) {
	got := Summarize(Input{
		CompletedModules: 2,
		Attempts: []ScoredAttempt{
			{TestType: models.TestComprehension, Score: 7.5},
			{TestType: models.TestComprehension, Score: 10},
			{TestType: models.TestEssay, Score: 6},
		},
		GrammarScores: []float64{6, 8},
	})

	assert.Equal(t, 2, got.CompletedLessons)
	assert.Equal(t, 3, got.TestsCompleted)
	assert.InDelta(t, 23.5/3, got.AverageScore, 1e-9)
	assert.InDelta(t, 8.75, got.SkillsBreakdown.Reading, 1e-9)
	assert.InDelta(t, 6, got.SkillsBreakdown.Essay, 1e-9)
	assert.Zero(t, got.SkillsBreakdown.Letter)
	assert.InDelta(t, 7, got.SkillsBreakdown.Grammar, 1e-9)
}

type fakeSource struct {
	completed int
	attempts  []ScoredAttempt
	grammar   []float64
	err       error
}

func (f *fakeSource) CountCompletedModules(context.Context, string) (int, error) {
	return f.completed, f.err
}

func (f *fakeSource) ListScoredAttempts(context.Context, string) ([]ScoredAttempt, error) {
	return f.attempts, nil
}

func (f *fakeSource) ListGrammarScores(context.Context, string) ([]float64, error) {
	return f.grammar, nil
}

func TestAggregator_Compute(t *testing.T) {
	agg := NewAggregator(&fakeSource{
		completed: 1,
		attempts:  []ScoredAttempt{{TestType: models.TestLetter, Score: 9}},
	})
	got, err := agg.Compute(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TestsCompleted)
	assert.InDelta(t, 9, got.SkillsBreakdown.Letter, 1e-9)
	assert.Zero(t, got.SkillsBreakdown.Grammar)
}

func TestAggregator_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewAggregator(&fakeSource{err: boom}).Compute(context.Background(), "u1")
	require.ErrorIs(t, err, boom)
}
