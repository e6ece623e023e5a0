package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/llm"
	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/store"
	"github.com/aniketthapawork/ai-tutor/internal/testgen"
)

type genCounter struct {
	ok, failed int
}

func (g *genCounter) TestGenerated(_ models.TestType, ok bool) {
	if ok {
		g.ok++
	} else {
		g.failed++
	}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{Path: "file:" + uuid.NewString() + "?mode=memory&cache=shared"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	_, err = s.Seed(context.Background())
	require.NoError(t, err)
	_, err = s.UpsertUser(context.Background(), store.Profile{ID: "u1"})
	require.NoError(t, err)
	return s
}

func TestModules_MergesProgress(t *testing.T) {
	s := openStore(t)
	svc := NewService(s, nil, nil, nil)
	ctx := context.Background()

	all, err := svc.Modules(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 9)
	assert.Equal(t, models.LevelBeginner, all[0].Level)
	assert.Equal(t, models.LevelAdvanced, all[8].Level)

	score := 14.0
	p, err := svc.UpdateProgress(ctx, "u1", all[1].ID, ProgressUpdate{Completed: true, Score: &score})
	require.NoError(t, err)
	require.NotNil(t, p.Score)
	assert.Equal(t, 10.0, *p.Score)

	beginner, err := svc.ModulesByLevel(ctx, "u1", "beginner")
	require.NoError(t, err)
	require.Len(t, beginner, 3)
	assert.False(t, beginner[0].Completed)
	assert.True(t, beginner[1].Completed)
	require.NotNil(t, beginner[1].Score)
	assert.Nil(t, beginner[0].Score)
}

func TestModulesByLevel_Invalid(t *testing.T) {
	svc := NewService(openStore(t), nil, nil, nil)
	_, err := svc.ModulesByLevel(context.Background(), "u1", "expert")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestUpdateProgress_UnknownModule(t *testing.T) {
	svc := NewService(openStore(t), nil, nil, nil)
	_, err := svc.UpdateProgress(context.Background(), "u1", "missing", ProgressUpdate{Completed: true})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestTestsByTypeAndLevel(t *testing.T) {
	svc := NewService(openStore(t), nil, nil, nil)
	ctx := context.Background()

	essays, err := svc.TestsByType(ctx, "essay")
	require.NoError(t, err)
	require.Len(t, essays, 1)
	assert.Equal(t, models.TestEssay, essays[0].Type)

	inter, err := svc.TestsByLevel(ctx, "intermediate")
	require.NoError(t, err)
	assert.Len(t, inter, 2)

	_, err = svc.TestsByType(ctx, "poem")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	got, err := svc.Test(ctx, essays[0].ID)
	require.NoError(t, err)
	assert.Equal(t, essays[0].Title, got.Title)
}

func TestGenerateTest_PersistsOnSuccess(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"passage": "", "prompt": "Write to a friend about your holiday.",
		"instructions": "", "word_limit": 150, "questions": []
	}`)})
	counter := &genCounter{}
	svc := NewService(s, testgen.New(mock, testgen.DefaultConfig()), counter, nil)
	ctx := context.Background()

	test, err := svc.GenerateTest(ctx, GenerateRequest{Type: "letter", Level: "advanced"})
	require.NoError(t, err)
	assert.Equal(t, "Letter Test - advanced", test.Title)
	assert.Equal(t, 20, test.TimeLimit)
	assert.NotEmpty(t, test.ID)

	stored, err := svc.Test(ctx, test.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write to a friend about your holiday.", stored.Content.Data().Prompt)
	assert.Equal(t, 1, counter.ok)
}

func TestGenerateTest_FailureStoresNothing(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("provider down")})
	counter := &genCounter{}
	svc := NewService(s, testgen.New(mock, testgen.DefaultConfig()), counter, nil)
	ctx := context.Background()

	before, err := svc.Tests(ctx, store.TestFilter{})
	require.NoError(t, err)

	_, err = svc.GenerateTest(ctx, GenerateRequest{Type: "essay", Level: "beginner"})
	assert.True(t, errors.Is(err, apperr.ErrGenerationFailed))
	assert.Equal(t, 1, counter.failed)

	after, err := svc.Tests(ctx, store.TestFilter{})
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestGenerateTest_Invalid(t *testing.T) {
	svc := NewService(openStore(t), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.GenerateTest(ctx, GenerateRequest{Type: "quiz", Level: "beginner"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.GenerateTest(ctx, GenerateRequest{Type: "essay", Level: "beginner"})
	assert.True(t, errors.Is(err, apperr.ErrGenerationFailed))
}

func TestGenerateTest_AvoidsExistingTopics(t *testing.T) {
	s := openStore(t)
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"passage": "", "prompt": "Should cities ban cars from their centres?",
		"instructions": "", "word_limit": 250, "questions": []
	}`)})
	svc := NewService(s, testgen.New(mock, testgen.DefaultConfig()), nil, nil)

	_, err := svc.GenerateTest(context.Background(), GenerateRequest{Type: "essay", Level: "intermediate"})
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1)
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "second language at primary school")
}
