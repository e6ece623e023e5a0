package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniketthapawork/ai-tutor/internal/activity"
	"github.com/aniketthapawork/ai-tutor/internal/attempt"
	"github.com/aniketthapawork/ai-tutor/internal/catalog"
	"github.com/aniketthapawork/ai-tutor/internal/dashboard"
	"github.com/aniketthapawork/ai-tutor/internal/feedback"
	"github.com/aniketthapawork/ai-tutor/internal/llm"
	"github.com/aniketthapawork/ai-tutor/internal/metrics"
	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/store"
	"github.com/aniketthapawork/ai-tutor/internal/streak"
	"github.com/aniketthapawork/ai-tutor/internal/testgen"
)

const testSecret = "test-secret"

type harness struct {
	t     *testing.T
	store *store.Store
	auth  *Authenticator
	mock  *llm.MockProvider
	h     http.Handler
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newHarness(t *testing.T, responses ...llm.MockResponse) *harness {
	t.Helper()
	s, err := store.Open(store.Config{Path: "file:" + uuid.NewString() + "?mode=memory&cache=shared"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	_, err = s.Seed(context.Background())
	require.NoError(t, err)

	mock := llm.NewMockProvider(responses...)
	engine := streak.NewEngine(time.UTC)
	rec := activity.NewRecorder(s, engine, nil)
	m := metrics.New()
	auth := NewAuthenticator(testSecret, true, s, nil)

	srv := New(Deps{
		Store:     s,
		Catalog:   catalog.NewService(s, testgen.New(mock, testgen.DefaultConfig()), m, nil),
		Attempts:  attempt.NewService(s, rec, feedback.NewAssessor(mock, feedback.DefaultConfig()), attempt.Options{Metrics: m}),
		Dashboard: dashboard.NewService(s, engine),
		Recorder:  rec,
		Metrics:   m,
		Auth:      auth,
	})
	return &harness{t: t, store: s, auth: auth, mock: mock, h: srv.Handler()}
}

func (h *harness) do(method, path, user string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(DevUserHeader, user)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (h *harness) testOfType(typ models.TestType) models.Test {
	h.t.Helper()
	tests, err := h.store.ListTests(context.Background(), store.TestFilter{Type: typ})
	require.NoError(h.t, err)
	require.NotEmpty(h.t, tests)
	return tests[0]
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_RequiresAuth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "authentication required", body.Message)
}

func TestAPI_BearerToken(t *testing.T) {
	h := newHarness(t)
	token, err := h.auth.Sign(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:     "ada@example.com",
		GivenName: "Ada",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u := decode[models.User](t, rec)
	assert.Equal(t, "sub-123", u.ID)
	require.NotNil(t, u.FirstName)
	assert.Equal(t, "Ada", *u.FirstName)
}

func TestAPI_RejectsBadTokens(t *testing.T) {
	h := newHarness(t)
	other := NewAuthenticator("other-secret", false, h.store, nil)
	forged, err := other.Sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}})
	require.NoError(t, err)
	expired, err := h.auth.Sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	require.NoError(t, err)

	for name, header := range map[string]string{
		"forged":    "Bearer " + forged,
		"expired":   "Bearer " + expired,
		"malformed": "Token abc",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			h.h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestSubmitComprehension(t *testing.T) {
	h := newHarness(t)
	test := h.testOfType(models.TestComprehension)
	questions := test.Content.Data().Questions
	require.Len(t, questions, 4)

	answers := []string{questions[0].CorrectAnswer, questions[1].CorrectAnswer, questions[2].CorrectAnswer, "wrong"}
	rec := h.do(http.MethodPost, "/api/tests/"+test.ID+"/submit", "u1", gin.H{"answers": answers, "timeSpent": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	sub := decode[attempt.Submission](t, rec)
	assert.Equal(t, 7.5, sub.Attempt.Score)
	assert.Equal(t, 75, sub.PointsEarned)

	rec = h.do(http.MethodGet, "/api/progress", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[dashboard.Progress](t, rec)
	require.Len(t, p.StreakHistory, 1)
	assert.Equal(t, 1, p.StreakHistory[0].ActivitiesCompleted)
	assert.Equal(t, 75, p.StreakHistory[0].PointsEarned)
	assert.Equal(t, 1, p.Stats.TestsCompleted)

	rec = h.do(http.MethodGet, "/api/test-attempts", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.TestAttempt](t, rec), 1)
}

func TestSubmitEssay_WithFeedback(t *testing.T) {
	h := newHarness(t, llm.MockResponse{Content: json.RawMessage(`{
		"overall_score": 6.5, "grammar_score": 6, "vocabulary_score": 7, "structure_score": 6,
		"strengths": "Good ideas.", "improvements": "Tenses.", "suggestions": "Read more."
	}`)})
	test := h.testOfType(models.TestEssay)

	rec := h.do(http.MethodPost, "/api/tests/"+test.ID+"/submit", "u1", gin.H{"answers": gin.H{"response": "My essay text."}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[attempt.Submission](t, rec)
	assert.Equal(t, 6.5, sub.Attempt.Score)
	assert.Equal(t, models.AttemptFinalized, sub.Attempt.Status)

	rec = h.do(http.MethodGet, "/api/test-attempts/"+sub.Attempt.ID+"/feedback", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fb := decode[models.AIFeedback](t, rec)
	assert.Equal(t, "Good ideas.", fb.Strengths)

	rec = h.do(http.MethodGet, "/api/test-attempts/"+sub.Attempt.ID+"/feedback", "someone-else", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitEssay_FeedbackUnavailable(t *testing.T) {
	h := newHarness(t)
	test := h.testOfType(models.TestEssay)

	rec := h.do(http.MethodPost, "/api/tests/"+test.ID+"/submit", "u1", gin.H{"answers": "An essay."})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[attempt.Submission](t, rec)
	assert.Equal(t, 7.5, sub.Attempt.Score)
	assert.Equal(t, models.AttemptProvisional, sub.Attempt.Status)
}

func TestSubmit_ReplayReturnsOK(t *testing.T) {
	h := newHarness(t)
	test := h.testOfType(models.TestComprehension)
	body := gin.H{"attemptId": uuid.NewString(), "answers": []string{}}

	rec := h.do(http.MethodPost, "/api/tests/"+test.ID+"/submit", "u1", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = h.do(http.MethodPost, "/api/tests/"+test.ID+"/submit", "u1", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[attempt.Submission](t, rec).Replayed)
}

func TestSubmit_Errors(t *testing.T) {
	h := newHarness(t)
	test := h.testOfType(models.TestComprehension)

	rec := h.do(http.MethodPost, "/api/tests/missing/submit", "u1", gin.H{"answers": []string{}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPost, "/api/tests/"+test.ID+"/submit", "u1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/tests/"+test.ID+"/submit", "u1", gin.H{"answers": []string{}, "attemptId": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateTest(t *testing.T) {
	h := newHarness(t, llm.MockResponse{Content: json.RawMessage(`{
		"passage": "", "prompt": "Argue for or against school uniforms.",
		"instructions": "", "word_limit": 300, "questions": []
	}`)})

	rec := h.do(http.MethodPost, "/api/tests/generate", "u1", gin.H{"type": "essay", "level": "advanced"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Test](t, rec)
	assert.Equal(t, "Essay Test - advanced", created.Title)
	assert.Equal(t, 30, created.TimeLimit)

	rec = h.do(http.MethodGet, "/api/tests/"+created.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateTest_Failures(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/tests/generate", "u1", gin.H{"type": "poem", "level": "advanced"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	before := len(decode[[]models.Test](t, h.do(http.MethodGet, "/api/tests", "u1", nil)))
	rec = h.do(http.MethodPost, "/api/tests/generate", "u1", gin.H{"type": "essay", "level": "advanced"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to generate content, please try again", decode[errorBody](t, rec).Message)
	after := len(decode[[]models.Test](t, h.do(http.MethodGet, "/api/tests", "u1", nil)))
	assert.Equal(t, before, after)
}

func TestModulesAndProgress(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/modules/beginner", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mods := decode[[]catalog.ModuleView](t, rec)
	require.Len(t, mods, 3)

	rec = h.do(http.MethodPost, "/api/progress/modules/"+mods[0].ID, "u1", gin.H{"completed": true, "score": 9})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	mods = decode[[]catalog.ModuleView](t, h.do(http.MethodGet, "/api/modules", "u1", nil))
	require.Len(t, mods, 9)
	assert.True(t, mods[0].Completed)

	rec = h.do(http.MethodGet, "/api/modules/expert", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/progress/modules/missing", "u1", gin.H{"completed": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTestListings(t *testing.T) {
	h := newHarness(t)

	assert.Len(t, decode[[]models.Test](t, h.do(http.MethodGet, "/api/tests", "u1", nil)), 3)
	assert.Len(t, decode[[]models.Test](t, h.do(http.MethodGet, "/api/tests/type/letter", "u1", nil)), 1)
	assert.Len(t, decode[[]models.Test](t, h.do(http.MethodGet, "/api/tests/level/intermediate", "u1", nil)), 2)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/tests/type/poem", "u1", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/tests/missing", "u1", nil).Code)
}

func TestActivityAndLeaderboard(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/activity", "u1", gin.H{"activitiesCompleted": 2, "pointsEarned": 20})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	logged := decode[activity.Logged](t, rec)
	assert.Equal(t, 2, logged.Activity.ActivitiesCompleted)
	assert.Equal(t, 1, logged.User.CurrentStreak)

	rec = h.do(http.MethodPost, "/api/activity", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decode[activity.Logged](t, rec).Activity.ActivitiesCompleted)

	rec = h.do(http.MethodPost, "/api/activity", "u1", gin.H{"pointsEarned": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.do(http.MethodGet, "/api/auth/user", "u2", nil)
	rec = h.do(http.MethodGet, "/api/leaderboard?limit=1", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dashboard.LeaderboardEntry](t, rec), 1)
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/dashboard", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[dashboard.Dashboard](t, rec)
	assert.Equal(t, "u1", d.User.ID)
	assert.Equal(t, 1, d.Rank)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/api/tests", "u1", nil)
	rec := h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/tests"`)
}
