package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveSubmission(models.TestEssay, models.AttemptProvisional)
	m.ObserveSubmission(models.TestEssay, models.AttemptProvisional)
	m.FeedbackFailed(models.TestEssay)
	m.TestGenerated(models.TestLetter, false)
	m.ObserveLLMCall("feedback", 2*time.Second, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("essay", "provisional")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedbackFailures.WithLabelValues("essay")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generatedTests.WithLabelValues("letter", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmCalls.WithLabelValues("feedback", "ok")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/api/tests", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `tutor_http_requests_total{code="200",method="GET",route="/api/tests"} 1`), body)
}
