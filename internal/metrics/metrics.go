// Package metrics exposes Prometheus instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

const namespace = "tutor"

// Metrics holds the service collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	submissions      *prometheus.CounterVec
	feedbackFailures *prometheus.CounterVec
	generatedTests   *prometheus.CounterVec
	llmLatency       *prometheus.HistogramVec
	llmCalls         *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Test submissions by test type and resulting attempt status.",
		}, []string{"type", "status"}),
		feedbackFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_failures_total",
			Help:      "Feedback generations that failed, leaving the provisional score.",
		}, []string{"type"}),
		generatedTests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_tests_total",
			Help:      "Test generations by type and outcome.",
		}, []string{"type", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request latency by purpose.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"purpose"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "LLM requests by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submissions,
		m.feedbackFailures,
		m.generatedTests,
		m.llmLatency,
		m.llmCalls,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSubmission counts a stored submission.
func (m *Metrics) ObserveSubmission(testType models.TestType, status models.AttemptStatus) {
	m.submissions.WithLabelValues(string(testType), string(status)).Inc()
}

// FeedbackFailed counts a failed feedback generation.
func (m *Metrics) FeedbackFailed(testType models.TestType) {
	m.feedbackFailures.WithLabelValues(string(testType)).Inc()
}

// TestGenerated counts a test generation.
func (m *Metrics) TestGenerated(testType models.TestType, ok bool) {
	m.generatedTests.WithLabelValues(string(testType), outcome(ok)).Inc()
}

// ObserveLLMCall records one LLM request.
func (m *Metrics) ObserveLLMCall(purpose string, latency time.Duration, success bool) {
	if purpose == "" {
		purpose = "unknown"
	}
	m.llmLatency.WithLabelValues(purpose).Observe(latency.Seconds())
	m.llmCalls.WithLabelValues(purpose, outcome(success)).Inc()
}

// ObserveHTTP records one HTTP request. route is the matched route
// pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
