// Package feedback assesses essays and letters with an LLM.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/llm"
	"github.com/aniketthapawork/ai-tutor/internal/models"
	"github.com/aniketthapawork/ai-tutor/internal/scoring"
)

// Text used when the assessment omits a field.
const (
	DefaultStrengths    = "Good effort on this submission."
	DefaultImprovements = "Continue practicing to improve your skills."
	DefaultSuggestions  = "Keep up the good work and practice regularly."
)

// Generator assesses a subjective submission.
type Generator interface {
	Assess(ctx context.Context, req Request) (*Result, error)
}

// Request is the input of an assessment.
type Request struct {
	// AttemptID labels the call in the LLM request log.
	AttemptID    string
	TestType     models.TestType
	Level        models.Level
	Prompt       string
	Instructions string
	Response     string
}

// Result is a normalized assessment. Scores are in [0, 10].
type Result struct {
	OverallScore    float64
	GrammarScore    float64
	VocabularyScore float64
	StructureScore  float64
	Strengths       string
	Improvements    string
	Suggestions     string
}

// Model converts r into a feedback row for attemptID.
func (r *Result) Model(attemptID string) *models.AIFeedback {
	return &models.AIFeedback{
		TestAttemptID:   attemptID,
		OverallScore:    r.OverallScore,
		GrammarScore:    r.GrammarScore,
		VocabularyScore: r.VocabularyScore,
		StructureScore:  r.StructureScore,
		Strengths:       r.Strengths,
		Improvements:    r.Improvements,
		Suggestions:     r.Suggestions,
	}
}

// Config holds configuration for the LLM assessor.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.3,
	}
}

// Assessor implements Generator with an LLM provider.
type Assessor struct {
	provider llm.Provider
	cfg      Config
}

// NewAssessor creates an LLM-based assessor.
func NewAssessor(provider llm.Provider, cfg Config) *Assessor {
	return &Assessor{provider: provider, cfg: cfg}
}

// feedbackOutput is the raw LLM response.
type feedbackOutput struct {
	OverallScore    float64 `json:"overall_score"`
	GrammarScore    float64 `json:"grammar_score"`
	VocabularyScore float64 `json:"vocabulary_score"`
	StructureScore  float64 `json:"structure_score"`
	Strengths       string  `json:"strengths"`
	Improvements    string  `json:"improvements"`
	Suggestions     string  `json:"suggestions"`
}

// Assess sends a submission to the LLM. Any failure is a GenerationFailed
// error.
func (a *Assessor) Assess(ctx context.Context, req Request) (*Result, error) {
	ctx = llm.WithCall(ctx, llm.PurposeFeedback, req.AttemptID)

	userMsg, err := buildFeedbackMessage(req)
	if err != nil {
		return nil, apperr.GenerationFailed("assess", fmt.Errorf("build feedback prompt: %w", err))
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		System: feedbackSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      FeedbackSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, apperr.GenerationFailed("assess", err)
	}

	var raw feedbackOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, apperr.GenerationFailed("assess", fmt.Errorf("parse feedback response: %w", err))
	}
	return normalize(raw), nil
}

func normalize(raw feedbackOutput) *Result {
	return &Result{
		OverallScore:    scoring.Normalize(raw.OverallScore),
		GrammarScore:    scoring.Normalize(raw.GrammarScore),
		VocabularyScore: scoring.Normalize(raw.VocabularyScore),
		StructureScore:  scoring.Normalize(raw.StructureScore),
		Strengths:       orDefault(raw.Strengths, DefaultStrengths),
		Improvements:    orDefault(raw.Improvements, DefaultImprovements),
		Suggestions:     orDefault(raw.Suggestions, DefaultSuggestions),
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

const feedbackSystemPrompt = `You are an expert English tutor giving feedback on a learner's written work.

Score each criterion from 0 to 10:
- Grammar: sentence structure, verb tenses, punctuation.
- Vocabulary: word choice, variety, appropriateness.
- Structure: organization, flow, coherence, and for letters the conventions of the letter type.
- Overall: your holistic score for the submission against the task and level.

Be specific and constructive. Strengths, improvements and suggestions are one to three sentences each, addressed to the learner.`

var feedbackUserTemplate = template.Must(template.New("feedback").Parse(`Task type: {{.TestType}}
{{- if .Level}}
Level: {{.Level}}{{end}}
{{- if .Prompt}}

Task:
{{.Prompt}}{{end}}
{{- if .Instructions}}

Instructions:
{{.Instructions}}{{end}}

Student response:
{{.Response}}
`))

func buildFeedbackMessage(req Request) (string, error) {
	var buf bytes.Buffer
	if err := feedbackUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
