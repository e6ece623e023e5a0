package testgen

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gorm.io/datatypes"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/llm"
	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// testOutput is the raw LLM response before normalization.
type testOutput struct {
	Passage      string           `json:"passage"`
	Prompt       string           `json:"prompt"`
	Instructions string           `json:"instructions"`
	WordLimit    int              `json:"word_limit"`
	Questions    []questionOutput `json:"questions"`
}

type questionOutput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Points        float64  `json:"points"`
}

// Generate produces an unsaved test. Any failure is a GenerationFailed
// error.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*models.Test, error) {
	if req.Count <= 0 {
		req.Count = g.config.DefaultCount
	}
	if g.config.MaxCount > 0 && req.Count > g.config.MaxCount {
		req.Count = g.config.MaxCount
	}

	ctx = llm.WithCall(ctx, llm.PurposeTestGeneration, fmt.Sprintf("%s/%s", req.Type, req.Level))

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req)},
		},
		Schema:      TestSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, apperr.GenerationFailed("generate test", err)
	}

	var raw testOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, apperr.GenerationFailed("generate test", fmt.Errorf("parse LLM response: %w", err))
	}

	t := &models.Test{
		Title:     Title(req.Type, req.Level),
		Type:      req.Type,
		Level:     req.Level,
		Content:   datatypes.NewJSONType(normalize(raw, req)),
		MaxScore:  10,
		TimeLimit: TimeLimitFor(req.Type),
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(t, req); verr != nil {
			return nil, apperr.GenerationFailed("generate test", verr)
		}
	}
	return t, nil
}

// normalize trims text, fills writing defaults and keeps only usable
// questions, up to req.Count.
func normalize(raw testOutput, req Request) models.TestContent {
	c := models.TestContent{
		Instructions: strings.TrimSpace(raw.Instructions),
		WordLimit:    max(raw.WordLimit, 0),
	}

	if req.Type != models.TestComprehension {
		c.Prompt = strings.TrimSpace(raw.Prompt)
		if c.Prompt == "" {
			c.Prompt = defaultPrompt(req.Type)
		}
		if c.Instructions == "" {
			c.Instructions = defaultInstructions(req.Type)
		}
		return c
	}

	c.Passage = strings.TrimSpace(raw.Passage)
	if c.Instructions == "" {
		c.Instructions = "Read the passage and choose the best answer to each question."
	}
	for _, q := range raw.Questions {
		if len(c.Questions) == req.Count {
			break
		}
		nq, ok := normalizeQuestion(q)
		if !ok {
			continue
		}
		nq.ID = fmt.Sprintf("q%d", len(c.Questions)+1)
		c.Questions = append(c.Questions, nq)
	}
	return c
}

func normalizeQuestion(q questionOutput) (models.Question, bool) {
	text := strings.TrimSpace(q.Question)
	if text == "" {
		return models.Question{}, false
	}
	var opts []string
	for _, o := range q.Options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	correct := strings.TrimSpace(q.CorrectAnswer)
	matched := ""
	for _, o := range opts {
		if strings.EqualFold(o, correct) {
			matched = o
			break
		}
	}
	if len(opts) < 2 || matched == "" {
		return models.Question{}, false
	}
	return models.Question{
		Question:      text,
		Options:       opts,
		CorrectAnswer: matched,
		Points:        min(max(int(math.Round(q.Points)), 1), 10),
	}, true
}

func defaultPrompt(t models.TestType) string {
	if t == models.TestLetter {
		return "Write a letter to a friend telling them about something interesting that happened to you recently."
	}
	return "Write an essay about a place that is important to you and explain why."
}

func defaultInstructions(t models.TestType) string {
	if t == models.TestLetter {
		return "Use an appropriate greeting and closing, and organize your letter into clear paragraphs."
	}
	return "Include an introduction, body paragraphs with examples, and a conclusion."
}
