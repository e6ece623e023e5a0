// Package scoring computes attempt scores. Comprehension tests are scored
// against their answer key; essays and letters receive a provisional score
// until an AI assessment replaces it.
package scoring

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/models"
)

const (
	// MaxScore is the upper bound of every score.
	MaxScore = 10.0

	// ProvisionalScore is assigned to a subjective attempt before its
	// AI assessment arrives.
	ProvisionalScore = 7.5

	// PointsPerScoreUnit converts a score into points.
	PointsPerScoreUnit = 10
)

// Result is the outcome of scoring one submission.
type Result struct {
	Score float64
	// Correct and Total are set for comprehension tests.
	Correct int
	Total   int
	// Provisional is true when the score awaits an AI assessment.
	Provisional bool
	// Response is the extracted free text of a subjective submission.
	Response string
}

// Score scores answers against test.
func Score(test *models.Test, answers json.RawMessage) (Result, error) {
	if test.Type.IsSubjective() {
		text, err := ResponseText(answers)
		if err != nil {
			return Result{}, err
		}
		if strings.TrimSpace(text) == "" {
			return Result{Score: 0, Response: text}, nil
		}
		return Result{Score: ProvisionalScore, Provisional: true, Response: text}, nil
	}

	questions := test.Content.Data().Questions
	submitted, err := indexedAnswers(answers)
	if err != nil {
		return Result{}, err
	}

	res := Result{Total: len(questions)}
	for i, q := range questions {
		if a, ok := submitted[i]; ok && sameAnswer(a, q.CorrectAnswer) {
			res.Correct++
		}
	}
	res.Score = Comprehension(res.Correct, res.Total)
	return res, nil
}

// Comprehension returns correct/total scaled to MaxScore, or 0 when the
// test has no questions.
func Comprehension(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round1(Clamp(float64(correct) / float64(total) * MaxScore))
}

// Clamp bounds a score into [0, MaxScore]. NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > MaxScore:
		return MaxScore
	}
	return v
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Normalize clamps and rounds a score from an external source.
func Normalize(v float64) float64 {
	return Round1(Clamp(v))
}

// Points converts a score into the points it earns.
func Points(score float64) int {
	return int(math.Round(Clamp(score) * PointsPerScoreUnit))
}

// ResponseText extracts the free text of a subjective submission. A bare
// JSON string is used as is; an object's "response", "text" or "0" field
// is used when present; anything else is passed on as its JSON encoding.
func ResponseText(answers json.RawMessage) (string, error) {
	raw := bytes.TrimSpace(answers)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, k := range []string{"response", "text", "0"} {
			if v, ok := obj[k]; ok {
				if err := json.Unmarshal(v, &s); err == nil {
					return s, nil
				}
			}
		}
	}
	if !json.Valid(raw) {
		return "", apperr.Validation("answers must be valid JSON")
	}
	return string(raw), nil
}

// indexedAnswers decodes answers given either as an array or as an object
// keyed by question index.
func indexedAnswers(answers json.RawMessage) (map[int]string, error) {
	raw := bytes.TrimSpace(answers)
	out := make(map[int]string)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	var list []*string
	if err := json.Unmarshal(raw, &list); err == nil {
		for i, a := range list {
			if a != nil {
				out[i] = *a
			}
		}
		return out, nil
	}

	var keyed map[string]string
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, apperr.Validation("answers must be an array or an object keyed by question index")
	}
	for k, v := range keyed {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			return nil, apperr.Validation("answer key %q is not a question index", k)
		}
		out[i] = v
	}
	return out, nil
}

func sameAnswer(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}
