package scoring

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gorm.io/datatypes"

	"github.com/aniketthapawork/ai-tutor/internal/apperr"
	"github.com/aniketthapawork/ai-tutor/internal/models"
)

func comprehensionTest(answers ...string) *models.Test {
	qs := make([]models.Question, len(answers))
	for i, a := range answers {
		qs[i] = models.Question{Question: "q", Options: []string{"A", "B", "C", "D"}, CorrectAnswer: a, Points: 1}
	}
	return &models.Test{
		Type:    models.TestComprehension,
		Content: datatypes.NewJSONType(models.TestContent{Passage: "p", Questions: qs}),
	}
}

func TestScore_Comprehension(t *testing.T) {
	tests := []struct {
		name    string
		test    *models.Test
		answers string
		want    float64
		correct int
	}{
		{"three of four", comprehensionTest("A", "B", "C", "D"), `["A","B","C","A"]`, 7.5, 3},
		{"all correct", comprehensionTest("A", "B"), `["A","B"]`, 10, 2},
		{"none correct", comprehensionTest("A", "B"), `["C","D"]`, 0, 0},
		{"keyed by index", comprehensionTest("A", "B", "C", "D"), `{"0":"A","2":"C"}`, 5, 2},
		{"case and whitespace", comprehensionTest("Paris"), `[" paris "]`, 10, 1},
		{"missing answers", comprehensionTest("A", "B", "C"), `["A"]`, 3.3, 1},
		{"null entries", comprehensionTest("A", "B"), `[null,"B"]`, 5, 1},
		{"no answers", comprehensionTest("A"), `null`, 0, 0},
		{"zero questions", comprehensionTest(), `["A"]`, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Score(tt.test, json.RawMessage(tt.answers))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Score != tt.want {
				t.Errorf("score = %v, want %v", res.Score, tt.want)
			}
			if res.Correct != tt.correct {
				t.Errorf("correct = %d, want %d", res.Correct, tt.correct)
			}
			if res.Provisional {
				t.Error("comprehension must not be provisional")
			}
		})
	}
}

func TestScore_ComprehensionRejectsMalformed(t *testing.T) {
	_, err := Score(comprehensionTest("A"), json.RawMessage(`{"first":"A"}`))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = Score(comprehensionTest("A"), json.RawMessage(`42`))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScore_Subjective(t *testing.T) {
	essay := &models.Test{Type: models.TestEssay}

	res, err := Score(essay, json.RawMessage(`"My summer holiday was long."`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Provisional || res.Score != ProvisionalScore {
		t.Fatalf("expected provisional 7.5, got %+v", res)
	}
	if res.Response != "My summer holiday was long." {
		t.Fatalf("unexpected response %q", res.Response)
	}

	res, err = Score(&models.Test{Type: models.TestLetter}, json.RawMessage(`{"response":"Dear Sir"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Response != "Dear Sir" {
		t.Fatalf("unexpected response %q", res.Response)
	}

	res, err = Score(essay, json.RawMessage(`"   "`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provisional || res.Score != 0 {
		t.Fatalf("empty response should finalize at 0, got %+v", res)
	}
}

func TestResponseText_FallsBackToJSON(t *testing.T) {
	got, err := ResponseText(json.RawMessage(`{"intro":"hi","body":"there"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"intro":"hi","body":"there"}` {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-3, 0}, {0, 0}, {4.2, 4.2}, {10, 10}, {12, 10}, {math.NaN(), 0}, {math.Inf(1), 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{7.5, 75}, {10, 100}, {0, 0}, {3.33, 33}, {8.25, 83}, {11, 100},
	}
	for _, tt := range tests {
		if got := Points(tt.score); got != tt.want {
			t.Errorf("Points(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(8.26); got != 8.3 {
		t.Fatalf("Normalize(8.26) = %v", got)
	}
	if got := Normalize(-1); got != 0 {
		t.Fatalf("Normalize(-1) = %v", got)
	}
}
