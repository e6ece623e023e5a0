package testgen

import (
	"strings"
	"testing"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

func TestBuildUserMessage(t *testing.T) {
	msg := buildUserMessage(Request{Type: models.TestComprehension, Level: models.LevelBeginner, Count: 5})
	for _, want := range []string{"Test type: comprehension", "Level: beginner", "Number of questions: 5", "Time limit: 15 minutes", "None"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	msg = buildUserMessage(Request{Type: models.TestEssay, Level: models.LevelAdvanced, Count: 5})
	if strings.Contains(msg, "Number of questions") {
		t.Errorf("essay message should not ask for questions:\n%s", msg)
	}
}

func TestBuildAvoidList(t *testing.T) {
	tests := []struct {
		name   string
		topics []string
		max    int
		want   string
	}{
		{"empty", nil, 10, "None"},
		{"blank entries skipped", []string{"  ", "\n"}, 10, "None"},
		{"numbered and collapsed", []string{"A  day\nat the beach", "Pets"}, 10, "1. A day at the beach\n2. Pets"},
		{"capped", []string{"one", "two", "three"}, 2, "1. one\n2. two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildAvoidList(tt.topics, tt.max); got != tt.want {
				t.Errorf("buildAvoidList() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildAvoidList_Truncates(t *testing.T) {
	long := strings.Repeat("x", avoidSnippetLen+50)
	got := buildAvoidList([]string{long}, 10)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) != len("1. ")+avoidSnippetLen+1 {
		t.Errorf("unexpected truncation: %q", got)
	}
}
