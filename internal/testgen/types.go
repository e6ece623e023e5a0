// Package testgen generates tests with an LLM.
package testgen

import (
	"context"
	"fmt"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// Generator produces a new, unsaved test.
type Generator interface {
	Generate(ctx context.Context, req Request) (*models.Test, error)
}

// Request describes the test to generate.
type Request struct {
	Type  models.TestType
	Level models.Level
	// Count is the number of comprehension questions. Zero means the
	// configured default.
	Count int
	// Avoid lists passages or prompts of existing tests, newest first, so
	// the new test covers a different topic.
	Avoid []string
}

// Title returns the display title of a generated test.
func Title(t models.TestType, l models.Level) string {
	return fmt.Sprintf("%s Test - %s", t.Label(), l)
}

// TimeLimitFor returns the time limit in minutes for a generated test.
func TimeLimitFor(t models.TestType) int {
	switch t {
	case models.TestEssay:
		return 30
	case models.TestLetter:
		return 20
	}
	return 15
}
