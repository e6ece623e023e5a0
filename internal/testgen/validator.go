package testgen

import (
	"fmt"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

// Validator checks a generated test before it is returned.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	Name() string
	Validate(t *models.Test, req Request) *ValidationError
}

// ValidationError describes why a generated test was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator checks that a test has the parts its type needs.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(t *models.Test, _ Request) *ValidationError {
	c := t.Content.Data()
	if t.Type == models.TestComprehension {
		if c.Passage == "" {
			return &ValidationError{Validator: v.Name(), Message: "comprehension test has no passage"}
		}
		if len(c.Questions) == 0 {
			return &ValidationError{Validator: v.Name(), Message: "comprehension test has no usable questions"}
		}
		if len(c.Passage) > 6000 {
			return &ValidationError{Validator: v.Name(), Message: "passage exceeds 6000 characters"}
		}
		return nil
	}
	if c.Prompt == "" {
		return &ValidationError{Validator: v.Name(), Message: "writing test has no prompt"}
	}
	return nil
}
