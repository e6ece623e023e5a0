package testgen

import "github.com/aniketthapawork/ai-tutor/internal/llm"

// TestSchema defines the JSON schema for LLM test generation responses.
// Bounds guide the model; replies are validated leniently and normalized
// by the generator.
var TestSchema = &llm.Schema{
	Name:        "english-test",
	Description: "An English test: a reading passage with multiple-choice questions, or a writing prompt",
	Lenient:     true,
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"passage": map[string]any{
				"type":        "string",
				"description": "Reading passage for comprehension tests. Empty for essay and letter tests.",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "The writing task for essay and letter tests. Empty for comprehension tests.",
			},
			"instructions": map[string]any{
				"type":        "string",
				"description": "Short instructions shown to the learner",
			},
			"word_limit": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     1000,
				"description": "Suggested maximum words for writing tasks. 0 for comprehension tests.",
			},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question about the passage",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Exactly 4 answer options",
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "The exact text of the correct option",
						},
						"points": map[string]any{
							"type":        "number",
							"minimum":     1,
							"maximum":     10,
							"description": "Points for a correct answer",
						},
					},
					"required":             []any{"question", "options", "correct_answer", "points"},
					"additionalProperties": false,
				},
				"description": "Multiple-choice questions for comprehension tests. Empty array for essay and letter tests.",
			},
		},
		"required":             []any{"passage", "prompt", "instructions", "word_limit", "questions"},
		"additionalProperties": false,
	},
}
