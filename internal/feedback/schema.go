package feedback

import "github.com/aniketthapawork/ai-tutor/internal/llm"

func scoreProp(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc + " from 0 to 10"}
}

// FeedbackSchema defines the JSON schema for writing feedback responses.
// Replies are validated leniently: missing text gets a default and scores
// are clamped by the assessor.
var FeedbackSchema = &llm.Schema{
	Name:        "writing-feedback",
	Description: "Scored feedback on an essay or letter",
	Lenient:     true,
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_score":    scoreProp("Holistic score"),
			"grammar_score":    scoreProp("Grammar score"),
			"vocabulary_score": scoreProp("Vocabulary score"),
			"structure_score":  scoreProp("Structure score"),
			"strengths": map[string]any{
				"type":        "string",
				"description": "What the learner did well",
			},
			"improvements": map[string]any{
				"type":        "string",
				"description": "Areas that need work",
			},
			"suggestions": map[string]any{
				"type":        "string",
				"description": "Specific next steps",
			},
		},
		"required": []any{
			"overall_score", "grammar_score", "vocabulary_score", "structure_score",
			"strengths", "improvements", "suggestions",
		},
		"additionalProperties": false,
	},
}
