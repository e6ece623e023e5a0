package testgen

import (
	"fmt"
	"strings"

	"github.com/aniketthapawork/ai-tutor/internal/models"
)

const systemPrompt = `You are an expert English teacher writing assessment material for learners of English.

Rules:
- Match vocabulary, grammar and topic to the requested CEFR-style level (beginner, intermediate, advanced).
- Comprehension tests: write an original passage of 120-400 words and multiple-choice questions answerable from the passage alone. Each question has exactly 4 options and exactly one correct option; correct_answer repeats that option's text exactly.
- Essay tests: write one clear essay prompt that invites an argued opinion, plus instructions on length and structure. Leave passage empty and questions as an empty array.
- Letter tests: describe a realistic letter-writing scenario, state whether it is formal or informal and who the recipient is. Leave passage empty and questions as an empty array.
- Use plain text only, no markdown.`

// buildUserMessage constructs the user message for a generation request.
func buildUserMessage(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Test type: %s\n", req.Type)
	fmt.Fprintf(&b, "Level: %s\n", req.Level)
	if req.Type == models.TestComprehension {
		fmt.Fprintf(&b, "Number of questions: %d\n", req.Count)
	}
	fmt.Fprintf(&b, "Time limit: %d minutes\n", TimeLimitFor(req.Type))
	fmt.Fprintf(&b, "\nExisting tests to avoid repeating:\n%s\n", buildAvoidList(req.Avoid, maxAvoid))

	return b.String()
}

// maxAvoid caps the number of earlier topics sent with a request.
const maxAvoid = 10

// avoidSnippetLen truncates each earlier topic.
const avoidSnippetLen = 120

// buildAvoidList formats earlier topics for the prompt, keeping the first
// max. Returns "None" if there are none.
func buildAvoidList(topics []string, max int) string {
	if max > 0 && len(topics) > max {
		topics = topics[:max]
	}
	var b strings.Builder
	n := 0
	for _, t := range topics {
		t = strings.Join(strings.Fields(t), " ")
		if t == "" {
			continue
		}
		if r := []rune(t); len(r) > avoidSnippetLen {
			t = string(r[:avoidSnippetLen]) + "…"
		}
		n++
		fmt.Fprintf(&b, "%d. %s\n", n, t)
	}
	if n == 0 {
		return "None"
	}
	return strings.TrimRight(b.String(), "\n")
}
