// Package llm is the text-generation capability used by the test and
// feedback generators. Providers return schema-validated JSON.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a JSON reply for a prompt.
type Provider interface {
	// Generate sends req to the model. When req carries a Schema the reply
	// is validated before it is returned. Failures are *Error values,
	// except context errors which pass through unwrapped.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model requests are sent to.
	ModelID() string
}

// Request is a single generation call.
type Request struct {
	System string

	// Test and feedback generation are single-turn, so this usually holds
	// one user message.
	Messages []Message

	// Schema asks the provider for structured output. Without it Content
	// is the model's raw text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is the JSON shape a reply must have.
type Schema struct {
	// Name keys the compiled-schema caches and is sent to OpenAI as the
	// schema name, e.g. "writing-feedback".
	Name        string
	Description string

	// Definition is sent to the provider in full.
	Definition map[string]any

	// Lenient validates replies against the types in Definition only.
	// Missing fields, nulls and out-of-range numbers pass through for the
	// caller to default and clamp.
	Lenient bool
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response is a model reply.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Usage is the token count of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
