package llm

import "context"

// Purpose labels what a generation call is for. It is stored with each
// request event and used as the metrics label.
type Purpose string

const (
	PurposeFeedback       Purpose = "feedback"
	PurposeTestGeneration Purpose = "test-generation"
	PurposeUnknown        Purpose = "unknown"
)

// Call describes the work a generation call serves.
type Call struct {
	Purpose Purpose
	// Subject names the object of the call, e.g. an attempt id for
	// feedback or "essay/advanced" for test generation.
	Subject string
}

type callKey struct{}

// WithCall attaches call metadata to ctx.
func WithCall(ctx context.Context, purpose Purpose, subject string) context.Context {
	return context.WithValue(ctx, callKey{}, Call{Purpose: purpose, Subject: subject})
}

// CallFrom returns the call metadata of ctx. Purpose is PurposeUnknown
// when none was attached.
func CallFrom(ctx context.Context) Call {
	if c, ok := ctx.Value(callKey{}).(Call); ok && c.Purpose != "" {
		return c
	}
	return Call{Purpose: PurposeUnknown}
}
