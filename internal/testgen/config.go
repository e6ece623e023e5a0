package testgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every generated test; the first failure
	// stops the pipeline.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// DefaultCount is the question count when a request leaves it unset.
	DefaultCount int

	// MaxCount caps the question count of a request.
	MaxCount int
}

// DefaultConfig returns a Config with the standard validator chain and
// recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators:   []Validator{&StructuralValidator{}},
		MaxTokens:    4096,
		Temperature:  0.8,
		DefaultCount: 10,
		MaxCount:     20,
	}
}
