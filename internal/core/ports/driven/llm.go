package driven

import "context"

// LLMService generates prose from a prompt. Used by the answer service
// to synthesise a grounded answer from retrieved chunks; the model and
// transport behind it are opaque to the core.
type LLMService interface {
	// Complete sends a system prompt plus user prompt and returns the
	// model's text response.
	Complete(ctx context.Context, system, prompt string) (string, error)

	// ModelName returns the configured model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}
