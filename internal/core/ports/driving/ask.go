package driving

import (
	"context"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

// Answerer produces grounded answers from the live session's
// knowledge base.
type Answerer interface {
	// Ask retrieves the numChunks most relevant chunks for the question
	// and asks the language model for an answer citing them. An empty
	// knowledge base yields a friendly "no information" answer.
	Ask(ctx context.Context, question string, numChunks int) (*domain.Answer, error)
}
