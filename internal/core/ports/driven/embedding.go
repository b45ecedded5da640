package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations must be safe for concurrent use and deterministic:
// identical input text yields identical vectors of a fixed dimension
// for a given provider instance. The vector store relies on both
// properties.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - Hosted APIs (text-embedding-3-small and friends)
//   - A caching decorator over either
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// This is more efficient than calling Embed in a loop and is what
	// the vector store uses when adding documents.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768, 1024).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources and flushes any caches.
	Close() error
}
