package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates a source produced no usable text after
	// cleaning. There is nothing to index for such a source.
	ErrEmptyDocument = errors.New("empty document")

	// ErrUnsupportedType indicates no extractor handles the source.
	ErrUnsupportedType = errors.New("unsupported source type")

	// ErrInvalidURL indicates a source URL is not http(s).
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or failed. Adding documents is impossible without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrStoreClosed indicates the vector store has been closed.
	ErrStoreClosed = errors.New("vector store closed")

	// ErrDimensionMismatch indicates an embedding does not match the
	// dimension the index was bound to.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
