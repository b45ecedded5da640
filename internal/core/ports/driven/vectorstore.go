package driven

import (
	"context"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

// VectorStore owns the session-scoped knowledge base: a nearest-neighbour
// index over chunk embeddings, the id -> entry document table and the
// source registry, persisted per session.
//
// AddDocuments, Clear and StartNewSession are serialised internally;
// Search may run concurrently with other searches and never observes a
// half-written index.
type VectorStore interface {
	// AddDocuments embeds any chunks that lack an embedding (one batch
	// call), assigns monotonically increasing ids, updates the source
	// registry and persists. Returned ids correspond positionally to
	// the input chunks. If embedding fails, no state is mutated and no
	// ids are returned.
	AddDocuments(ctx context.Context, chunks []domain.Chunk) ([]int, error)

	// Search embeds the query and returns up to k entries ranked
	// nearest-first. An empty or unbound index yields an empty slice,
	// not an error.
	Search(ctx context.Context, query string, k int) ([]domain.DocumentEntry, error)

	// Clear removes the current session's on-disk artifacts, empties the
	// in-memory tables (keeping the bound dimension, if any) and
	// re-persists the empty state.
	Clear(ctx context.Context) error

	// StartNewSession generates a fresh session id, repoints storage at
	// that session's namespace and reinitialises an empty store.
	// Prior sessions' artifacts are retained on disk.
	StartNewSession(ctx context.Context) (string, error)

	// SessionID returns the current session identifier.
	SessionID() string

	// Sources returns a snapshot of the source registry keyed by
	// source identifier.
	Sources(ctx context.Context) (map[string]domain.SourceRecord, error)

	// Count returns the number of stored document entries.
	Count() int

	// Close flushes state and releases resources.
	Close() error
}
