// Package cache decorates an embedding service with an in-memory LRU
// cache and optional SQLite persistence, so re-ingesting the same
// content never re-embeds it.
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/grounded-labs/grounder/internal/core/ports/driven"
	"github.com/grounded-labs/grounder/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// DefaultCapacity is the default number of in-memory cache entries.
const DefaultCapacity = 2048

// Service wraps an embedding provider with caching. Texts are
// preprocessed (whitespace collapsed, overlong input truncated at a
// sentence boundary) before both lookup and embedding, so trivially
// different renderings of the same content share a cache entry.
type Service struct {
	inner driven.EmbeddingService
	store *sqliteStore // nil when persistence is disabled

	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	items    map[string]*list.Element
	hits     uint64
	misses   uint64
}

type entry struct {
	key string
	vec []float32
}

// Option configures the cache.
type Option func(*Service) error

// WithCapacity sets the in-memory entry limit.
func WithCapacity(n int) Option {
	return func(s *Service) error {
		if n > 0 {
			s.capacity = n
		}
		return nil
	}
}

// WithPersistence backs the cache with a SQLite database at the given
// path, surviving restarts.
func WithPersistence(path string) Option {
	return func(s *Service) error {
		store, err := openSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("open embedding cache db: %w", err)
		}
		s.store = store
		return nil
	}
}

// New creates a caching decorator around inner.
func New(inner driven.EmbeddingService, opts ...Option) (*Service, error) {
	s := &Service{
		inner:    inner,
		capacity: DefaultCapacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Embed returns a cached embedding or generates and caches a new one.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch resolves each text against the cache and embeds only the
// misses, in one call to the inner provider. Results are positional
// with the input.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := s.inner.ModelName()
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	prepared := make([]string, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		prepared[i] = Preprocess(text)
		keys[i] = cacheKey(model, prepared[i])

		if vec, ok := s.lookup(ctx, keys[i]); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, prepared[i])
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		logger.Debug("embedding cache: %d/%d hits", len(texts), len(texts))
		return out, nil
	}

	vecs, err := s.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding cache: inner returned %d vectors for %d texts", len(vecs), len(missTexts))
	}

	for i, idx := range missIdx {
		out[idx] = vecs[i]
		s.put(ctx, keys[idx], model, vecs[i])
	}

	logger.Debug("embedding cache: %d/%d hits", len(texts)-len(missTexts), len(texts))
	return out, nil
}

// Dimensions returns the inner provider's embedding vector size.
func (s *Service) Dimensions() int { return s.inner.Dimensions() }

// ModelName returns the inner provider's model name.
func (s *Service) ModelName() string { return s.inner.ModelName() }

// Ping delegates to the inner provider.
func (s *Service) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

// Close closes the persistent store and the inner provider.
func (s *Service) Close() error {
	var firstErr error
	if s.store != nil {
		if err := s.store.close(); err != nil {
			firstErr = err
		}
	}
	if err := s.inner.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Stats reports cache hit and miss counts since creation.
func (s *Service) Stats() (hits, misses uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

// lookup checks memory first, then the persistent store. A persistent
// hit is promoted into memory.
func (s *Service) lookup(ctx context.Context, key string) ([]float32, bool) {
	s.mu.Lock()
	if el, ok := s.items[key]; ok {
		s.order.MoveToFront(el)
		s.hits++
		vec := el.Value.(*entry).vec
		s.mu.Unlock()
		return vec, true
	}
	s.mu.Unlock()

	if s.store != nil {
		if vec, err := s.store.get(ctx, key); err == nil && vec != nil {
			s.mu.Lock()
			s.hits++
			s.insert(key, vec)
			s.mu.Unlock()
			return vec, true
		}
	}

	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
	return nil, false
}

// put records a freshly generated embedding in both layers.
func (s *Service) put(ctx context.Context, key, model string, vec []float32) {
	s.mu.Lock()
	s.insert(key, vec)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.set(ctx, key, model, vec); err != nil {
			// Persistence is best-effort; the in-memory entry still serves.
			logger.Warn("embedding cache: persist entry: %v", err)
		}
	}
}

// insert adds an entry to the LRU, evicting from the back when over
// capacity. Caller must hold the lock.
func (s *Service) insert(key string, vec []float32) {
	if el, ok := s.items[key]; ok {
		s.order.MoveToFront(el)
		el.Value.(*entry).vec = vec
		return
	}
	s.items[key] = s.order.PushFront(&entry{key: key, vec: vec})
	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.items, oldest.Value.(*entry).key)
	}
}

// cacheKey derives a stable key from the model name and preprocessed
// text.
func cacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
