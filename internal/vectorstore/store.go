// Package vectorstore implements the session-scoped knowledge base:
// a flat L2 nearest-neighbour index over chunk embeddings, the
// id -> entry document table and the source registry, persisted per
// session as three artifacts (index, document table, source registry).
package vectorstore

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
	"github.com/grounded-labs/grounder/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Artifact filenames within a session directory.
const (
	indexFile     = "index.gob"
	documentsFile = "documents.gob"
	sourcesFile   = "sources.json"
)

// indexArtifact is the serialised form of the flat index.
type indexArtifact struct {
	Dims    int
	IDs     []int
	Vectors [][]float32
}

// Store is the vector store for one live session. All mutating
// operations are serialised by the store's lock; searches take a read
// lock so they never observe a half-written index.
type Store struct {
	dir      string
	embedder driven.EmbeddingService

	mu        sync.RWMutex
	sessionID string
	dimension int
	index     *flatIndex
	documents map[int]domain.DocumentEntry
	sources   map[string]domain.SourceRecord
	closed    bool

	now func() time.Time
}

// Open creates a store rooted at dir with a fresh session derived from
// the current time.
func Open(dir string, embedder driven.EmbeddingService) (*Store, error) {
	return OpenSession(dir, newSessionID(time.Now()), embedder)
}

// OpenSession creates a store bound to an existing session id, loading
// that session's persisted artifacts when both the index and document
// table exist. A missing or corrupt source registry is non-fatal and
// treated as "no sources yet".
func OpenSession(dir, sessionID string, embedder driven.EmbeddingService) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("open vector store: %w: empty directory", domain.ErrInvalidInput)
	}

	s := &Store{
		dir:       dir,
		embedder:  embedder,
		sessionID: sessionID,
		documents: make(map[int]domain.DocumentEntry),
		sources:   make(map[string]domain.SourceRecord),
		now:       time.Now,
	}

	if err := os.MkdirAll(s.sessionDir(), 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	s.load()
	logger.Info("vector store ready: session %s, %d documents", s.sessionID, len(s.documents))
	return s, nil
}

// SessionID returns the current session identifier.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Count returns the number of stored document entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// AddDocuments embeds chunks that lack an embedding in a single batch
// call, assigns monotonic ids, updates the source registry and
// persists the session. Returned ids are positional with the input.
//
// Embedding failure aborts the call before any state is touched.
// Persist failure is returned as an error but leaves the in-memory
// state usable for subsequent calls.
func (s *Store) AddDocuments(ctx context.Context, chunks []domain.Chunk) ([]int, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	// Batch-embed outside the lock: embedding dominates latency and
	// must not block concurrent searches.
	embeddings := make([][]float32, len(chunks))
	var missingTexts []string
	var missingIdx []int
	for i, ch := range chunks {
		if len(ch.Embedding) > 0 {
			embeddings[i] = ch.Embedding
			continue
		}
		missingTexts = append(missingTexts, ch.Text)
		missingIdx = append(missingIdx, i)
	}
	if len(missingTexts) > 0 {
		if s.embedder == nil {
			return nil, domain.ErrEmbeddingUnavailable
		}
		logger.Debug("vector store: embedding %d of %d chunks", len(missingTexts), len(chunks))
		vecs, err := s.embedder.EmbedBatch(ctx, missingTexts)
		if err != nil {
			return nil, fmt.Errorf("generate embeddings: %w", err)
		}
		if len(vecs) != len(missingTexts) {
			return nil, fmt.Errorf("generate embeddings: got %d vectors for %d texts", len(vecs), len(missingTexts))
		}
		for i, idx := range missingIdx {
			embeddings[idx] = vecs[i]
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrStoreClosed
	}

	// Validate every width before binding, so a rejected batch on a
	// fresh store leaves the dimension unbound.
	width := s.dimension
	if width == 0 {
		width = len(embeddings[0])
	}
	for i, vec := range embeddings {
		if len(vec) != width {
			return nil, fmt.Errorf("chunk %d: %w: got %d, want %d",
				i, domain.ErrDimensionMismatch, len(vec), width)
		}
	}

	// Bind the dimension exactly once, on first successful addition.
	if s.dimension == 0 {
		s.dimension = width
		s.index = newFlatIndex(width)
		logger.Info("vector store: bound dimension %d", width)
	}

	startID := s.nextID()
	ids := make([]int, len(chunks))
	for i, ch := range chunks {
		id := startID + i
		norm := normalize(embeddings[i])
		if err := s.index.add(id, norm); err != nil {
			return nil, fmt.Errorf("index chunk %d: %w", i, err)
		}
		s.documents[id] = domain.DocumentEntry{
			ID:        id,
			Text:      ch.Text,
			Metadata:  ch.Metadata,
			Embedding: norm,
		}
		ids[i] = id
		s.recordSource(ch.Metadata)
	}

	if err := s.persist(); err != nil {
		logger.Warn("vector store: persist failed: %v", err)
		return nil, fmt.Errorf("persist session %s: %w", s.sessionID, err)
	}

	logger.Debug("vector store: added %d documents (ids %d..%d)", len(ids), ids[0], ids[len(ids)-1])
	return ids, nil
}

// Search embeds the query, normalises it and returns up to k entries
// ranked by ascending distance. An unbound or empty index yields an
// empty result: that is the normal "empty knowledge base" condition,
// not an error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]domain.DocumentEntry, error) {
	if k <= 0 {
		return []domain.DocumentEntry{}, nil
	}

	s.mu.RLock()
	empty := s.index == nil || len(s.documents) == 0
	s.mu.RUnlock()
	if empty {
		logger.Debug("vector store: search on empty store")
		return []domain.DocumentEntry{}, nil
	}

	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// A stored session reopened under a different embedding model can
	// produce a query vector of the wrong width.
	if len(queryVec) != s.dimension {
		return nil, fmt.Errorf("query: %w: got %d, index bound to %d",
			domain.ErrDimensionMismatch, len(queryVec), s.dimension)
	}

	ids, _ := s.index.search(queryVec, k)
	results := make([]domain.DocumentEntry, 0, k)
	for _, id := range ids {
		if id < 0 {
			continue // fewer than k available
		}
		entry, ok := s.documents[id]
		if !ok {
			continue
		}
		results = append(results, entry)
	}

	logger.Debug("vector store: %d results for query %.30q", len(results), query)
	return results, nil
}

// Clear removes the current session's artifacts, empties the in-memory
// tables while keeping the bound dimension, and re-persists the empty
// state. The session id is unchanged.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}

	for _, path := range []string{s.indexPath(), s.documentsPath(), s.sourcesPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("vector store: remove %s: %v", path, err)
		}
	}

	if s.dimension > 0 {
		s.index = newFlatIndex(s.dimension)
	} else {
		s.index = nil
	}
	s.documents = make(map[int]domain.DocumentEntry)
	s.sources = make(map[string]domain.SourceRecord)

	if err := s.persist(); err != nil {
		return fmt.Errorf("persist cleared session %s: %w", s.sessionID, err)
	}
	logger.Info("vector store: cleared session %s", s.sessionID)
	return nil
}

// StartNewSession generates a fresh time-derived session id, repoints
// storage at that session's namespace and reinitialises an empty
// store. The previous session's artifacts stay on disk.
func (s *Store) StartNewSession(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", domain.ErrStoreClosed
	}

	// Bump the timestamp until the id is new for this store root, so
	// rapid restarts never collide with a session already on disk.
	t := s.now()
	id := newSessionID(t)
	for id == s.sessionID || fileExists(filepath.Join(s.dir, id)) {
		t = t.Add(time.Nanosecond)
		id = newSessionID(t)
	}

	// Create the namespace first; a failed mkdir must leave the store
	// pointing at the old, still-valid session.
	if err := os.MkdirAll(filepath.Join(s.dir, id), 0o700); err != nil {
		return "", fmt.Errorf("create session directory: %w", err)
	}

	s.sessionID = id
	s.dimension = 0
	s.index = nil
	s.documents = make(map[int]domain.DocumentEntry)
	s.sources = make(map[string]domain.SourceRecord)

	logger.Info("vector store: started session %s", s.sessionID)
	return s.sessionID, nil
}

// Sources returns a snapshot of the source registry.
func (s *Store) Sources(_ context.Context) (map[string]domain.SourceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.SourceRecord, len(s.sources))
	for k, v := range s.sources {
		out[k] = v
	}
	return out, nil
}

// Close persists the current state and marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.persist(); err != nil {
		return fmt.Errorf("persist on close: %w", err)
	}
	return nil
}

// nextID returns max(existing ids)+1, or 0 for an empty table.
// Caller must hold the lock.
func (s *Store) nextID() int {
	next := 0
	for id := range s.documents {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// recordSource creates or updates the SourceRecord for one added
// chunk. Caller must hold the lock.
func (s *Store) recordSource(meta domain.ChunkMetadata) {
	if meta.Source == "" {
		return
	}

	nowUnix := s.now().Unix()
	rec, ok := s.sources[meta.Source]
	if !ok {
		rec = domain.SourceRecord{
			Title:      meta.Title,
			SourceType: meta.SourceType,
			FirstAdded: nowUnix,
		}
		if rec.Title == "" {
			rec.Title = "Untitled"
		}
	}
	rec.ChunkCount++
	rec.LastUpdated = nowUnix
	s.sources[meta.Source] = rec
}

func (s *Store) sessionDir() string    { return filepath.Join(s.dir, s.sessionID) }
func (s *Store) indexPath() string     { return filepath.Join(s.sessionDir(), indexFile) }
func (s *Store) documentsPath() string { return filepath.Join(s.sessionDir(), documentsFile) }
func (s *Store) sourcesPath() string   { return filepath.Join(s.sessionDir(), sourcesFile) }

// persist writes the three session artifacts. Caller must hold the lock.
func (s *Store) persist() error {
	if s.index != nil {
		art := indexArtifact{Dims: s.index.dims, IDs: s.index.ids, Vectors: s.index.vectors}
		if err := writeGob(s.indexPath(), art); err != nil {
			return fmt.Errorf("write index: %w", err)
		}
	}

	if err := writeGob(s.documentsPath(), s.documents); err != nil {
		return fmt.Errorf("write document table: %w", err)
	}

	data, err := json.MarshalIndent(s.sources, "", "  ")
	if err != nil {
		return fmt.Errorf("encode source registry: %w", err)
	}
	if err := os.WriteFile(s.sourcesPath(), data, 0o600); err != nil {
		return fmt.Errorf("write source registry: %w", err)
	}
	return nil
}

// load restores session state from disk. Requires both the index and
// document-table artifacts; anything less starts empty. Errors are
// logged, never fatal: a damaged session begins again empty.
func (s *Store) load() {
	if !fileExists(s.indexPath()) || !fileExists(s.documentsPath()) {
		logger.Debug("vector store: no persisted state for session %s", s.sessionID)
		return
	}

	var art indexArtifact
	if err := readGob(s.indexPath(), &art); err != nil {
		logger.Warn("vector store: load index: %v", err)
		return
	}

	documents := make(map[int]domain.DocumentEntry)
	if err := readGob(s.documentsPath(), &documents); err != nil {
		logger.Warn("vector store: load document table: %v", err)
		return
	}

	s.dimension = art.Dims
	s.index = &flatIndex{dims: art.Dims, ids: art.IDs, vectors: art.Vectors}
	s.documents = documents

	// The source registry is best-effort: missing or corrupt means
	// "no sources yet".
	data, err := os.ReadFile(s.sourcesPath())
	if err == nil {
		sources := make(map[string]domain.SourceRecord)
		if jsonErr := json.Unmarshal(data, &sources); jsonErr == nil {
			s.sources = sources
		} else {
			logger.Warn("vector store: corrupt source registry, starting empty: %v", jsonErr)
		}
	}

	logger.Info("vector store: loaded %d documents, %d sources (session %s)",
		len(s.documents), len(s.sources), s.sessionID)
}

// newSessionID derives a session identifier from a creation time.
func newSessionID(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeGob(path string, v any) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(v)
}
