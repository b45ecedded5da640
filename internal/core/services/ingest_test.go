package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grounded-labs/grounder/internal/chunker"
	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
)

// fakeStore is an in-memory driven.VectorStore for service tests.
type fakeStore struct {
	mu          sync.Mutex
	sessionID   string
	entries     []domain.DocumentEntry
	searchHits  []domain.DocumentEntry
	searchErr   error
	addErr      error
	newSessions int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessionID: "session-1"}
}

func (f *fakeStore) AddDocuments(_ context.Context, chunks []domain.Chunk) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	ids := make([]int, len(chunks))
	for i, ch := range chunks {
		id := len(f.entries)
		f.entries = append(f.entries, domain.DocumentEntry{ID: id, Text: ch.Text, Metadata: ch.Metadata})
		ids[i] = id
	}
	return ids, nil
}

func (f *fakeStore) Search(_ context.Context, _ string, k int) ([]domain.DocumentEntry, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k > len(f.searchHits) {
		k = len(f.searchHits)
	}
	return f.searchHits[:k], nil
}

func (f *fakeStore) Clear(context.Context) error { return nil }

func (f *fakeStore) StartNewSession(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.newSessions++
	f.sessionID = fmt.Sprintf("session-%d", f.newSessions+1)
	f.entries = nil
	return f.sessionID, nil
}

func (f *fakeStore) SessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessionID
}

func (f *fakeStore) Sources(context.Context) (map[string]domain.SourceRecord, error) {
	return map[string]domain.SourceRecord{}, nil
}

func (f *fakeStore) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *fakeStore) Close() error { return nil }

// fakeExtractor returns canned text, failing for sources listed in
// failFor. It tracks concurrent in-flight calls.
type fakeExtractor struct {
	text     string
	failFor  map[string]bool
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (e *fakeExtractor) Type() domain.SourceType { return domain.SourceText }

func (e *fakeExtractor) Extract(_ context.Context, source string, _ []byte) (*driven.Extraction, error) {
	cur := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		seen := e.maxSeen.Load()
		if cur <= seen || e.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}

	if e.failFor[source] {
		return nil, errors.New("extraction blew up")
	}
	return &driven.Extraction{
		Text:     e.text,
		Metadata: domain.ChunkMetadata{Source: source, SourceType: domain.SourceText},
	}, nil
}

// fakeRegistry resolves every source to one extractor.
type fakeRegistry struct {
	extractor driven.Extractor
	err       error
}

func (r *fakeRegistry) Resolve(string) (driven.Extractor, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.extractor, nil
}

func newIngestFixture(ext *fakeExtractor, store *fakeStore, opts ...IngestOption) *IngestService {
	return NewIngestService(&fakeRegistry{extractor: ext}, chunker.New(), store, opts...)
}

func TestIngestService_Ingest_Success(t *testing.T) {
	store := newFakeStore()
	ext := &fakeExtractor{text: "Short study notes about chemistry."}
	svc := newIngestFixture(ext, store)

	report, err := svc.Ingest(context.Background(), domain.IngestRequest{
		URLs:  []string{"https://example.com/a", "https://example.com/b"},
		Files: []domain.FileUpload{{Name: "notes.txt", Content: []byte("irrelevant, extractor is canned")}},
	})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 3, report.DocumentCount)
	assert.Equal(t, "session-1", report.SessionID)
	assert.Contains(t, report.Message, "3 sources")
}

func TestIngestService_Ingest_NoSources(t *testing.T) {
	svc := newIngestFixture(&fakeExtractor{text: "x"}, newFakeStore())

	_, err := svc.Ingest(context.Background(), domain.IngestRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestService_Ingest_PartialFailure(t *testing.T) {
	store := newFakeStore()
	ext := &fakeExtractor{
		text:    "Some usable content for the knowledge base.",
		failFor: map[string]bool{"https://example.com/bad": true},
	}
	svc := newIngestFixture(ext, store)

	report, err := svc.Ingest(context.Background(), domain.IngestRequest{
		URLs: []string{"https://example.com/good", "https://example.com/bad"},
	})
	require.NoError(t, err)

	assert.True(t, report.Success, "batch with one good source still succeeds")
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "https://example.com/bad")
	assert.Equal(t, 1, report.DocumentCount)
}

func TestIngestService_Ingest_AllFail(t *testing.T) {
	store := newFakeStore()
	ext := &fakeExtractor{
		text:    "unused",
		failFor: map[string]bool{"https://a": true, "https://b": true},
	}
	svc := newIngestFixture(ext, store)

	report, err := svc.Ingest(context.Background(), domain.IngestRequest{
		URLs: []string{"https://a", "https://b"},
	})
	require.NoError(t, err)

	assert.False(t, report.Success)
	assert.Len(t, report.Errors, 2)
	assert.Equal(t, 0, report.DocumentCount)
}

func TestIngestService_Ingest_NewSession(t *testing.T) {
	store := newFakeStore()
	svc := newIngestFixture(&fakeExtractor{text: "fresh start content"}, store)

	report, err := svc.Ingest(context.Background(), domain.IngestRequest{
		URLs:       []string{"https://example.com/a"},
		NewSession: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.newSessions)
	assert.Equal(t, "session-2", report.SessionID)
}

func TestIngestService_Ingest_StoreFailureReported(t *testing.T) {
	store := newFakeStore()
	store.addErr = domain.ErrEmbeddingUnavailable
	svc := newIngestFixture(&fakeExtractor{text: "content that will not embed"}, store)

	report, err := svc.Ingest(context.Background(), domain.IngestRequest{
		URLs: []string{"https://example.com/a"},
	})
	require.NoError(t, err)

	assert.False(t, report.Success)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], domain.ErrEmbeddingUnavailable.Error())
}

func TestIngestService_Ingest_BoundedConcurrency(t *testing.T) {
	store := newFakeStore()
	ext := &fakeExtractor{text: "parallel content", delay: 20 * time.Millisecond}
	svc := newIngestFixture(ext, store, WithMaxConcurrent(2))

	var urls []string
	for i := 0; i < 8; i++ {
		urls = append(urls, fmt.Sprintf("https://example.com/%d", i))
	}

	report, err := svc.Ingest(context.Background(), domain.IngestRequest{URLs: urls})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.LessOrEqual(t, ext.maxSeen.Load(), int32(2), "semaphore must cap parallel extractions")
}

func TestIngestService_Ingest_EmptyExtraction(t *testing.T) {
	store := newFakeStore()
	ext := &fakeExtractor{text: "   \n  "}
	svc := newIngestFixture(ext, store)

	report, err := svc.Ingest(context.Background(), domain.IngestRequest{
		URLs: []string{"https://example.com/blank"},
	})
	require.NoError(t, err)

	assert.False(t, report.Success)
	require.Len(t, report.Errors, 1)
	assert.True(t, strings.Contains(report.Errors[0], domain.ErrEmptyDocument.Error()))
}
