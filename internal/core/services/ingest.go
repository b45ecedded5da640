package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grounded-labs/grounder/internal/chunker"
	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
	"github.com/grounded-labs/grounder/internal/core/ports/driving"
	"github.com/grounded-labs/grounder/internal/events"
	"github.com/grounded-labs/grounder/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// Ingestion defaults.
const (
	DefaultMaxConcurrent = 5
	DefaultSourceTimeout = 60 * time.Second
)

// IngestService runs the ingestion pipeline: resolve an extractor per
// source, extract text, chunk it and add the chunks to the session's
// knowledge base. Sources are processed concurrently under a bounded
// semaphore; one bad source never sinks the batch.
type IngestService struct {
	registry driven.ExtractorRegistry
	chunker  *chunker.Chunker
	store    driven.VectorStore
	events   *events.Broadcaster

	maxConcurrent int
	sourceTimeout time.Duration
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithMaxConcurrent bounds how many sources are processed in parallel.
func WithMaxConcurrent(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

// WithSourceTimeout sets the per-source processing budget. The batch
// deadline scales with the number of sources.
func WithSourceTimeout(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d > 0 {
			s.sourceTimeout = d
		}
	}
}

// WithIngestEvents attaches a progress broadcaster.
func WithIngestEvents(b *events.Broadcaster) IngestOption {
	return func(s *IngestService) {
		s.events = b
	}
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	registry driven.ExtractorRegistry,
	textChunker *chunker.Chunker,
	store driven.VectorStore,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		registry:      registry,
		chunker:       textChunker,
		store:         store,
		maxConcurrent: DefaultMaxConcurrent,
		sourceTimeout: DefaultSourceTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sourceJob is one URL or uploaded file queued for processing.
type sourceJob struct {
	source  string
	content []byte // nil for URLs
}

// Ingest processes every source in the request and reports per-source
// outcomes. The batch succeeds when at least one source yields chunks.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestReport, error) {
	jobs := make([]sourceJob, 0, len(req.URLs)+len(req.Files))
	for _, u := range req.URLs {
		jobs = append(jobs, sourceJob{source: u})
	}
	for _, f := range req.Files {
		jobs = append(jobs, sourceJob{source: f.Name, content: f.Content})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("ingest: %w: no sources in request", domain.ErrInvalidInput)
	}

	logger.Section("Ingestion")
	logger.Info("ingest: %d sources (%d urls, %d files)", len(jobs), len(req.URLs), len(req.Files))

	if req.NewSession {
		id, err := s.store.StartNewSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("start new session: %w", err)
		}
		s.events.Emit(events.PhaseSession, events.TypeInfo, "started session "+id)
	}

	// The whole batch shares one deadline that scales with its size, so
	// a large batch is not starved by a budget meant for a single URL.
	batchCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout*time.Duration(len(jobs)))
	defer cancel()

	var (
		mu        sync.Mutex
		added     int
		succeeded int
		errs      []string
	)

	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for _, job := range jobs {
		wg.Add(1)
		go func(job sourceJob) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-batchCtx.Done():
				mu.Lock()
				errs = append(errs, fmt.Sprintf("%s: %v", job.source, batchCtx.Err()))
				mu.Unlock()
				return
			}

			n, err := s.processSource(batchCtx, job)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", job.source, err))
				s.events.Emit(events.PhaseIngestion, events.TypeError, fmt.Sprintf("failed %s: %v", job.source, err))
				return
			}
			added += n
			succeeded++
			s.events.EmitProgress(events.PhaseIngestion,
				fmt.Sprintf("ingested %s (%d chunks)", job.source, n),
				float64(succeeded)/float64(len(jobs)))
		}(job)
	}
	wg.Wait()

	report := &domain.IngestReport{
		Success:       succeeded > 0,
		DocumentCount: s.store.Count(),
		SessionID:     s.store.SessionID(),
		Errors:        errs,
	}
	switch {
	case succeeded == len(jobs):
		report.Message = fmt.Sprintf("Ingested %d sources (%d chunks)", succeeded, added)
		s.events.Emit(events.PhaseComplete, events.TypeSuccess, report.Message)
	case succeeded > 0:
		report.Message = fmt.Sprintf("Ingested %d of %d sources (%d chunks); %d failed",
			succeeded, len(jobs), added, len(errs))
		s.events.Emit(events.PhaseComplete, events.TypeWarning, report.Message)
	default:
		report.Message = "No sources could be ingested"
		s.events.Emit(events.PhaseComplete, events.TypeError, report.Message)
	}

	logger.Info("ingest: done, %s", report.Message)
	return report, nil
}

// processSource runs extract -> chunk -> store for one source and
// returns the number of chunks added.
func (s *IngestService) processSource(ctx context.Context, job sourceJob) (int, error) {
	extractor, err := s.registry.Resolve(job.source)
	if err != nil {
		return 0, err
	}

	s.events.Emit(events.PhaseExtraction, events.TypeInfo, "extracting "+job.source)
	extraction, err := extractor.Extract(ctx, job.source, job.content)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	chunks := s.chunker.Chunk(extraction.Text, extraction.Metadata)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("chunk: %w", domain.ErrEmptyDocument)
	}
	s.events.Emit(events.PhaseChunking, events.TypeInfo,
		fmt.Sprintf("chunked %s into %d pieces", job.source, len(chunks)))

	ids, err := s.store.AddDocuments(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("store: %w", err)
	}
	s.events.Emit(events.PhaseStorage, events.TypeInfo,
		fmt.Sprintf("stored %d chunks from %s", len(ids), job.source))

	return len(ids), nil
}
