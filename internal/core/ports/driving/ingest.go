package driving

import (
	"context"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

// Ingestor runs ingestion batches against the live session.
type Ingestor interface {
	// Ingest extracts, chunks, embeds and indexes every source in the
	// request. Individual source failures do not abort the batch; they
	// are collected in the report. Returns an error only when the
	// request itself is unusable.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestReport, error)
}
