package driven

import (
	"context"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

// Extraction is the raw text pulled out of one source, ready for
// chunking.
type Extraction struct {
	// Text is the extracted plain text.
	Text string

	// Metadata carries the source identifier, detected source type and
	// any extractor-specific fields (title, video id, page count).
	Metadata domain.ChunkMetadata
}

// Extractor turns one source (URL or uploaded file) into raw text plus
// metadata. Extractors do no chunking; the chunker's only contract with
// them is the SourceType field, which drives PDF-specific sizing and
// page tracking.
type Extractor interface {
	// Type returns the source type this extractor produces.
	Type() domain.SourceType

	// Extract pulls text from the source. Content is the raw bytes when
	// the document was uploaded with the request; when nil, the
	// extractor fetches the source itself.
	Extract(ctx context.Context, source string, content []byte) (*Extraction, error)
}

// ExtractorRegistry resolves the extractor responsible for a source.
type ExtractorRegistry interface {
	// Resolve picks an extractor based on the source URL or filename.
	// Returns domain.ErrUnsupportedType when no extractor applies.
	Resolve(source string) (Extractor, error)
}
