package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
)

// Ensure FileExtractor implements the interface.
var _ driven.Extractor = (*FileExtractor)(nil)

// FileExtractor handles PDF and DOCX uploads whose text was extracted
// upstream (by the uploading client or a conversion step). Raw binary
// uploads are rejected: there is no in-process PDF or DOCX parser, and
// guessing at binary content would index garbage.
//
// Pre-extracted PDF text keeps its "[Page N]" markers so the chunker
// can attach page provenance to each chunk.
type FileExtractor struct {
	sourceType domain.SourceType
	magic      []byte
	format     string
}

// NewPDFExtractor creates an extractor for pre-extracted PDF text.
func NewPDFExtractor() *FileExtractor {
	return &FileExtractor{
		sourceType: domain.SourcePDF,
		magic:      []byte("%PDF"),
		format:     "PDF",
	}
}

// NewDocxExtractor creates an extractor for pre-extracted DOCX text.
func NewDocxExtractor() *FileExtractor {
	return &FileExtractor{
		sourceType: domain.SourceDOCX,
		magic:      []byte("PK\x03\x04"),
		format:     "DOCX",
	}
}

// Type returns the source type this extractor produces.
func (e *FileExtractor) Type() domain.SourceType {
	return e.sourceType
}

// Extract accepts the upload when it is already plain text and rejects
// raw binary files by their magic bytes.
func (e *FileExtractor) Extract(_ context.Context, source string, content []byte) (*driven.Extraction, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: no content uploaded for %s", domain.ErrInvalidInput, source)
	}
	if bytes.HasPrefix(content, e.magic) {
		return nil, fmt.Errorf("%w: %s is a binary %s file; upload extracted text instead",
			domain.ErrUnsupportedType, source, e.format)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not valid text", domain.ErrUnsupportedType, source)
	}

	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, source)
	}

	return &driven.Extraction{
		Text: text,
		Metadata: domain.ChunkMetadata{
			Source:     source,
			SourceType: e.sourceType,
			Title:      titleFromFilename(source),
		},
	}, nil
}
