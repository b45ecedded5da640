package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
)

// Ensure TextExtractor implements the interface.
var _ driven.Extractor = (*TextExtractor)(nil)

// TextExtractor handles plain-text uploads (.txt, .md and unknown
// extensions). Content must accompany the request; there is nothing to
// fetch for an uploaded file.
type TextExtractor struct {
	sourceType domain.SourceType
}

// NewTextExtractor creates a plain-text extractor producing the given
// source type.
func NewTextExtractor(sourceType domain.SourceType) *TextExtractor {
	return &TextExtractor{sourceType: sourceType}
}

// Type returns the source type this extractor produces.
func (e *TextExtractor) Type() domain.SourceType {
	return e.sourceType
}

// Extract validates the uploaded bytes as text and wraps them with
// filename-derived metadata.
func (e *TextExtractor) Extract(_ context.Context, source string, content []byte) (*driven.Extraction, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: no content uploaded for %s", domain.ErrInvalidInput, source)
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

// titleFromFilename derives a readable title from a file name.
func titleFromFilename(source string) string {
	name := filepath.Base(source)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	if name == "" {
		return source
	}
	return name
}
