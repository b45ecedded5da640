package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

func TestTextExtractor_Extract(t *testing.T) {
	e := NewTextExtractor(domain.SourceText)

	got, err := e.Extract(context.Background(), "lecture_notes-week1.txt", []byte("Some notes."))
	require.NoError(t, err)
	assert.Equal(t, "Some notes.", got.Text)
	assert.Equal(t, "lecture notes week1", got.Metadata.Title)
	assert.Equal(t, domain.SourceText, got.Metadata.SourceType)
}

func TestTextExtractor_Extract_Errors(t *testing.T) {
	e := NewTextExtractor(domain.SourceText)
	ctx := context.Background()

	t.Run("missing content", func(t *testing.T) {
		_, err := e.Extract(ctx, "a.txt", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("binary content", func(t *testing.T) {
		_, err := e.Extract(ctx, "a.txt", []byte{0xff, 0xfe, 0x00, 0x80})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("blank content", func(t *testing.T) {
		_, err := e.Extract(ctx, "a.txt", []byte("  \n "))
		assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	})
}

func TestFileExtractor_Extract(t *testing.T) {
	ctx := context.Background()

	t.Run("pre-extracted pdf text with page markers", func(t *testing.T) {
		e := NewPDFExtractor()
		got, err := e.Extract(ctx, "paper.pdf", []byte("[Page 1]\nIntroduction text."))
		require.NoError(t, err)
		assert.Equal(t, domain.SourcePDF, got.Metadata.SourceType)
		assert.Contains(t, got.Text, "[Page 1]")
	})

	t.Run("binary pdf rejected", func(t *testing.T) {
		e := NewPDFExtractor()
		_, err := e.Extract(ctx, "paper.pdf", []byte("%PDF-1.7 binary stuff"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("binary docx rejected", func(t *testing.T) {
		e := NewDocxExtractor()
		_, err := e.Extract(ctx, "report.docx", []byte("PK\x03\x04zipdata"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("docx text accepted", func(t *testing.T) {
		e := NewDocxExtractor()
		got, err := e.Extract(ctx, "report.docx", []byte("Quarterly summary."))
		require.NoError(t, err)
		assert.Equal(t, domain.SourceDOCX, got.Metadata.SourceType)
	})
}
