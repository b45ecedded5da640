package extractors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Sample Article</title>
  <style>body { color: red; }</style>
  <script>console.log("noise");</script>
</head>
<body>
  <h1>Heading One</h1>
  <p>First paragraph with <b>bold</b> text.</p>
  <p>Second paragraph.</p>
  <noscript>Enable JS</noscript>
</body>
</html>`

func TestWebExtractor_Extract_FromContent(t *testing.T) {
	e := NewWebExtractor(NewFetcher(FetcherConfig{}))

	got, err := e.Extract(context.Background(), "https://example.com/a", []byte(samplePage))
	require.NoError(t, err)

	assert.Equal(t, "Sample Article", got.Metadata.Title)
	assert.Equal(t, domain.SourceWeb, got.Metadata.SourceType)
	assert.Equal(t, "https://example.com/a", got.Metadata.Source)

	assert.Contains(t, got.Text, "Heading One")
	assert.Contains(t, got.Text, "First paragraph with bold text.")
	assert.NotContains(t, got.Text, "console.log")
	assert.NotContains(t, got.Text, "color: red")
	assert.NotContains(t, got.Text, "Enable JS")

	// Block elements become line boundaries.
	lines := strings.Split(got.Text, "\n")
	assert.Contains(t, lines, "Heading One")
	assert.Contains(t, lines, "Second paragraph.")
}

func TestWebExtractor_Extract_Fetches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	e := NewWebExtractor(NewFetcher(FetcherConfig{}))
	got, err := e.Extract(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Contains(t, got.Text, "Heading One")
}

func TestWebExtractor_Extract_EmptyPage(t *testing.T) {
	e := NewWebExtractor(NewFetcher(FetcherConfig{}))

	_, err := e.Extract(context.Background(), "https://example.com/empty",
		[]byte("<html><body><script>x()</script></body></html>"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestFetcher_Get_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	_, err := NewFetcher(FetcherConfig{}).Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func TestFetcher_Get_CapsBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer server.Close()

	f := NewFetcher(FetcherConfig{MaxBytes: 100})
	body, err := f.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}
