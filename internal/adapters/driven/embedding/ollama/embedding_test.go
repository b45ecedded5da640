package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

func newTestServer(t *testing.T, dims int, calls *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if calls != nil {
				*calls = append(*calls, req.Input)
			}
			vecs := make([][]float32, len(req.Input))
			for i := range vecs {
				v := make([]float32, dims)
				v[0] = float32(i + 1)
				vecs[i] = v
			}
			json.NewEncoder(w).Encode(embedResponse{Embeddings: vecs})
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestEmbeddingService_Embed(t *testing.T) {
	server := newTestServer(t, 4, nil)
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 4})
	defer svc.Close()

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestEmbeddingService_EmbedBatch_SplitsLargeInput(t *testing.T) {
	var calls [][]string
	server := newTestServer(t, 4, &calls)
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 4})
	defer svc.Close()

	texts := make([]string, maxBatchSize+5)
	for i := range texts {
		texts[i] = "text"
	}

	vecs, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, len(texts))
	require.Len(t, calls, 2)
	assert.Len(t, calls[0], maxBatchSize)
	assert.Len(t, calls[1], 5)
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://unused"})
	defer svc.Close()

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbeddingService_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})
	defer svc.Close()

	_, err := svc.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbeddingService_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{}})
	}))
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})
	defer svc.Close()

	_, err := svc.Embed(context.Background(), "hello")
	require.Error(t, err)
}

func TestEmbeddingService_Ping(t *testing.T) {
	server := newTestServer(t, 4, nil)
	defer server.Close()

	svc := NewEmbeddingService(Config{BaseURL: server.URL})
	defer svc.Close()

	assert.NoError(t, svc.Ping(context.Background()))

	svc2 := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	defer svc2.Close()
	assert.Error(t, svc2.Ping(context.Background()))
}

func TestEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	defer svc.Close()

	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, DefaultModel, svc.ModelName())
}
