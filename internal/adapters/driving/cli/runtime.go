package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grounded-labs/grounder/internal/adapters/driven/embedding/cache"
	"github.com/grounded-labs/grounder/internal/adapters/driven/embedding/ollama"
	"github.com/grounded-labs/grounder/internal/adapters/driven/embedding/openai"
	"github.com/grounded-labs/grounder/internal/adapters/driven/llm/openrouter"
	"github.com/grounded-labs/grounder/internal/chunker"
	"github.com/grounded-labs/grounder/internal/config"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
	"github.com/grounded-labs/grounder/internal/core/services"
	"github.com/grounded-labs/grounder/internal/events"
	"github.com/grounded-labs/grounder/internal/extractors"
	"github.com/grounded-labs/grounder/internal/logger"
	"github.com/grounded-labs/grounder/internal/vectorstore"
)

// sessionFile remembers the live session id between CLI invocations,
// so `grounder ingest` followed by `grounder ask` share a knowledge
// base.
const sessionFile = "current_session"

// runtime is the wired application stack behind every command.
type runtime struct {
	cfg      config.Config
	embedder driven.EmbeddingService
	store    driven.VectorStore
	llm      driven.LLMService
	ingestor *services.IngestService
	events   *events.Broadcaster
}

// newRuntime loads configuration and builds the adapter stack.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.EmbedCache {
		cached, err := cache.New(embedder,
			cache.WithPersistence(filepath.Join(cfg.Storage.DataDir, "embeddings.db")))
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		embedder = cached
	}

	store, err := openSessionStore(cfg.Storage.DataDir, embedder)
	if err != nil {
		return nil, err
	}

	broadcaster := events.NewBroadcaster()
	broadcaster.Subscribe(events.LogObserver())

	registry := extractors.NewRegistry(extractors.NewFetcher(extractors.FetcherConfig{}))
	textChunker := chunker.New(
		chunker.WithChunkSizeTokens(cfg.Chunking.SizeTokens),
		chunker.WithOverlapFraction(cfg.Chunking.OverlapFraction),
	)

	ingestor := services.NewIngestService(registry, textChunker, store,
		services.WithMaxConcurrent(cfg.Ingestion.MaxConcurrent),
		services.WithSourceTimeout(time.Duration(cfg.Ingestion.SourceTimeoutSecs)*time.Second),
		services.WithIngestEvents(broadcaster),
	)

	r := &runtime{
		cfg:      cfg,
		embedder: embedder,
		store:    store,
		ingestor: ingestor,
		events:   broadcaster,
	}

	if cfg.LLM.APIKey != "" {
		llm, err := openrouter.NewLLMService(openrouter.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return nil, err
		}
		r.llm = llm
	}

	return r, nil
}

// buildEmbedder selects the embedding backend from configuration.
func buildEmbedder(cfg config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		model, dims := cfg.Embedding.Model, cfg.Embedding.Dimensions
		if model == "nomic-embed-text" {
			// The built-in default is an Ollama model; let the adapter
			// pick its own.
			model, dims = "", 0
		}
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			Model:      model,
			Dimensions: dims,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		return svc, nil
	default:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.OllamaURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	}
}

// answerer builds the answer service, failing when no LLM is
// configured.
func (r *runtime) answerer() (*services.AnswerService, error) {
	if r.llm == nil {
		return nil, fmt.Errorf("no LLM configured: set OPENROUTER_API_KEY or llm.api_key")
	}
	return services.NewAnswerService(r.store, r.llm,
		services.WithSystemPrompt(r.cfg.LLM.SystemPrompt),
		services.WithAnswerEvents(r.events),
	), nil
}

// close flushes and releases the stack. The live session id is written
// back first: it may have changed since openSessionStore recorded it
// (ingest --new-session, the HTTP session endpoints).
func (r *runtime) close() {
	if err := writeSessionID(r.cfg.Storage.DataDir, r.store.SessionID()); err != nil {
		logger.Warn("remember session id: %v", err)
	}
	if err := r.store.Close(); err != nil {
		logger.Warn("close store: %v", err)
	}
	if err := r.embedder.Close(); err != nil {
		logger.Warn("close embedder: %v", err)
	}
	if r.llm != nil {
		if err := r.llm.Close(); err != nil {
			logger.Warn("close llm: %v", err)
		}
	}
}

// openSessionStore resumes the remembered session or starts a new one,
// recording its id for the next invocation.
func openSessionStore(dataDir string, embedder driven.EmbeddingService) (driven.VectorStore, error) {
	sessionsDir := filepath.Join(dataDir, "sessions")

	var store driven.VectorStore
	var err error
	if id := readSessionID(dataDir); id != "" {
		store, err = vectorstore.OpenSession(sessionsDir, id, embedder)
	} else {
		store, err = vectorstore.Open(sessionsDir, embedder)
	}
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	if err := writeSessionID(dataDir, store.SessionID()); err != nil {
		logger.Warn("remember session id: %v", err)
	}
	return store, nil
}

func readSessionID(dataDir string) string {
	data, err := os.ReadFile(filepath.Join(dataDir, sessionFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeSessionID(dataDir string, id string) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataDir, sessionFile), []byte(id+"\n"), 0o600)
}
