// Package config loads grounder configuration from a TOML file with
// environment variable overrides for secrets and deploy-time knobs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Ingestion IngestionConfig `toml:"ingestion"`
	Chunking  ChunkingConfig  `toml:"chunking"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `toml:"addr"`

	// APIKey, when set, must accompany requests in the X-API-Key header.
	APIKey string `toml:"api_key"`
}

// StorageConfig configures on-disk state.
type StorageConfig struct {
	// DataDir is the root for session artifacts and caches
	// (default ~/.grounder).
	DataDir string `toml:"data_dir"`

	// EmbedCache enables the persistent embedding cache.
	EmbedCache bool `toml:"embed_cache"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: "ollama" (default) or
	// "openai".
	Provider string `toml:"provider"`

	// OllamaURL is the Ollama base URL (default http://localhost:11434).
	OllamaURL string `toml:"ollama_url"`

	// APIKey authenticates against the OpenAI embeddings API. Only used
	// when Provider is "openai"; usually supplied via OPENAI_API_KEY.
	APIKey string `toml:"api_key"`

	// Model is the embedding model name (default nomic-embed-text).
	Model string `toml:"model"`

	// Dimensions is the vector size for the chosen model.
	Dimensions int `toml:"dimensions"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	// APIKey is the OpenRouter API key. Usually supplied via the
	// OPENROUTER_API_KEY environment variable rather than the file.
	APIKey string `toml:"api_key"`

	// BaseURL is the chat completions endpoint base.
	BaseURL string `toml:"base_url"`

	// Model is the generation model identifier.
	Model string `toml:"model"`

	// SystemPrompt overrides the default answering instructions.
	SystemPrompt string `toml:"system_prompt"`
}

// IngestionConfig bounds concurrent source processing.
type IngestionConfig struct {
	// MaxConcurrent is the number of sources processed in parallel.
	MaxConcurrent int `toml:"max_concurrent"`

	// SourceTimeoutSecs is the per-source processing budget; the
	// effective deadline scales with the number of sources in a request.
	SourceTimeoutSecs int `toml:"source_timeout_secs"`
}

// ChunkingConfig tunes the text chunker.
type ChunkingConfig struct {
	// SizeTokens is the token budget per chunk.
	SizeTokens int `toml:"size_tokens"`

	// OverlapFraction is the overlap between adjacent chunks.
	OverlapFraction float64 `toml:"overlap_fraction"`

	// RetrievalChunks is the default number of chunks retrieved per
	// question.
	RetrievalChunks int `toml:"retrieval_chunks"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			DataDir:    defaultDataDir(),
			EmbedCache: true,
		},
		Embedding: EmbeddingConfig{
			Provider:   "ollama",
			OllamaURL:  "http://localhost:11434",
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		LLM: LLMConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "meta-llama/llama-3.3-70b-instruct",
		},
		Ingestion: IngestionConfig{
			MaxConcurrent:     5,
			SourceTimeoutSecs: 60,
		},
		Chunking: ChunkingConfig{
			SizeTokens:      500,
			OverlapFraction: 0.1,
			RetrievalChunks: 5,
		},
	}
}

// Load reads the TOML file at path (when it exists), layers it over
// the defaults and applies environment overrides. An empty path means
// defaults plus environment only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file is fine; defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Secrets
// live here, never in the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("GROUNDER_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("GROUNDER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GROUNDER_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("GROUNDER_OLLAMA_URL"); v != "" {
		cfg.Embedding.OllamaURL = v
	}
	if v := os.Getenv("GROUNDER_EMBED_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("GROUNDER_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("GROUNDER_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("GROUNDER_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Ingestion.MaxConcurrent = n
		}
	}
}

// validate rejects configurations that cannot work.
func (c Config) validate() error {
	switch c.Embedding.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("config: embedding.provider must be ollama or openai, got %q", c.Embedding.Provider)
	}
	if c.Ingestion.MaxConcurrent <= 0 {
		return fmt.Errorf("config: ingestion.max_concurrent must be positive, got %d", c.Ingestion.MaxConcurrent)
	}
	if c.Chunking.SizeTokens <= 0 {
		return fmt.Errorf("config: chunking.size_tokens must be positive, got %d", c.Chunking.SizeTokens)
	}
	if c.Chunking.OverlapFraction < 0 || c.Chunking.OverlapFraction >= 1 {
		return fmt.Errorf("config: chunking.overlap_fraction must be in [0,1), got %v", c.Chunking.OverlapFraction)
	}
	if c.Chunking.RetrievalChunks <= 0 {
		return fmt.Errorf("config: chunking.retrieval_chunks must be positive, got %d", c.Chunking.RetrievalChunks)
	}
	return nil
}

// defaultDataDir is ~/.grounder, falling back to the working directory
// when the home directory is unknown.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".grounder"
	}
	return filepath.Join(home, ".grounder")
}
