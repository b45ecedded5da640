package extractors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/logger"
)

// Fetcher defaults.
const (
	DefaultFetchTimeout   = 30 * time.Second
	DefaultMaxFetchBytes  = 10 << 20 // 10 MiB
	DefaultRequestsPerSec = 2
	DefaultBurst          = 4

	userAgent = "grounder/1.0 (+https://github.com/grounded-labs/grounder)"
)

// Fetcher downloads source content over HTTP with a shared rate limit,
// so ingesting a batch of URLs from one site stays polite.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// FetcherConfig tunes the fetcher; zero values take defaults.
type FetcherConfig struct {
	Timeout        time.Duration
	MaxBytes       int64
	RequestsPerSec float64
	Burst          int
}

// NewFetcher creates a rate-limited HTTP fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxFetchBytes
	}
	if cfg.RequestsPerSec == 0 {
		cfg.RequestsPerSec = DefaultRequestsPerSec
	}
	if cfg.Burst == 0 {
		cfg.Burst = DefaultBurst
	}

	return &Fetcher{
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		maxBytes: cfg.MaxBytes,
	}
}

// Get downloads the URL body, capped at the configured size.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}

	logger.Debug("fetcher: %s (%d bytes, %s)", rawURL, len(body), time.Since(start).Round(time.Millisecond))
	return body, nil
}
