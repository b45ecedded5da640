// Package extractors turns ingestion sources (URLs and uploaded files)
// into plain text ready for chunking. Each extractor owns one source
// type; the registry routes a source string to the right one.
package extractors

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry routes sources to extractors by URL shape and file
// extension.
type Registry struct {
	web     *WebExtractor
	youtube *YouTubeExtractor
	text    *TextExtractor
	generic *TextExtractor
	pdf     *FileExtractor
	docx    *FileExtractor
}

// NewRegistry creates a registry with the default extractor set,
// sharing one fetcher for all network extractors.
func NewRegistry(fetcher *Fetcher) *Registry {
	return &Registry{
		web:     NewWebExtractor(fetcher),
		youtube: NewYouTubeExtractor(fetcher),
		text:    NewTextExtractor(domain.SourceText),
		generic: NewTextExtractor(domain.SourceGeneric),
		pdf:     NewPDFExtractor(),
		docx:    NewDocxExtractor(),
	}
}

// Resolve picks an extractor for the source. URLs route by host and
// scheme, everything else by file extension; unknown extensions get
// the generic plain-text extractor.
func (r *Registry) Resolve(source string) (driven.Extractor, error) {
	if source == "" {
		return nil, fmt.Errorf("resolve extractor: %w: empty source", domain.ErrInvalidInput)
	}

	if strings.Contains(source, "://") {
		u, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("resolve extractor: %w: %v", domain.ErrInvalidURL, err)
		}
		switch u.Scheme {
		case "http", "https":
		default:
			return nil, fmt.Errorf("resolve extractor: %w: scheme %q", domain.ErrInvalidURL, u.Scheme)
		}
		if isYouTubeHost(u.Hostname()) {
			return r.youtube, nil
		}
		return r.web, nil
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".pdf":
		return r.pdf, nil
	case ".docx":
		return r.docx, nil
	case ".txt", ".md", ".markdown":
		return r.text, nil
	default:
		return r.generic, nil
	}
}

// isYouTubeHost reports whether a hostname belongs to YouTube.
func isYouTubeHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "youtu.be", "youtube-nocookie.com":
		return true
	}
	return false
}
