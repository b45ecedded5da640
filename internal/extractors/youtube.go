package extractors

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
)

// Ensure YouTubeExtractor implements the interface.
var _ driven.Extractor = (*YouTubeExtractor)(nil)

// videoIDRE matches a canonical 11-character YouTube video id.
var videoIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// YouTubeExtractor pulls transcripts for YouTube videos via the public
// timedtext endpoint. A caller that already has the transcript (e.g.
// from a dedicated transcript service) can pass it as content and skip
// the network entirely.
type YouTubeExtractor struct {
	fetcher *Fetcher
}

// NewYouTubeExtractor creates a YouTube transcript extractor.
func NewYouTubeExtractor(fetcher *Fetcher) *YouTubeExtractor {
	return &YouTubeExtractor{fetcher: fetcher}
}

// Type returns the source type this extractor produces.
func (e *YouTubeExtractor) Type() domain.SourceType {
	return domain.SourceYouTube
}

// Extract resolves the video id from the URL and returns its
// transcript text. Content, when supplied, is used verbatim as the
// transcript.
func (e *YouTubeExtractor) Extract(ctx context.Context, source string, content []byte) (*driven.Extraction, error) {
	videoID, err := ExtractVideoID(source)
	if err != nil {
		return nil, err
	}

	var text string
	if content != nil {
		text = string(content)
	} else {
		text, err = e.fetchTranscript(ctx, videoID)
		if err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no transcript for video %s", domain.ErrEmptyDocument, videoID)
	}

	meta := domain.ChunkMetadata{
		Source:     source,
		SourceType: domain.SourceYouTube,
		Title:      "YouTube video " + videoID,
	}
	meta = meta.WithExtra("video_id", videoID)

	return &driven.Extraction{Text: text, Metadata: meta}, nil
}

// timedtextResponse is the YouTube caption XML format.
type timedtextResponse struct {
	Texts []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

// fetchTranscript downloads the English caption track.
func (e *YouTubeExtractor) fetchTranscript(ctx context.Context, videoID string) (string, error) {
	captionURL := "https://www.youtube.com/api/timedtext?v=" + url.QueryEscape(videoID) + "&lang=en"
	body, err := e.fetcher.Get(ctx, captionURL)
	if err != nil {
		return "", fmt.Errorf("fetch transcript for %s: %w", videoID, err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: video %s has no caption track", domain.ErrEmptyDocument, videoID)
	}

	var parsed timedtextResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse transcript for %s: %w", videoID, err)
	}

	var lines []string
	for _, t := range parsed.Texts {
		line := strings.TrimSpace(html.UnescapeString(t.Body))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " "), nil
}

// ExtractVideoID pulls the video id from any common YouTube URL shape:
// watch?v=, youtu.be/, embed/, shorts/ and live/.
func ExtractVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	var id string
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case strings.HasSuffix(host, "youtube.com") || host == "youtube-nocookie.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"),
			strings.HasPrefix(u.Path, "/shorts/"),
			strings.HasPrefix(u.Path, "/live/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) >= 2 {
				id = parts[1]
			}
		}
	}

	if !videoIDRE.MatchString(id) {
		return "", fmt.Errorf("%w: cannot find video id in %s", domain.ErrInvalidURL, rawURL)
	}
	return id, nil
}
