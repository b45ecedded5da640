package extractors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
)

// Ensure WebExtractor implements the interface.
var _ driven.Extractor = (*WebExtractor)(nil)

// WebExtractor pulls readable text from web pages. It walks the parsed
// DOM rather than stripping tags with regexes, so malformed markup
// degrades gracefully.
type WebExtractor struct {
	fetcher *Fetcher
}

// NewWebExtractor creates a web page extractor.
func NewWebExtractor(fetcher *Fetcher) *WebExtractor {
	return &WebExtractor{fetcher: fetcher}
}

// Type returns the source type this extractor produces.
func (e *WebExtractor) Type() domain.SourceType {
	return domain.SourceWeb
}

// Extract fetches the page (unless content is supplied) and returns
// its readable text with the page title in the metadata.
func (e *WebExtractor) Extract(ctx context.Context, source string, content []byte) (*driven.Extraction, error) {
	if content == nil {
		var err error
		content, err = e.fetcher.Get(ctx, source)
		if err != nil {
			return nil, err
		}
	}

	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", source, err)
	}

	title := findTitle(doc)
	if title == "" {
		title = source
	}

	text := extractText(doc)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text content at %s", domain.ErrEmptyDocument, source)
	}

	return &driven.Extraction{
		Text: text,
		Metadata: domain.ChunkMetadata{
			Source:     source,
			SourceType: domain.SourceWeb,
			Title:      title,
		},
	}, nil
}

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"svg":      true,
	"template": true,
	"iframe":   true,
}

// blockElements force a paragraph break around their content.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "blockquote": true, "pre": true,
	"table": true, "br": true, "hr": true,
}

// findTitle returns the first <title> text in the document.
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		return strings.TrimSpace(b.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}
	return ""
}

// extractText walks the DOM collecting text nodes, inserting paragraph
// breaks at block element boundaries, and returns trimmed non-empty
// lines joined by newlines.
func extractText(root *html.Node) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		isBlock := n.Type == html.ElementNode && blockElements[n.Data]
		if isBlock {
			b.WriteByte('\n')
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if isBlock {
			b.WriteByte('\n')
		}
	}
	walk(root)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
