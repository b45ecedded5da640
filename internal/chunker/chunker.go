// Package chunker splits cleaned document text into overlapping,
// semantically bounded chunks sized for embedding.
//
// Naive fixed-size windows cut sentences and paragraphs mid-thought,
// which hurts retrieval precision. The chunker instead splits ranges
// recursively, preferring paragraph breaks near the midpoint, then
// sentence breaks, then the raw midpoint, and overlaps each split so
// adjacent chunks share boundary context.
package chunker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/logger"
)

// DefaultChunkSizeTokens is the default token budget per chunk.
const DefaultChunkSizeTokens = 500

// DefaultOverlapFraction is the default overlap between adjacent chunks
// as a fraction of the chunk size.
const DefaultOverlapFraction = 0.1

const (
	// charsPerToken approximates characters per token for mixed content.
	charsPerToken = 3.5

	// smallTextThreshold is the cleaned-text length below which the
	// whole text becomes a single chunk.
	smallTextThreshold = 200

	// pdfSizeFactor enlarges chunk windows for PDF sources, which need
	// more room to retain context across page breaks.
	pdfSizeFactor = 1.2
)

var (
	// Runs of 3+ whitespace become paragraph breaks; exactly two spaces
	// become a line break; tabs become single spaces.
	excessWhitespaceRE = regexp.MustCompile(`\s{3,}`)
	doubleSpaceRE      = regexp.MustCompile(` {2}`)

	pageMarkerRE = regexp.MustCompile(`\[Page \d+\]`)

	// Heading candidates: markdown headings, capitalised titles,
	// numbered sections, roman-numeral sections. Detected as a soft
	// signal only; headings never force a split boundary.
	headingREs = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^#{1,6}\s+.+$`),
		regexp.MustCompile(`(?m)^[A-Z][A-Za-z\s]{2,50}$`),
		regexp.MustCompile(`(?m)^\d+(\.\d+)*\s+[A-Z]`),
		regexp.MustCompile(`(?m)^[IVXLCDMivxlcdm]+\.\s+.+$`),
	}
)

// Chunker splits text recursively around semantic boundaries.
type Chunker struct {
	chunkSizeTokens int
	overlapFraction float64
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSizeTokens sets the token budget per chunk.
func WithChunkSizeTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens > 0 {
			c.chunkSizeTokens = tokens
		}
	}
}

// WithOverlapFraction sets the overlap between adjacent chunks as a
// fraction of the chunk size.
func WithOverlapFraction(fraction float64) Option {
	return func(c *Chunker) {
		if fraction >= 0 {
			c.overlapFraction = fraction
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSizeTokens: DefaultChunkSizeTokens,
		overlapFraction: DefaultOverlapFraction,
	}

	for _, opt := range opts {
		opt(c)
	}

	// An overlap approaching half the chunk size can stall the split
	// recursion; cap it well below that.
	if c.overlapFraction >= 0.5 {
		c.overlapFraction = 0.25
	}

	return c
}

// Chunk splits text into ordered, overlapping chunks carrying the given
// source metadata. The input is cleaned first; offsets in the returned
// metadata refer to the cleaned text. Empty cleaned text yields no
// chunks: there is nothing to index for that source.
func (c *Chunker) Chunk(text string, meta domain.ChunkMetadata) []domain.Chunk {
	cleaned := Clean(text)
	if cleaned == "" {
		logger.Warn("chunker: empty text content for source %s", meta.Source)
		return nil
	}

	// Small texts are not worth splitting.
	if len(cleaned) < smallTextThreshold {
		m := meta
		m.ChunkIndex = 0
		m.CharStart = 0
		m.CharEnd = len(cleaned)
		m.Depth = 0
		return []domain.Chunk{{Text: cleaned, Metadata: m}}
	}

	tokens := c.chunkSizeTokens
	if meta.SourceType == domain.SourcePDF {
		tokens = int(float64(tokens) * pdfSizeFactor)
	}
	chunkSize := int(float64(tokens) * charsPerToken)
	overlap := int(float64(chunkSize) * c.overlapFraction)

	var markers [][]int
	if meta.SourceType == domain.SourcePDF {
		markers = pageMarkerRE.FindAllStringIndex(cleaned, -1)
	}

	if headings := findHeadings(cleaned); len(headings) > 0 {
		logger.Debug("chunker: %d heading candidates in %s", len(headings), meta.Source)
	}

	chunks := c.split(cleaned, span{0, len(cleaned), 0}, chunkSize, overlap, markers, meta)

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Metadata.CharStart < chunks[j].Metadata.CharStart
	})
	chunks = dedupAdjacent(chunks)
	for i := range chunks {
		chunks[i].Metadata.ChunkIndex = i
	}

	logger.Debug("chunker: %d chunks from %d characters (%s)", len(chunks), len(cleaned), meta.Source)
	return chunks
}

// Clean normalises whitespace before chunking: runs of 3+ whitespace
// characters become paragraph breaks, exactly-two-space runs become
// line breaks, tabs become single spaces, and the result is trimmed.
func Clean(text string) string {
	text = excessWhitespaceRE.ReplaceAllString(text, "\n\n")
	text = doubleSpaceRE.ReplaceAllString(text, "\n")
	text = strings.ReplaceAll(text, "\t", " ")
	return strings.TrimSpace(text)
}

// span is a half-open [start, end) range of the cleaned text, tagged
// with its recursion depth.
type span struct {
	start, end, depth int
}

// split recursively divides a span until each piece fits the chunk
// size, returning leaf chunks for the caller to sort and deduplicate.
func (c *Chunker) split(
	text string, sp span, chunkSize, overlap int, markers [][]int, meta domain.ChunkMetadata,
) []domain.Chunk {
	section := strings.TrimSpace(text[sp.start:sp.end])
	if len(section) <= chunkSize {
		if section == "" {
			return nil
		}
		m := meta
		m.CharStart = sp.start
		m.CharEnd = sp.end
		m.Depth = sp.depth

		// Attach the first page marker starting inside the span.
		for _, pm := range markers {
			if sp.start <= pm[0] && pm[0] < sp.end {
				m.PageInfo = text[pm[0]:pm[1]]
				break
			}
		}
		return []domain.Chunk{{Text: section, Metadata: m}}
	}

	best := c.findBreak(text, sp, chunkSize, overlap)

	tail := best - overlap
	if tail < sp.start {
		tail = sp.start
	}

	left := c.split(text, span{sp.start, best, sp.depth + 1}, chunkSize, overlap, markers, meta)
	right := c.split(text, span{tail, sp.end, sp.depth + 1}, chunkSize, overlap, markers, meta)
	return append(left, right...)
}

// findBreak locates the split point for an oversized span: the last
// paragraph break within [start, mid+chunkSize/2], else the last
// sentence end within [start, mid+chunkSize/4] (placed after the
// punctuation), else the raw midpoint.
func (c *Chunker) findBreak(text string, sp span, chunkSize, overlap int) int {
	sectionLen := len(strings.TrimSpace(text[sp.start:sp.end]))
	mid := sp.start + sectionLen/2

	best := mid

	if p := lastIndexIn(text, sp.start, min(mid+chunkSize/2, sp.end), "\n\n", "\r\n\r\n"); p > sp.start {
		best = p
	} else if s := lastIndexIn(text, sp.start, min(mid+chunkSize/4, sp.end), ". ", "! ", "? "); s > sp.start {
		best = s + 1 // keep the punctuation with the left half
	}

	// A break this close to the start would leave the overlapping tail
	// span as large as its parent and stall the recursion; the raw
	// midpoint always makes progress.
	if best-overlap <= sp.start {
		best = mid
	}
	return best
}

// lastIndexIn returns the largest start offset of any needle occurring
// in text[lo:hi], or -1.
func lastIndexIn(text string, lo, hi int, needles ...string) int {
	if hi > len(text) {
		hi = len(text)
	}
	if lo >= hi {
		return -1
	}
	best := -1
	for _, n := range needles {
		if i := strings.LastIndex(text[lo:hi], n); i >= 0 && lo+i > best {
			best = lo + i
		}
	}
	return best
}

// dedupAdjacent drops chunks whose text is byte-identical to the
// immediately preceding chunk in char_start order. Overlapping splits
// occasionally produce exact duplicates; only adjacency is checked,
// never the whole list.
func dedupAdjacent(chunks []domain.Chunk) []domain.Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	out := chunks[:1]
	for _, ch := range chunks[1:] {
		if ch.Text == out[len(out)-1].Text {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// findHeadings returns sorted start offsets of heading-like lines.
// Headings are an auxiliary signal only; splitting is driven purely by
// paragraph and sentence boundaries.
func findHeadings(text string) []int {
	var offsets []int
	for _, re := range headingREs {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			offsets = append(offsets, loc[0])
		}
	}
	sort.Ints(offsets)
	return offsets
}
