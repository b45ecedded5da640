package domain

// SourceType identifies the kind of origin a document was extracted from.
// It influences chunking behaviour: PDF sources get larger chunk windows
// and page-marker tracking.
type SourceType string

// Known source types.
const (
	SourceWeb     SourceType = "web"
	SourcePDF     SourceType = "pdf"
	SourceDOCX    SourceType = "docx"
	SourceYouTube SourceType = "youtube"
	SourceText    SourceType = "text"
	SourceGeneric SourceType = "generic"
)

// Valid reports whether the source type is one of the known values.
func (t SourceType) Valid() bool {
	switch t {
	case SourceWeb, SourcePDF, SourceDOCX, SourceYouTube, SourceText, SourceGeneric:
		return true
	}
	return false
}

// ChunkMetadata describes where a chunk came from and where it sits
// inside the cleaned source text.
//
// CharStart/CharEnd are byte offsets into the cleaned text forming the
// half-open interval [CharStart, CharEnd). ChunkIndex is a dense 0..N-1
// renumbering of the final, deduplicated chunk list.
type ChunkMetadata struct {
	// Source is the origin identifier (URL or filename).
	Source string `json:"source"`

	// SourceType is the origin kind (web, pdf, docx, youtube, text, generic).
	SourceType SourceType `json:"source_type"`

	// Title is the human-readable document title, when known.
	Title string `json:"title,omitempty"`

	// ChunkIndex is the ordinal position in the final chunk list.
	ChunkIndex int `json:"chunk_index"`

	// CharStart is the inclusive start offset into the cleaned text.
	CharStart int `json:"char_start"`

	// CharEnd is the exclusive end offset into the cleaned text.
	CharEnd int `json:"char_end"`

	// Depth is the recursion depth at which the chunk was finalised.
	Depth int `json:"depth,omitempty"`

	// PageInfo holds the verbatim page marker (e.g. "[Page 3]") whose
	// start offset falls inside the chunk span. First match wins.
	PageInfo string `json:"page_info,omitempty"`

	// Extra carries source-specific extension fields (video id, author,
	// table-of-contents entries) that the core does not interpret.
	Extra map[string]string `json:"extra,omitempty"`
}

// WithExtra returns a copy of the metadata with the given extension field
// set. The receiver's Extra map is never mutated.
func (m ChunkMetadata) WithExtra(key, value string) ChunkMetadata {
	extra := make(map[string]string, len(m.Extra)+1)
	for k, v := range m.Extra {
		extra[k] = v
	}
	extra[key] = value
	m.Extra = extra
	return m
}

// Chunk is a contiguous slice of a source document's cleaned text,
// sized for embedding. The Embedding field is optional: the vector
// store batch-embeds chunks that arrive without one.
type Chunk struct {
	Text      string        `json:"text"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"embedding,omitempty"`
}
