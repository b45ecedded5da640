package domain

// SourceRef points an answer back at one of the retrieved chunks.
type SourceRef struct {
	// ID is the position of the chunk in the retrieved context (0-based).
	ID int `json:"id"`

	// Preview is a short excerpt of the chunk text.
	Preview string `json:"text"`

	// Source is the origin identifier of the chunk.
	Source string `json:"source"`

	// SourceType is the origin kind.
	SourceType SourceType `json:"source_type"`

	// Title is the document title, when known.
	Title string `json:"title,omitempty"`
}

// Answer is a generated response grounded in retrieved chunks.
type Answer struct {
	Text    string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}
