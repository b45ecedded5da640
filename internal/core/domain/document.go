package domain

// DocumentEntry is a chunk as stored in the vector store: the chunk
// itself plus its assigned id and (normalised) embedding.
//
// IDs are assigned monotonically within a session: the next id is
// max(existing ids)+1, or 0 for an empty store. IDs are never reused
// within a session, even across multiple AddDocuments calls.
type DocumentEntry struct {
	ID        int           `json:"id"`
	Text      string        `json:"text"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"embedding"`
}

// SourceRecord tracks an ingested origin (URL or filename) within the
// current session. ChunkCount accumulates across AddDocuments calls;
// FirstAdded is set once and LastUpdated refreshed on every addition.
type SourceRecord struct {
	Title       string     `json:"title"`
	SourceType  SourceType `json:"source_type"`
	ChunkCount  int        `json:"chunk_count"`
	FirstAdded  int64      `json:"first_added"`
	LastUpdated int64      `json:"last_updated"`
}
