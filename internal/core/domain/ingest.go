package domain

// FileUpload is a document delivered with the request body rather than
// fetched from a URL.
type FileUpload struct {
	// Name is the original filename, used for source-type detection.
	Name string

	// Content is the raw file content.
	Content []byte
}

// IngestRequest names the sources for one ingestion batch.
type IngestRequest struct {
	// URLs to fetch and extract.
	URLs []string

	// Files uploaded with the request.
	Files []FileUpload

	// NewSession starts a fresh session before ingesting, discarding
	// the in-memory knowledge base (prior sessions stay on disk).
	NewSession bool
}

// IngestReport summarises one ingestion batch. A batch with at least one
// ingested chunk is a success even when individual sources failed;
// per-source failures are collected in Errors.
type IngestReport struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	DocumentCount int      `json:"document_count"`
	SessionID     string   `json:"session_id,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}
