// Package services implements the driving port interfaces: ingestion
// of sources into the session's vector store and retrieval-augmented
// answering over it.
//
// Services hold the orchestration logic and delegate all I/O to driven
// ports (extractors, embedding, storage, LLM).
package services
