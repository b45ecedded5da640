// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding generation, vector storage,
// document extraction and answer generation.
package driven
