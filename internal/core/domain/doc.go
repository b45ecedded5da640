// Package domain contains the core types for the grounder knowledge base:
// chunks, document entries, source records and answers. It has no
// dependencies on adapters or infrastructure.
package domain
