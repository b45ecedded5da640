// Package driving provides interfaces for primary/inbound adapters
// (CLI, HTTP API) to invoke core services.
package driving
