// Package embedder provides text embedding clients for vector representations.
//
// This package defines the Client interface and provides implementations for
// the OpenAI embeddings API (including OpenAI-compatible services via a
// custom base URL) and local EmbedEverything models.
//
// # Batch Processing
//
// The Client interface supports batch embedding for efficiency:
//   - Embed(): embed multiple texts in a single request
//   - EmbedSingle(): convenience method for single text
//
// Implementations handle batching internally based on provider limits.
package embedder
