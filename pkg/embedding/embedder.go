// Package embedding provides vector embedding generation for semantic field
// classification. The classifier compares field-name embeddings against
// category exemplars when keyword matching comes up empty.
//
// Two implementations are provided: HTTPEmbedder for OpenAI-compatible
// embedding services, and BM25Embedder as a pure-Go lexical fallback that
// needs no external service.
package embedding

import "context"

// Embedder generates vector embeddings for text.
//
// Implementations can use different providers (HTTP APIs, BM25, etc.) while
// maintaining a consistent interface. All providers support batch operations
// natively, following OpenAI API patterns.
type Embedder interface {
	// Generate creates embeddings for the given texts. Returns one vector
	// per input text, in order.
	Generate(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings produced by this
	// embedder.
	Dimensions() int

	// Model returns the model identifier used by this embedder.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// Cache provides content-addressed caching for embeddings. Implementations
// key by a hash of the text content (see ContentHash) so identical inputs
// dedupe.
type Cache interface {
	// Get retrieves a cached embedding for the given content hash. Returns
	// an error on a miss.
	Get(ctx context.Context, contentHash string) ([]float32, error)

	// Put stores an embedding in the cache with the given content hash.
	Put(ctx context.Context, contentHash string, embedding []float32) error
}
