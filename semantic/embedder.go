package semantic

import (
	"context"
	"math"
)

// Embedder generates vector embeddings for field names. It is an optional
// enhancement layer: the classifier works fully without one, and any failure
// from an Embedder degrades the classifier back to rule-based results.
//
// Implementations can use different providers (HTTP APIs, local models) while
// maintaining a consistent interface. Batch operations are the primary method,
// following OpenAI API patterns; for a single name, pass a one-element slice.
type Embedder interface {
	// Generate creates embeddings for the given texts. Returns one vector per
	// input text, in order.
	Generate(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of vectors produced by this
	// embedder.
	Dimensions() int

	// Model returns the model identifier, useful for logging.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// CosineSimilarity computes the cosine similarity between two vectors.
//
// Returns a value between -1 and 1, where 1 means identical direction, 0
// orthogonal, -1 opposite. Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, magA, magB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0.0 || magB == 0.0 {
		return 0.0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
