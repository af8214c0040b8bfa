package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/c360/schemaflow/pkg/cache"
)

// LRUCache implements Cache with an in-process bounded LRU. Content-addressed
// keys make repeated field names hit without re-calling the embedding
// service.
type LRUCache struct {
	inner cache.Cache[[]float32]
}

// NewLRUCache creates a cache holding at most maxSize embeddings.
func NewLRUCache(maxSize int) *LRUCache {
	return &LRUCache{inner: cache.NewLRU[[]float32](maxSize)}
}

// Get retrieves a cached embedding by content hash.
func (c *LRUCache) Get(_ context.Context, contentHash string) ([]float32, error) {
	v, ok := c.inner.Get(contentHash)
	if !ok {
		return nil, fmt.Errorf("cache miss: %s", contentHash)
	}
	return v, nil
}

// Put stores an embedding under the given content hash.
func (c *LRUCache) Put(_ context.Context, contentHash string, embedding []float32) error {
	_, err := c.inner.Set(contentHash, embedding)
	return err
}

// ContentHash generates a SHA-256 hash of text content for use as a cache
// key.
func ContentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
