// Package cache provides a generic, thread-safe LRU cache with built-in
// statistics.
//
// The semantic classifier uses it to cap the field-name embedding cache: the
// original design grew an unbounded process-wide map, which is only
// acceptable behind an explicit size limit.
package cache

import (
	"errors"
	"strings"
)

// Cache is a generic cache interface parameterized by value type V.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found.
	Get(key string) (V, bool)

	// Set stores a value with the given key. Returns true if a new entry was
	// created, false if an existing one was updated.
	Set(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear() error

	// Size returns the current number of entries.
	Size() int

	// Keys returns all keys currently in the cache.
	Keys() []string

	// Stats returns cache statistics. Always non-nil.
	Stats() *Statistics
}

// EvictCallback is called with the key and value of an evicted entry.
type EvictCallback[V any] func(key string, value V)

var errEmptyKey = errors.New("cache: key cannot be empty")

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errEmptyKey
	}
	return nil
}
