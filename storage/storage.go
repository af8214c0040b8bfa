// Package storage defines the document-store boundary the ingestion path
// writes through, with an in-memory implementation for tests and a MongoDB
// implementation for deployments.
//
// The contract is deliberately narrow: bulk insert, point lookup, count,
// collection listing, index creation. Nothing in the pipeline requires
// transactions, joins, or server-side aggregation.
package storage

import (
	"context"
)

// InsertFailure describes one rejected document in a bulk insert.
type InsertFailure struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// InsertResult reports the outcome of a bulk insert. A partially failed
// insert is not an error at this layer: accepted documents stay written and
// the rejects are listed.
type InsertResult struct {
	InsertedCount int             `json:"inserted_count"`
	Failures      []InsertFailure `json:"failures,omitempty"`
}

// DocumentStore is the persistence boundary for record collections. A domain
// is an isolation unit (a database in MongoDB terms); collections within it
// hold versioned record sets.
//
// Implementations must be safe for concurrent use, return
// flowerr.ErrDocumentNotFound from FindOne when nothing matches, and surface
// connectivity failures as transient classified errors so callers can retry.
type DocumentStore interface {
	// InsertMany bulk-inserts documents into domain/collection. Partial
	// failure is reported through the result, not the error: accepted
	// documents stay written.
	InsertMany(ctx context.Context, domain, collection string, docs []map[string]any) (*InsertResult, error)

	// FindOne returns the first document matching the equality filter.
	FindOne(ctx context.Context, domain, collection string, filter map[string]any) (map[string]any, error)

	// Count returns the number of documents matching the equality filter. A
	// nil or empty filter counts the whole collection.
	Count(ctx context.Context, domain, collection string, filter map[string]any) (int64, error)

	// ListCollections names the collections present in a domain.
	ListCollections(ctx context.Context, domain string) ([]string, error)

	// CreateIndex builds an ascending index over fields. Idempotent.
	CreateIndex(ctx context.Context, domain, collection string, fields []string, unique bool) error

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}
