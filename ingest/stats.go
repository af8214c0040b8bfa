package ingest

import (
	"context"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/router"
)

// DomainStats summarizes one storage domain.
type DomainStats struct {
	Domain      string `json:"domain"`
	Collections int    `json:"collections"`
	Records     int64  `json:"records"`
}

// Stats aggregates collection and record counts across storage domains.
type Stats struct {
	Databases        map[string]DomainStats `json:"databases"`
	TotalRecords     int64                  `json:"total_records"`
	TotalCollections int                    `json:"total_collections"`
}

// Stats walks every known source's storage domain and counts collections
// and records. Sources sharing a domain are reported once, keyed by source.
func (c *Coordinator) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Databases: make(map[string]DomainStats)}

	for _, source := range router.Sources() {
		domain := c.router.Route(source, "").Domain

		collections, err := c.store.ListCollections(ctx, domain)
		if err != nil {
			return nil, flowerr.WrapTransient(flowerr.ErrStorageUnavailable, "ingest", "Stats", err.Error())
		}

		ds := DomainStats{Domain: domain, Collections: len(collections)}
		for _, coll := range collections {
			n, err := c.store.Count(ctx, domain, coll, nil)
			if err != nil {
				return nil, flowerr.WrapTransient(flowerr.ErrStorageUnavailable, "ingest", "Stats", err.Error())
			}
			ds.Records += n
		}

		stats.Databases[source] = ds
		stats.TotalRecords += ds.Records
		stats.TotalCollections += ds.Collections
	}
	return stats, nil
}
