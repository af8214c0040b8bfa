package ingest

import (
	"context"
	"errors"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/typedetect"
	"github.com/c360/schemaflow/types"
)

// identifierPriority is the fixed order in which fields are tried when
// resolving a record's identifier. The first present, non-empty field wins.
var identifierPriority = []string{"id", "name", "email", "user", "customer_id", "order_id"}

// Identifier resolves a record's dedup identifier. Records without any
// identifier field return ok=false and can never be deduplicated.
func Identifier(rec *types.Record) (field string, value any, ok bool) {
	for _, f := range identifierPriority {
		v, present := rec.Get(f)
		if present && !typedetect.IsNull(v) {
			return f, v, true
		}
	}
	return "", nil, false
}

// collision pairs an incoming record with the stored document that shares its
// identifier. Collisions are dropped as duplicates but still feed change
// detection: the stored document is the baseline to compare against.
type collision struct {
	field  string
	value  any
	record *types.Record
	stored map[string]any
}

// dedupe drops batch-internal and already-stored duplicates. Within the
// batch the first record per identifier wins; survivors are then checked
// against the target collection by point lookup. Records colliding with a
// stored document are returned separately so the coordinator can detect
// field changes before discarding them. Dedup is a best-effort identifier
// heuristic: identical content under different identifier fields passes
// through.
func (c *Coordinator) dedupe(ctx context.Context, domain, collection string, batch types.Batch) (types.Batch, []collision, int, error) {
	kept := make(types.Batch, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	var collisions []collision
	dups := 0

	for _, rec := range batch {
		field, value, ok := Identifier(rec)
		if !ok {
			kept = append(kept, rec)
			continue
		}

		key := field + "\x00" + typedetect.Stringify(value)
		if _, dup := seen[key]; dup {
			dups++
			continue
		}
		seen[key] = struct{}{}

		stored, err := c.store.FindOne(ctx, domain, collection, map[string]any{field: value})
		switch {
		case err == nil:
			dups++
			collisions = append(collisions, collision{field: field, value: value, record: rec, stored: stored})
		case errors.Is(err, flowerr.ErrDocumentNotFound):
			kept = append(kept, rec)
		default:
			return nil, nil, 0, flowerr.WrapTransient(flowerr.ErrStorageUnavailable, "ingest", "dedupe", err.Error())
		}
	}
	return kept, collisions, dups, nil
}
