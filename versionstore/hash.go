// Package versionstore assigns monotonic version numbers to schema snapshots
// per (source, entity) pair. Version identity is structural: two schemas with
// the same sorted field names and types share a hash and therefore a version,
// regardless of semantic metadata, counters, or timestamps.
package versionstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/c360/schemaflow/types"
)

// CanonicalHash computes the structural hash of a schema: SHA-256 over the
// sorted "name:type" pairs. Semantic categories, sample values, counters and
// timestamps are deliberately excluded so that metadata churn never bumps a
// version.
func CanonicalHash(schema types.Schema) string {
	parts := make([]string, 0, len(schema))
	for _, name := range schema.FieldNames() {
		parts = append(parts, fmt.Sprintf("%s:%s", name, schema[name].Type))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(sum[:])
}

// CollectionName derives the storage collection for a versioned schema.
func CollectionName(source, entity string, version int) string {
	return fmt.Sprintf("%s_%s_v%d", source, entity, version)
}
