// Package schemaflow infers schemas from raw record batches, versions them
// immutably, and loads the records into categorized storage with
// deduplication and field-level change tracking.
//
// # Pipeline
//
// A batch of flat records flows through five stages:
//
//	┌─────────────────────────────────────┐
//	│          extract                    │  JSON/CSV parsing,
//	│  (flatten, batch)                   │  nested-structure flattening
//	└─────────────────────────────────────┘
//	           ↓ produces types.Batch
//	┌─────────────────────────────────────┐
//	│   inference + typedetect + semantic │  field types, semantic
//	│  (fold batch into a schema)         │  categories, value profiles
//	└─────────────────────────────────────┘
//	           ↓ produces types.Schema
//	┌─────────────────────────────────────┐
//	│    router + versionstore            │  (source, entity) routing,
//	│  (categorize, resolve version)      │  hash-based version resolution
//	└─────────────────────────────────────┘
//	           ↓ produces a versioned collection
//	┌─────────────────────────────────────┐
//	│          ingest                     │  dedup, change detection,
//	│  (coordinate the load)              │  lineage metadata, bulk insert
//	└─────────────────────────────────────┘
//	           ↓ emits
//	┌─────────────────────────────────────┐
//	│     ingest/changes                  │  append-only change events,
//	│  (track watched fields)             │  store and NATS sinks
//	└─────────────────────────────────────┘
//
// # Package Map
//
//   - types: shared domain types (Record, Schema, SchemaVersion, ChangeEvent)
//   - typedetect: scalar kind detection and field type aggregation
//   - semantic: field name classification and value profiling, with optional
//     embedding enhancement (pkg/embedding)
//   - inference: folds batches into schemas, merging against prior versions
//   - versionstore: immutable schema snapshots, monotonic version numbers,
//     structured diffs (Mongo-backed and in-memory repositories)
//   - router: keyword-based (source, entity) detection and domain routing
//   - ingest: the coordinator orchestrating the load
//   - schemaexport: JSON Schema / MongoDB validator generation, index and
//     primary key suggestions
//   - analyzer: batch-level domain analysis behind a pluggable interface
//   - storage: the DocumentStore boundary (MongoDB and in-memory)
//   - config, errors, metric: configuration, error classification, and
//     Prometheus instrumentation
//
// The cmd/schemaflow binary wires the full pipeline behind a flag-driven
// CLI.
package schemaflow
