package types

import "time"

// SchemaVersion is an immutable snapshot of a schema for one (source, entity)
// pair. Version numbers strictly increase by 1 per pair; version 1 has no
// parent. The hash is a deterministic function of structural shape only
// (sorted field names and types), so hash equality means "no version bump".
type SchemaVersion struct {
	Source        string      `json:"source" bson:"source"`
	Entity        string      `json:"entity" bson:"entity"`
	Version       int         `json:"version" bson:"version"`
	Schema        Schema      `json:"schema" bson:"schema"`
	SchemaHash    string      `json:"schema_hash" bson:"schema_hash"`
	CreatedAt     time.Time   `json:"created_at" bson:"created_at"`
	LastUsed      time.Time   `json:"last_used,omitempty" bson:"last_used,omitempty"`
	ParentVersion *int        `json:"parent_version,omitempty" bson:"parent_version,omitempty"`
	Diff          *SchemaDiff `json:"diff,omitempty" bson:"diff,omitempty"`
	RecordCount   int64       `json:"record_count" bson:"record_count"`
}

// SchemaDiff is the structured difference between two consecutive schema
// versions. Removed or retyped fields break consumers of the old shape;
// additions alone stay backward compatible.
type SchemaDiff struct {
	AddedFields          []string      `json:"added_fields" bson:"added_fields"`
	RemovedFields        []string      `json:"removed_fields" bson:"removed_fields"`
	ModifiedFields       []FieldChange `json:"modified_fields" bson:"modified_fields"`
	BreakingChanges      bool          `json:"breaking_changes" bson:"breaking_changes"`
	IsBackwardCompatible bool          `json:"is_backward_compatible" bson:"is_backward_compatible"`
}

// FieldChange records a type change for a field present in both schemas.
// Diffing is type-equality based, not ladder-aware: a widening such as
// integer→float is still reported as modified.
type FieldChange struct {
	Field   string    `json:"field" bson:"field"`
	OldType FieldType `json:"old_type" bson:"old_type"`
	NewType FieldType `json:"new_type" bson:"new_type"`
}

// VersionResolution is the outcome of resolving a schema against the version
// store: the assigned version, whether it was newly created, and the diff
// against the parent when one was computed.
type VersionResolution struct {
	Version      int
	IsNewVersion bool
	Diff         *SchemaDiff
	SchemaHash   string
	Collection   string
}
