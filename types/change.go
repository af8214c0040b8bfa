package types

import "time"

// ChangeEvent is an immutable record of a watched field changing value for a
// stored record. Events are created once per detected change and never
// mutated or deleted by the core; retention is an external policy.
type ChangeEvent struct {
	ID              string         `json:"id" bson:"id"`
	Source          string         `json:"source" bson:"source"`
	Entity          string         `json:"entity" bson:"entity"`
	Identifier      map[string]any `json:"identifier" bson:"identifier"`
	Field           string         `json:"field" bson:"field"`
	OldValue        any            `json:"old_value" bson:"old_value"`
	NewValue        any            `json:"new_value" bson:"new_value"`
	Timestamp       time.Time      `json:"timestamp" bson:"timestamp"`
	ChangeType      string         `json:"change_type" bson:"change_type"`
	ChangeMagnitude *float64       `json:"change_magnitude,omitempty" bson:"change_magnitude,omitempty"`
}

// IngestResult reports the outcome of one ingestion call. Every count is
// always populated; an ingest either returns a complete result or an error,
// never a partial one.
type IngestResult struct {
	InsertedCount  int           `json:"inserted_count"`
	DuplicateCount int           `json:"duplicate_count"`
	FailedCount    int           `json:"failed_count"`
	ChangeCount    int           `json:"change_count"`
	Changes        []ChangeEvent `json:"changes,omitempty"`
	Version        int           `json:"version"`
	IsNewVersion   bool          `json:"is_new_version"`
	Source         string        `json:"source"`
	Entity         string        `json:"entity"`
	Domain         string        `json:"domain"`
	Collection     string        `json:"collection"`
	BatchID        string        `json:"batch_id"`
}

// CategoryRoute maps a detected (source, entity) pair to its physical
// storage domain and retention period. Resolved once per batch and reused
// for the batch's whole lifetime.
type CategoryRoute struct {
	Source        string `json:"source"`
	Entity        string `json:"entity"`
	Domain        string `json:"domain"`
	RetentionDays int    `json:"retention_days"`
}
