package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all pipeline-level metrics. Everything ingest-related is
// labeled by (source, entity) so one process ingesting many categories stays
// observable per category.
type Metrics struct {
	// Ingestion metrics
	BatchesIngested   *prometheus.CounterVec
	RecordsInserted   *prometheus.CounterVec
	DuplicatesDropped *prometheus.CounterVec
	InsertFailures    *prometheus.CounterVec
	IngestDuration    *prometheus.HistogramVec
	IngestErrors      *prometheus.CounterVec

	// Schema metrics
	SchemaVersionsCreated *prometheus.CounterVec
	SchemaVersion         *prometheus.GaugeVec

	// Change detection metrics
	ChangesDetected *prometheus.CounterVec

	// Classification metrics
	FieldsClassified *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all pipeline metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Ingestion metrics
		BatchesIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaflow",
				Subsystem: "ingest",
				Name:      "batches_total",
				Help:      "Total number of batches ingested",
			},
			[]string{"source", "entity"},
		),

		RecordsInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaflow",
				Subsystem: "ingest",
				Name:      "records_inserted_total",
				Help:      "Total number of records inserted",
			},
			[]string{"source", "entity"},
		),

		DuplicatesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaflow",
				Subsystem: "ingest",
				Name:      "duplicates_dropped_total",
				Help:      "Total number of duplicate records dropped before insert",
			},
			[]string{"source", "entity"},
		),

		InsertFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaflow",
				Subsystem: "ingest",
				Name:      "insert_failures_total",
				Help:      "Total number of documents rejected during bulk insert",
			},
			[]string{"source", "entity"},
		),

		IngestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "schemaflow",
				Subsystem: "ingest",
				Name:      "duration_seconds",
				Help:      "Ingestion call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source", "entity"},
		),

		IngestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaflow",
				Subsystem: "ingest",
				Name:      "errors_total",
				Help:      "Total number of failed ingestion calls by pipeline stage",
			},
			[]string{"source", "stage"},
		),

		// Schema metrics
		SchemaVersionsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaflow",
				Subsystem: "schema",
				Name:      "versions_created_total",
				Help:      "Total number of new schema versions created",
			},
			[]string{"source", "entity"},
		),

		SchemaVersion: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "schemaflow",
				Subsystem: "schema",
				Name:      "current_version",
				Help:      "Current schema version per (source, entity)",
			},
			[]string{"source", "entity"},
		),

		// Change detection metrics
		ChangesDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaflow",
				Subsystem: "changes",
				Name:      "detected_total",
				Help:      "Total number of change events detected",
			},
			[]string{"source", "entity"},
		),

		// Classification metrics
		FieldsClassified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaflow",
				Subsystem: "semantic",
				Name:      "fields_classified_total",
				Help:      "Total number of fields classified by semantic category",
			},
			[]string{"category"},
		),
	}
}

// RecordIngest records the headline counters for one ingestion call
func (c *Metrics) RecordIngest(source, entity string, inserted, duplicates int, duration time.Duration) {
	c.BatchesIngested.WithLabelValues(source, entity).Inc()
	c.RecordsInserted.WithLabelValues(source, entity).Add(float64(inserted))
	c.DuplicatesDropped.WithLabelValues(source, entity).Add(float64(duplicates))
	c.IngestDuration.WithLabelValues(source, entity).Observe(duration.Seconds())
}

// RecordIngestError increments the error counter for a pipeline stage
func (c *Metrics) RecordIngestError(source, stage string) {
	c.IngestErrors.WithLabelValues(source, stage).Inc()
}

// RecordVersionCreated records a new schema version for a pair
func (c *Metrics) RecordVersionCreated(source, entity string, version int) {
	c.SchemaVersionsCreated.WithLabelValues(source, entity).Inc()
	c.SchemaVersion.WithLabelValues(source, entity).Set(float64(version))
}

// RecordChanges adds detected change events for a pair
func (c *Metrics) RecordChanges(source, entity string, count int) {
	c.ChangesDetected.WithLabelValues(source, entity).Add(float64(count))
}

// RecordClassification increments the per-category classification counter
func (c *Metrics) RecordClassification(category string) {
	c.FieldsClassified.WithLabelValues(category).Inc()
}
