// Package ingest orchestrates the ingestion pipeline: schema inference,
// category routing, version resolution, deduplication, change detection, and
// the final bulk insert with lineage metadata.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/inference"
	"github.com/c360/schemaflow/ingest/changes"
	"github.com/c360/schemaflow/metric"
	"github.com/c360/schemaflow/pkg/retry"
	"github.com/c360/schemaflow/router"
	"github.com/c360/schemaflow/storage"
	"github.com/c360/schemaflow/types"
	"github.com/c360/schemaflow/versionstore"
)

// MetadataField is the lineage envelope attached to every stored record.
const MetadataField = "_metadata"

// Coordinator runs ingestion calls. Calls for different (source, entity)
// pairs proceed fully in parallel; version creation for the same pair is
// serialized inside the version store.
type Coordinator struct {
	engine        *inference.Engine
	router        *router.Router
	versions      *versionstore.Store
	store         storage.DocumentStore
	tracker       *changes.Tracker
	sink          changes.Sink
	metrics       *metric.Metrics
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
	dedupEnabled  bool
	changeEnabled bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSink replaces the default store-backed change sink.
func WithSink(sink changes.Sink) Option {
	return func(c *Coordinator) { c.sink = sink }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger sets the coordinator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithoutDedup disables duplicate dropping; every record is inserted.
func WithoutDedup() Option {
	return func(c *Coordinator) { c.dedupEnabled = false }
}

// WithoutChangeDetection disables field change tracking.
func WithoutChangeDetection() Option {
	return func(c *Coordinator) { c.changeEnabled = false }
}

// withClock overrides the time source, for tests.
func withClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator wires the pipeline together. engine, rt, versions and store
// are required; the change sink defaults to appending into the domain's
// data_changes collection.
func NewCoordinator(engine *inference.Engine, rt *router.Router, versions *versionstore.Store, store storage.DocumentStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine:        engine,
		router:        rt,
		versions:      versions,
		store:         store,
		tracker:       changes.NewTracker(),
		sink:          changes.NewStoreSink(store),
		logger:        slog.Default(),
		now:           time.Now,
		newID:         uuid.NewString,
		dedupEnabled:  true,
		changeEnabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process runs the full pipeline on a raw batch: detect (source, entity)
// from field names, evolve the schema against the latest stored version,
// resolve the version, then ingest.
func (c *Coordinator) Process(ctx context.Context, batch types.Batch) (*types.IngestResult, error) {
	if len(batch) == 0 {
		return nil, flowerr.WrapInvalid(flowerr.ErrEmptyBatch, "ingest", "Process", "batch validation")
	}

	route := c.router.RouteBatch(batch)
	return c.ProcessAs(ctx, batch, route.Source, route.Entity)
}

// ProcessAs is Process with an explicit (source, entity) pair, for callers
// that know the categorization upfront.
func (c *Coordinator) ProcessAs(ctx context.Context, batch types.Batch, source, entity string) (*types.IngestResult, error) {
	if len(batch) == 0 {
		return nil, flowerr.WrapInvalid(flowerr.ErrEmptyBatch, "ingest", "ProcessAs", "batch validation")
	}

	prior, err := c.latestSchema(ctx, source, entity)
	if err != nil {
		return nil, err
	}

	schema, err := c.engine.Infer(ctx, batch, prior)
	if err != nil {
		return nil, err
	}

	return c.Ingest(ctx, batch, source, entity, schema)
}

// Ingest loads a batch under an already-inferred schema. Steps: resolve the
// schema version, deduplicate, detect changes (skipped for new versions),
// attach lineage metadata, bulk insert, and update counters. Partial insert
// failure is tolerated and reported; storage connectivity failure aborts the
// call.
func (c *Coordinator) Ingest(ctx context.Context, batch types.Batch, source, entity string, schema types.Schema) (*types.IngestResult, error) {
	start := c.now()

	if len(batch) == 0 {
		return nil, c.fail(source, "validation", flowerr.WrapInvalid(flowerr.ErrEmptyBatch, "ingest", "Ingest", "batch validation"))
	}
	if len(schema) == 0 {
		return nil, c.fail(source, "validation", flowerr.WrapInvalid(flowerr.ErrInvalidBatch, "ingest", "Ingest", "schema validation"))
	}

	route := c.router.Route(source, entity)
	batchID := c.newID()

	resolution, err := c.resolveVersion(ctx, source, entity, schema)
	if err != nil {
		return nil, c.fail(source, "version", err)
	}

	if c.metrics != nil && resolution.IsNewVersion {
		for _, field := range schema {
			c.metrics.RecordClassification(field.SemanticCategory)
		}
	}

	c.ensureIndexes(ctx, route, resolution.Collection, schema)

	kept, collisions, dupCount := batch, []collision(nil), 0
	if c.dedupEnabled {
		kept, collisions, dupCount, err = c.dedupe(ctx, route.Domain, resolution.Collection, batch)
		if err != nil {
			return nil, c.fail(source, "dedup", err)
		}
	}

	var detected []types.ChangeEvent
	if c.changeEnabled {
		detected, err = c.detectChanges(ctx, route, resolution, collisions)
		if err != nil {
			return nil, c.fail(source, "changes", err)
		}
	}

	docs := c.withLineage(kept, route, resolution, batchID)

	result := &types.IngestResult{
		DuplicateCount: dupCount,
		ChangeCount:    len(detected),
		Changes:        detected,
		Version:        resolution.Version,
		IsNewVersion:   resolution.IsNewVersion,
		Source:         route.Source,
		Entity:         route.Entity,
		Domain:         route.Domain,
		Collection:     resolution.Collection,
		BatchID:        batchID,
	}

	if len(docs) > 0 {
		insertRes, err := c.store.InsertMany(ctx, route.Domain, resolution.Collection, docs)
		if err != nil {
			return nil, c.fail(source, "insert", err)
		}
		result.InsertedCount = insertRes.InsertedCount
		result.FailedCount = len(insertRes.Failures)
		if result.FailedCount > 0 {
			c.logger.Error("bulk insert partially failed",
				"collection", resolution.Collection,
				"inserted", result.InsertedCount,
				"failed", result.FailedCount,
				"first_error", insertRes.Failures[0].Message)
		}
	}

	if result.InsertedCount > 0 {
		if err := c.versions.AddRecordCount(ctx, source, entity, resolution.Version, int64(result.InsertedCount)); err != nil {
			c.logger.Warn("failed to update record count",
				"source", source, "entity", entity, "version", resolution.Version, "error", err)
		}
	}

	c.observe(route, result, c.now().Sub(start))
	c.logger.Info("batch ingested",
		"source", route.Source, "entity", route.Entity,
		"collection", resolution.Collection,
		"inserted", result.InsertedCount,
		"duplicates", result.DuplicateCount,
		"failed", result.FailedCount,
		"changes", result.ChangeCount,
		"version", result.Version,
		"new_version", result.IsNewVersion,
		"batch_id", batchID)
	return result, nil
}

// latestSchema fetches the newest stored schema for merging, nil when the
// pair has no history yet.
func (c *Coordinator) latestSchema(ctx context.Context, source, entity string) (types.Schema, error) {
	versions, err := c.versions.History(ctx, source, entity)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return versions[0].Schema, nil
}

// resolveVersion retries transient conflicts: a concurrent writer creating
// the same next version makes the retry resolve idempotently by hash.
func (c *Coordinator) resolveVersion(ctx context.Context, source, entity string, schema types.Schema) (*types.VersionResolution, error) {
	return retry.DoWithResult(ctx, retry.Quick(), func() (*types.VersionResolution, error) {
		res, err := c.versions.Resolve(ctx, source, entity, schema)
		if err != nil && !flowerr.IsTransient(err) {
			return nil, retry.NonRetryable(err)
		}
		return res, err
	})
}

// detectChanges compares records that collided with stored documents against
// that stored state. Skipped entirely on a new version: there is no baseline
// to compare against.
func (c *Coordinator) detectChanges(ctx context.Context, route types.CategoryRoute, resolution *types.VersionResolution, collisions []collision) ([]types.ChangeEvent, error) {
	if resolution.IsNewVersion || len(collisions) == 0 {
		return nil, nil
	}

	var detected []types.ChangeEvent
	for _, col := range collisions {
		identifier := map[string]any{col.field: col.value}
		detected = append(detected, c.tracker.Detect(route.Source, route.Entity, identifier, col.stored, col.record)...)
	}

	if len(detected) > 0 {
		if err := c.sink.Publish(ctx, route.Domain, detected); err != nil {
			return nil, err
		}
		c.logger.Info("changes detected",
			"source", route.Source, "entity", route.Entity, "count", len(detected))
	}
	return detected, nil
}

// withLineage converts records to documents and attaches the lineage
// envelope.
func (c *Coordinator) withLineage(kept types.Batch, route types.CategoryRoute, resolution *types.VersionResolution, batchID string) []map[string]any {
	loadedAt := c.now().UTC()
	docs := make([]map[string]any, len(kept))
	for i, rec := range kept {
		doc := rec.ToMap()
		doc[MetadataField] = map[string]any{
			"source":    route.Source,
			"entity":    route.Entity,
			"version":   resolution.Version,
			"loaded_at": loadedAt,
			"database":  route.Domain,
			"batch_id":  batchID,
		}
		docs[i] = doc
	}
	return docs
}

// ensureIndexes builds lookup indexes for the collection: lineage timestamp,
// identifier fields present in the schema, and source-specific query fields.
// Index failures degrade to a warning; they never block ingestion.
func (c *Coordinator) ensureIndexes(ctx context.Context, route types.CategoryRoute, collection string, schema types.Schema) {
	indexed := [][]string{{MetadataField + ".loaded_at"}, {MetadataField + ".source"}}

	for _, field := range identifierPriority {
		if _, ok := schema[field]; ok {
			indexed = append(indexed, []string{field})
		}
	}

	queryFields := map[string][]string{
		"ecommerce": {"price", "category", "sku"},
		"hr":        {"department", "hire_date"},
	}
	for _, field := range queryFields[route.Source] {
		if _, ok := schema[field]; ok {
			indexed = append(indexed, []string{field})
		}
	}

	for _, fields := range indexed {
		if err := c.store.CreateIndex(ctx, route.Domain, collection, fields, false); err != nil {
			c.logger.Warn("index creation failed",
				"collection", collection, "fields", fields, "error", err)
		}
	}
}

func (c *Coordinator) fail(source, stage string, err error) error {
	if c.metrics != nil {
		c.metrics.IngestErrors.WithLabelValues(source, stage).Inc()
	}
	return err
}

func (c *Coordinator) observe(route types.CategoryRoute, result *types.IngestResult, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	labels := []string{route.Source, route.Entity}
	c.metrics.BatchesIngested.WithLabelValues(labels...).Inc()
	c.metrics.RecordsInserted.WithLabelValues(labels...).Add(float64(result.InsertedCount))
	c.metrics.DuplicatesDropped.WithLabelValues(labels...).Add(float64(result.DuplicateCount))
	c.metrics.InsertFailures.WithLabelValues(labels...).Add(float64(result.FailedCount))
	c.metrics.ChangesDetected.WithLabelValues(labels...).Add(float64(result.ChangeCount))
	c.metrics.IngestDuration.WithLabelValues(labels...).Observe(elapsed.Seconds())
	if result.IsNewVersion {
		c.metrics.SchemaVersionsCreated.WithLabelValues(labels...).Inc()
		c.metrics.SchemaVersion.WithLabelValues(labels...).Set(float64(result.Version))
	}
}
