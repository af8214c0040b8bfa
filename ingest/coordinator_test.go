package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/inference"
	"github.com/c360/schemaflow/ingest/changes"
	"github.com/c360/schemaflow/router"
	"github.com/c360/schemaflow/storage"
	"github.com/c360/schemaflow/types"
	"github.com/c360/schemaflow/versionstore"
)

type pipeline struct {
	coordinator *Coordinator
	store       *storage.MemStore
	versions    *versionstore.Store
}

func newPipeline(t *testing.T, opts ...Option) *pipeline {
	t.Helper()

	store := storage.NewMemStore()
	versions := versionstore.NewStore(versionstore.NewMemoryRepository())
	engine := inference.NewEngine(nil)
	rt := router.New(nil)

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]Option{withClock(func() time.Time { return fixed })}, opts...)

	return &pipeline{
		coordinator: NewCoordinator(engine, rt, versions, store, opts...),
		store:       store,
		versions:    versions,
	}
}

func TestProcess_DetectsCategoryAndCreatesFirstVersion(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	batch := types.Batch{
		types.RecordFromPairs("sku", "A-1", "price", 9.99, "cart", "c1"),
		types.RecordFromPairs("sku", "A-2", "price", 19.99, "cart", "c2"),
	}

	result, err := p.coordinator.Process(ctx, batch)
	require.NoError(t, err)

	assert.Equal(t, "ecommerce", result.Source)
	assert.Equal(t, "products", result.Entity)
	assert.Equal(t, "ecommerce_db", result.Domain)
	assert.Equal(t, 1, result.Version)
	assert.True(t, result.IsNewVersion)
	assert.Equal(t, "ecommerce_products_v1", result.Collection)
	assert.Equal(t, 2, result.InsertedCount)
	assert.Zero(t, result.DuplicateCount)
	assert.Zero(t, result.ChangeCount)
	assert.NotEmpty(t, result.BatchID)

	n, err := p.store.Count(ctx, "ecommerce_db", "ecommerce_products_v1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestProcess_EmptyBatch(t *testing.T) {
	p := newPipeline(t)

	_, err := p.coordinator.Process(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, flowerr.ErrEmptyBatch)
}

func TestIngest_EmptySchema(t *testing.T) {
	p := newPipeline(t)

	batch := types.Batch{types.RecordFromPairs("id", "p101")}
	_, err := p.coordinator.Ingest(context.Background(), batch, "ecommerce", "products", types.Schema{})
	require.Error(t, err)
	assert.ErrorIs(t, err, flowerr.ErrInvalidBatch)
}

func TestProcessAs_ReingestIdenticalBatchDropsEverything(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	batch := types.Batch{
		types.RecordFromPairs("id", "p101", "price", 10.0),
		types.RecordFromPairs("id", "p102", "price", 20.0),
		types.RecordFromPairs("id", "p103", "price", 30.0),
	}

	first, err := p.coordinator.ProcessAs(ctx, batch, "ecommerce", "products")
	require.NoError(t, err)
	assert.Equal(t, 3, first.InsertedCount)
	assert.True(t, first.IsNewVersion)

	second, err := p.coordinator.ProcessAs(ctx, batch, "ecommerce", "products")
	require.NoError(t, err)
	assert.Zero(t, second.InsertedCount)
	assert.Equal(t, 3, second.DuplicateCount)
	assert.Equal(t, first.Version, second.Version)
	assert.False(t, second.IsNewVersion)
	// Identical values produce no change events.
	assert.Zero(t, second.ChangeCount)
}

func TestProcessAs_WatchedFieldChangeEmitsEvent(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	_, err := p.coordinator.ProcessAs(ctx,
		types.Batch{types.RecordFromPairs("id", "p101", "price", int64(100))},
		"ecommerce", "products")
	require.NoError(t, err)

	result, err := p.coordinator.ProcessAs(ctx,
		types.Batch{types.RecordFromPairs("id", "p101", "price", int64(150))},
		"ecommerce", "products")
	require.NoError(t, err)

	assert.Equal(t, 1, result.DuplicateCount)
	assert.Zero(t, result.InsertedCount)
	require.Equal(t, 1, result.ChangeCount)

	ev := result.Changes[0]
	assert.Equal(t, "price", ev.Field)
	assert.Equal(t, int64(100), ev.OldValue)
	assert.Equal(t, int64(150), ev.NewValue)
	require.NotNil(t, ev.ChangeMagnitude)
	assert.InDelta(t, 50.0, *ev.ChangeMagnitude, 1e-9)

	// Events are persisted append-only in the domain's metadata collection.
	n, err := p.store.Count(ctx, "ecommerce_db", changes.ChangesCollection, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProcessAs_NewVersionSkipsChangeDetection(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	_, err := p.coordinator.ProcessAs(ctx,
		types.Batch{types.RecordFromPairs("id", "p101", "price", int64(100))},
		"ecommerce", "products")
	require.NoError(t, err)

	// Added field changes the schema hash, bumping the version. The new
	// collection has no baseline, so neither dedup nor change detection
	// fires even though the identifier repeats.
	result, err := p.coordinator.ProcessAs(ctx,
		types.Batch{types.RecordFromPairs("id", "p101", "price", int64(150), "email", "a@b.com")},
		"ecommerce", "products")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Version)
	assert.True(t, result.IsNewVersion)
	assert.Equal(t, "ecommerce_products_v2", result.Collection)
	assert.Equal(t, 1, result.InsertedCount)
	assert.Zero(t, result.DuplicateCount)
	assert.Zero(t, result.ChangeCount)
}

func TestIngest_PartialInsertFailureTolerated(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	require.NoError(t, p.store.CreateIndex(ctx, "ecommerce_db", "ecommerce_products_v1", []string{"sku"}, true))

	batch := types.Batch{
		types.RecordFromPairs("id", "p101", "sku", "A-1", "price", 10.0),
		types.RecordFromPairs("id", "p102", "sku", "A-1", "price", 12.0),
	}

	result, err := p.coordinator.ProcessAs(ctx, batch, "ecommerce", "products")
	require.NoError(t, err)

	assert.Equal(t, 1, result.InsertedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Zero(t, result.DuplicateCount)
}

func TestIngest_RecordsWithoutIdentifierAlwaysKept(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	batch := types.Batch{
		types.RecordFromPairs("price", 10.0),
		types.RecordFromPairs("price", 10.0),
	}

	first, err := p.coordinator.ProcessAs(ctx, batch, "ecommerce", "products")
	require.NoError(t, err)
	assert.Equal(t, 2, first.InsertedCount)

	second, err := p.coordinator.ProcessAs(ctx, batch, "ecommerce", "products")
	require.NoError(t, err)
	assert.Equal(t, 2, second.InsertedCount)
	assert.Zero(t, second.DuplicateCount)
}

func TestIngest_AttachesLineageMetadata(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	result, err := p.coordinator.ProcessAs(ctx,
		types.Batch{types.RecordFromPairs("id", "p101", "price", 10.0)},
		"ecommerce", "products")
	require.NoError(t, err)

	doc, err := p.store.FindOne(ctx, "ecommerce_db", "ecommerce_products_v1", map[string]any{"id": "p101"})
	require.NoError(t, err)

	meta, ok := doc[MetadataField].(map[string]any)
	require.True(t, ok, "stored document should carry a lineage envelope")
	assert.Equal(t, "ecommerce", meta["source"])
	assert.Equal(t, "products", meta["entity"])
	assert.Equal(t, 1, meta["version"])
	assert.Equal(t, "ecommerce_db", meta["database"])
	assert.Equal(t, result.BatchID, meta["batch_id"])
	assert.NotNil(t, meta["loaded_at"])
}

func TestIngest_RecordCountTracksInsertions(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	_, err := p.coordinator.ProcessAs(ctx,
		types.Batch{
			types.RecordFromPairs("id", "p101", "price", 10.0),
			types.RecordFromPairs("id", "p102", "price", 20.0),
		},
		"ecommerce", "products")
	require.NoError(t, err)

	_, err = p.coordinator.ProcessAs(ctx,
		types.Batch{types.RecordFromPairs("id", "p103", "price", 30.0)},
		"ecommerce", "products")
	require.NoError(t, err)

	version, err := p.versions.Get(ctx, "ecommerce", "products", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version.RecordCount)
}

func TestIngest_DedupDisabledKeepsEverything(t *testing.T) {
	p := newPipeline(t, WithoutDedup(), WithoutChangeDetection())
	ctx := context.Background()

	batch := types.Batch{types.RecordFromPairs("id", "p101", "price", int64(100))}

	first, err := p.coordinator.ProcessAs(ctx, batch, "ecommerce", "products")
	require.NoError(t, err)
	assert.Equal(t, 1, first.InsertedCount)

	second, err := p.coordinator.ProcessAs(ctx,
		types.Batch{types.RecordFromPairs("id", "p101", "price", int64(150))},
		"ecommerce", "products")
	require.NoError(t, err)

	assert.Equal(t, 1, second.InsertedCount)
	assert.Zero(t, second.DuplicateCount)
	assert.Zero(t, second.ChangeCount)
}

func TestStats_AggregatesAcrossDomains(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	_, err := p.coordinator.ProcessAs(ctx,
		types.Batch{
			types.RecordFromPairs("id", "p101", "price", 10.0),
			types.RecordFromPairs("id", "p102", "price", 20.0),
		},
		"ecommerce", "products")
	require.NoError(t, err)

	_, err = p.coordinator.ProcessAs(ctx,
		types.Batch{types.RecordFromPairs("id", "e1", "salary", int64(50000))},
		"hr", "employees")
	require.NoError(t, err)

	stats, err := p.coordinator.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalRecords)
	assert.Equal(t, int64(2), stats.Databases["ecommerce"].Records)
	assert.Equal(t, "ecommerce_db", stats.Databases["ecommerce"].Domain)
	assert.Equal(t, int64(1), stats.Databases["hr"].Records)
	assert.Zero(t, stats.Databases["financial"].Records)
}

func TestIdentifier_PriorityOrder(t *testing.T) {
	field, value, ok := Identifier(types.RecordFromPairs("email", "a@b.com", "id", "p101"))
	require.True(t, ok)
	assert.Equal(t, "id", field)
	assert.Equal(t, "p101", value)

	field, value, ok = Identifier(types.RecordFromPairs("customer_id", "c9", "note", "x"))
	require.True(t, ok)
	assert.Equal(t, "customer_id", field)
	assert.Equal(t, "c9", value)

	_, _, ok = Identifier(types.RecordFromPairs("note", "x"))
	assert.False(t, ok)

	// Null identifiers do not count.
	_, _, ok = Identifier(types.RecordFromPairs("id", nil, "note", "x"))
	assert.False(t, ok)
}
