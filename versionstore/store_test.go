package versionstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/types"
)

func intSchema(fields ...string) types.Schema {
	s := make(types.Schema)
	for _, f := range fields {
		s[f] = &types.FieldSchema{Type: types.TypeInteger}
	}
	return s
}

func newTestStore() *Store {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewStore(NewMemoryRepository(), withClock(func() time.Time { return fixed }))
}

func TestResolve_FirstVersion(t *testing.T) {
	s := newTestStore()

	res, err := s.Resolve(context.Background(), "ecommerce", "products", intSchema("id", "price"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Version)
	assert.True(t, res.IsNewVersion)
	assert.Nil(t, res.Diff)
	assert.NotEmpty(t, res.SchemaHash)
	assert.Equal(t, "ecommerce_products_v1", res.Collection)
}

func TestResolve_SameSchemaReusesVersion(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	schema := intSchema("id", "price")

	first, err := s.Resolve(ctx, "ecommerce", "products", schema)
	require.NoError(t, err)

	again, err := s.Resolve(ctx, "ecommerce", "products", schema)
	require.NoError(t, err)

	assert.Equal(t, first.Version, again.Version)
	assert.False(t, again.IsNewVersion)
	assert.Nil(t, again.Diff)
	assert.Equal(t, first.SchemaHash, again.SchemaHash)
}

func TestResolve_ChangedSchemaCreatesNextVersion(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.Resolve(ctx, "ecommerce", "products", intSchema("id", "price"))
	require.NoError(t, err)

	res, err := s.Resolve(ctx, "ecommerce", "products", intSchema("id", "price", "stock"))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Version)
	assert.True(t, res.IsNewVersion)
	require.NotNil(t, res.Diff)
	assert.Equal(t, []string{"stock"}, res.Diff.AddedFields)
	assert.Empty(t, res.Diff.RemovedFields)
	assert.False(t, res.Diff.BreakingChanges)
	assert.True(t, res.Diff.IsBackwardCompatible)
	assert.Equal(t, "ecommerce_products_v2", res.Collection)

	versions, err := s.History(ctx, "ecommerce", "products")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	require.NotNil(t, versions[0].ParentVersion)
	assert.Equal(t, 1, *versions[0].ParentVersion)
}

func TestResolve_MetadataChurnDoesNotBumpVersion(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	base := types.Schema{
		"id": &types.FieldSchema{Type: types.TypeInteger, SemanticCategory: "identifier", OccurrenceCount: 5},
	}
	churned := types.Schema{
		"id": &types.FieldSchema{Type: types.TypeInteger, SemanticCategory: "unknown", OccurrenceCount: 999, SampleValues: []any{"x"}},
	}

	first, err := s.Resolve(ctx, "src", "data", base)
	require.NoError(t, err)

	again, err := s.Resolve(ctx, "src", "data", churned)
	require.NoError(t, err)
	assert.Equal(t, first.Version, again.Version)
	assert.False(t, again.IsNewVersion)
}

func TestResolve_EmptySchema(t *testing.T) {
	s := newTestStore()

	_, err := s.Resolve(context.Background(), "src", "data", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, flowerr.ErrSchemaEmpty)
	assert.True(t, flowerr.IsInvalid(err))
}

func TestResolve_IndependentPairs(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	a, err := s.Resolve(ctx, "ecommerce", "products", intSchema("id"))
	require.NoError(t, err)
	b, err := s.Resolve(ctx, "hr", "employees", intSchema("id"))
	require.NoError(t, err)

	assert.Equal(t, 1, a.Version)
	assert.Equal(t, 1, b.Version)
}

func TestResolve_ConcurrentSamePair(t *testing.T) {
	s := newTestStore()
	schema := intSchema("id", "price")

	var wg sync.WaitGroup
	results := make([]*types.VersionResolution, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = s.Resolve(context.Background(), "ecommerce", "products", schema)
		}(i)
	}
	wg.Wait()

	// Exactly one creation; everyone lands on version 1.
	created := 0
	for i, res := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, 1, res.Version)
		if res.IsNewVersion {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

func TestRepository_ConflictOnDuplicateVersion(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	v := &types.SchemaVersion{Source: "s", Entity: "e", Version: 1, SchemaHash: "h"}
	require.NoError(t, repo.Insert(ctx, v))

	err := repo.Insert(ctx, &types.SchemaVersion{Source: "s", Entity: "e", Version: 1, SchemaHash: "h2"})
	assert.ErrorIs(t, err, flowerr.ErrVersionConflict)
}

func TestAddRecordCount(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.Resolve(ctx, "src", "data", intSchema("id"))
	require.NoError(t, err)

	require.NoError(t, s.AddRecordCount(ctx, "src", "data", 1, 42))
	require.NoError(t, s.AddRecordCount(ctx, "src", "data", 1, 0)) // no-op

	v, err := s.Get(ctx, "src", "data", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.RecordCount)
}

func TestCanonicalHash(t *testing.T) {
	a := types.Schema{
		"b": &types.FieldSchema{Type: types.TypeString},
		"a": &types.FieldSchema{Type: types.TypeInteger},
	}
	b := types.Schema{
		"a": &types.FieldSchema{Type: types.TypeInteger, SemanticCategory: "identifier"},
		"b": &types.FieldSchema{Type: types.TypeString, Nullable: true},
	}

	// Hash depends on names and types only, in sorted order.
	assert.Equal(t, CanonicalHash(a), CanonicalHash(b))

	c := types.Schema{
		"a": &types.FieldSchema{Type: types.TypeFloat},
		"b": &types.FieldSchema{Type: types.TypeString},
	}
	assert.NotEqual(t, CanonicalHash(a), CanonicalHash(c))
	assert.Len(t, CanonicalHash(a), 64)
}

func TestDiff(t *testing.T) {
	old := types.Schema{
		"id":     &types.FieldSchema{Type: types.TypeInteger},
		"name":   &types.FieldSchema{Type: types.TypeString},
		"legacy": &types.FieldSchema{Type: types.TypeString},
	}
	new := types.Schema{
		"id":    &types.FieldSchema{Type: types.TypeFloat}, // widened, still "modified"
		"name":  &types.FieldSchema{Type: types.TypeString},
		"email": &types.FieldSchema{Type: types.TypeEmail},
	}

	diff := Diff(old, new)
	assert.Equal(t, []string{"email"}, diff.AddedFields)
	assert.Equal(t, []string{"legacy"}, diff.RemovedFields)
	require.Len(t, diff.ModifiedFields, 1)
	assert.Equal(t, "id", diff.ModifiedFields[0].Field)
	assert.Equal(t, types.TypeInteger, diff.ModifiedFields[0].OldType)
	assert.Equal(t, types.TypeFloat, diff.ModifiedFields[0].NewType)
	assert.True(t, diff.BreakingChanges)
	assert.False(t, diff.IsBackwardCompatible)
}

func TestDiff_AdditionsOnlyAreCompatible(t *testing.T) {
	old := intSchema("id")
	new := intSchema("id", "extra")

	diff := Diff(old, new)
	assert.False(t, diff.BreakingChanges)
	assert.True(t, diff.IsBackwardCompatible)
}
