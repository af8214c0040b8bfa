package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowerr "github.com/c360/schemaflow/errors"
)

func TestMemStore_InsertAndFind(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	res, err := s.InsertMany(ctx, "ecommerce_db", "products_v1", []map[string]any{
		{"id": "p1", "name": "Widget"},
		{"id": "p2", "name": "Gadget"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.InsertedCount)
	assert.Empty(t, res.Failures)

	doc, err := s.FindOne(ctx, "ecommerce_db", "products_v1", map[string]any{"id": "p2"})
	require.NoError(t, err)
	assert.Equal(t, "Gadget", doc["name"])

	_, err = s.FindOne(ctx, "ecommerce_db", "products_v1", map[string]any{"id": "missing"})
	assert.ErrorIs(t, err, flowerr.ErrDocumentNotFound)
}

func TestMemStore_FindReturnsCopy(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_, err := s.InsertMany(ctx, "d", "c", []map[string]any{{"id": "x", "v": 1}})
	require.NoError(t, err)

	doc, err := s.FindOne(ctx, "d", "c", map[string]any{"id": "x"})
	require.NoError(t, err)
	doc["v"] = 999

	again, err := s.FindOne(ctx, "d", "c", map[string]any{"id": "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, again["v"])
}

func TestMemStore_Count(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_, err := s.InsertMany(ctx, "d", "c", []map[string]any{
		{"status": "active"},
		{"status": "active"},
		{"status": "inactive"},
	})
	require.NoError(t, err)

	n, err := s.Count(ctx, "d", "c", map[string]any{"status": "active"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	total, err := s.Count(ctx, "d", "c", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestMemStore_UniqueIndexRejectsDuplicates(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.CreateIndex(ctx, "d", "c", []string{"id"}, true))

	res, err := s.InsertMany(ctx, "d", "c", []map[string]any{
		{"id": "a", "v": 1},
		{"id": "a", "v": 2},
		{"id": "b", "v": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.InsertedCount)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)

	// Documents without the indexed field are always accepted.
	res, err = s.InsertMany(ctx, "d", "c", []map[string]any{{"other": true}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.InsertedCount)
}

func TestMemStore_ListCollections(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_, _ = s.InsertMany(ctx, "d", "zeta", []map[string]any{{"a": 1}})
	_, _ = s.InsertMany(ctx, "d", "alpha", []map[string]any{{"a": 1}})
	_, _ = s.InsertMany(ctx, "other", "gamma", []map[string]any{{"a": 1}})

	names, err := s.ListCollections(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestMemStore_DomainsAreIsolated(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	_, _ = s.InsertMany(ctx, "a", "c", []map[string]any{{"id": "x"}})

	_, err := s.FindOne(ctx, "b", "c", map[string]any{"id": "x"})
	assert.ErrorIs(t, err, flowerr.ErrDocumentNotFound)
}
