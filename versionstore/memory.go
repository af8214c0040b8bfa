package versionstore

import (
	"context"
	"sort"
	"sync"
	"time"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/types"
)

// MemoryRepository keeps schema versions in process memory. Used in tests
// and single-node deployments that do not need durable version history.
type MemoryRepository struct {
	mu       sync.RWMutex
	versions map[string][]*types.SchemaVersion // key: source\x00entity, ascending by version
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{versions: make(map[string][]*types.SchemaVersion)}
}

func memKey(source, entity string) string {
	return source + "\x00" + entity
}

// Latest implements Repository.
func (r *MemoryRepository) Latest(_ context.Context, source, entity string) (*types.SchemaVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.versions[memKey(source, entity)]
	if len(list) == 0 {
		return nil, flowerr.ErrVersionNotFound
	}
	v := *list[len(list)-1]
	return &v, nil
}

// Get implements Repository.
func (r *MemoryRepository) Get(_ context.Context, source, entity string, version int) (*types.SchemaVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.versions[memKey(source, entity)] {
		if v.Version == version {
			out := *v
			return &out, nil
		}
	}
	return nil, flowerr.ErrVersionNotFound
}

// List implements Repository, returning versions newest first.
func (r *MemoryRepository) List(_ context.Context, source, entity string) ([]*types.SchemaVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.versions[memKey(source, entity)]
	out := make([]*types.SchemaVersion, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		v := *list[i]
		out = append(out, &v)
	}
	return out, nil
}

// Insert implements Repository.
func (r *MemoryRepository) Insert(_ context.Context, version *types.SchemaVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memKey(version.Source, version.Entity)
	for _, v := range r.versions[key] {
		if v.Version == version.Version {
			return flowerr.ErrVersionConflict
		}
	}

	stored := *version
	r.versions[key] = append(r.versions[key], &stored)
	sort.Slice(r.versions[key], func(i, j int) bool {
		return r.versions[key][i].Version < r.versions[key][j].Version
	})
	return nil
}

// TouchLastUsed implements Repository.
func (r *MemoryRepository) TouchLastUsed(_ context.Context, source, entity string, version int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.versions[memKey(source, entity)] {
		if v.Version == version {
			v.LastUsed = at
			return nil
		}
	}
	return flowerr.ErrVersionNotFound
}

// AddRecordCount implements Repository.
func (r *MemoryRepository) AddRecordCount(_ context.Context, source, entity string, version int, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.versions[memKey(source, entity)] {
		if v.Version == version {
			v.RecordCount += delta
			return nil
		}
	}
	return flowerr.ErrVersionNotFound
}
