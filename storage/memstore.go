package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	flowerr "github.com/c360/schemaflow/errors"
)

// MemStore is an in-memory DocumentStore. It honors unique indexes so dedup
// and conflict paths behave like a real backend. Used in tests and as a
// scratch backend for local runs.
type MemStore struct {
	mu      sync.RWMutex
	domains map[string]map[string][]map[string]any // domain -> collection -> docs
	uniques map[string][][]string                  // domain/collection -> unique index field sets
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		domains: make(map[string]map[string][]map[string]any),
		uniques: make(map[string][][]string),
	}
}

func collKey(domain, collection string) string {
	return domain + "/" + collection
}

// InsertMany implements DocumentStore. Documents violating a unique index
// are reported as failures; the rest are inserted.
func (m *MemStore) InsertMany(_ context.Context, domain, collection string, docs []map[string]any) (*InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.domains[domain] == nil {
		m.domains[domain] = make(map[string][]map[string]any)
	}

	result := &InsertResult{}
	for i, doc := range docs {
		if fields, ok := m.violatesUnique(domain, collection, doc); ok {
			result.Failures = append(result.Failures, InsertFailure{
				Index:   i,
				Message: fmt.Sprintf("duplicate key on %v", fields),
			})
			continue
		}
		m.domains[domain][collection] = append(m.domains[domain][collection], cloneDoc(doc))
		result.InsertedCount++
	}
	return result, nil
}

// FindOne implements DocumentStore.
func (m *MemStore) FindOne(_ context.Context, domain, collection string, filter map[string]any) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, doc := range m.domains[domain][collection] {
		if matches(doc, filter) {
			return cloneDoc(doc), nil
		}
	}
	return nil, flowerr.ErrDocumentNotFound
}

// Count implements DocumentStore.
func (m *MemStore) Count(_ context.Context, domain, collection string, filter map[string]any) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, doc := range m.domains[domain][collection] {
		if matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

// ListCollections implements DocumentStore, sorted for determinism.
func (m *MemStore) ListCollections(_ context.Context, domain string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.domains[domain]))
	for name := range m.domains[domain] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateIndex implements DocumentStore. Only unique indexes change behavior;
// non-unique ones are accepted and ignored.
func (m *MemStore) CreateIndex(_ context.Context, domain, collection string, fields []string, unique bool) error {
	if !unique {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := collKey(domain, collection)
	for _, existing := range m.uniques[key] {
		if equalFields(existing, fields) {
			return nil
		}
	}
	m.uniques[key] = append(m.uniques[key], append([]string(nil), fields...))
	return nil
}

// Close implements DocumentStore.
func (m *MemStore) Close(context.Context) error {
	return nil
}

// violatesUnique reports whether doc collides with a stored document on any
// unique index. Caller must hold m.mu.
func (m *MemStore) violatesUnique(domain, collection string, doc map[string]any) ([]string, bool) {
	for _, fields := range m.uniques[collKey(domain, collection)] {
		filter := make(map[string]any, len(fields))
		complete := true
		for _, f := range fields {
			v, ok := doc[f]
			if !ok {
				complete = false
				break
			}
			filter[f] = v
		}
		if !complete {
			continue
		}
		for _, stored := range m.domains[domain][collection] {
			if matches(stored, filter) {
				return fields, true
			}
		}
	}
	return nil, false
}

func matches(doc, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func cloneDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
