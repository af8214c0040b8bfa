package versionstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/types"
)

// Repository persists schema versions. Implementations must enforce
// uniqueness of (source, entity, version) and report a violation as
// flowerr.ErrVersionConflict; a missing latest version is
// flowerr.ErrVersionNotFound.
type Repository interface {
	// Latest returns the highest-numbered version for the pair.
	Latest(ctx context.Context, source, entity string) (*types.SchemaVersion, error)

	// Get returns one specific version.
	Get(ctx context.Context, source, entity string, version int) (*types.SchemaVersion, error)

	// List returns all versions for the pair, newest first.
	List(ctx context.Context, source, entity string) ([]*types.SchemaVersion, error)

	// Insert stores a new version.
	Insert(ctx context.Context, version *types.SchemaVersion) error

	// TouchLastUsed updates the last_used timestamp of a version.
	TouchLastUsed(ctx context.Context, source, entity string, version int, at time.Time) error

	// AddRecordCount increments a version's record counter.
	AddRecordCount(ctx context.Context, source, entity string, version int, delta int64) error
}

// Store resolves schemas to version numbers. It serializes version creation
// per (source, entity) key with in-process mutexes; cross-process races are
// caught by the repository's uniqueness constraint and surface as a
// retryable conflict.
type Store struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// withClock overrides the time source, for tests.
func withClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a version store on top of a repository.
func NewStore(repo Repository, opts ...StoreOption) *Store {
	s := &Store{
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve maps a schema to its version for (source, entity).
//
// An unchanged structural hash reuses the latest version and refreshes its
// last_used timestamp. A changed hash creates the next version with a diff
// against its parent. No prior version creates version 1. Resolution is
// idempotent: resubmitting the same schema yields the same version, which
// makes retries after cancellation or conflict safe.
func (s *Store) Resolve(ctx context.Context, source, entity string, schema types.Schema) (*types.VersionResolution, error) {
	if len(schema) == 0 {
		return nil, flowerr.WrapInvalid(flowerr.ErrSchemaEmpty, "versionstore", "Resolve", "version resolution")
	}

	lock := s.keyLock(source + "\x00" + entity)
	lock.Lock()
	defer lock.Unlock()

	hash := CanonicalHash(schema)
	now := s.now().UTC()

	latest, err := s.repo.Latest(ctx, source, entity)
	switch {
	case err == nil:
	case errors.Is(err, flowerr.ErrVersionNotFound):
		return s.createVersion(ctx, source, entity, schema, hash, 1, nil, nil, now)
	default:
		return nil, flowerr.WrapTransient(err, "versionstore", "Resolve", "latest version lookup")
	}

	if latest.SchemaHash == hash {
		if err := s.repo.TouchLastUsed(ctx, source, entity, latest.Version, now); err != nil {
			s.logger.Warn("failed to update last_used",
				"source", source, "entity", entity, "version", latest.Version, "error", err)
		}
		s.logger.Info("schema unchanged, reusing version",
			"source", source, "entity", entity, "version", latest.Version)
		return &types.VersionResolution{
			Version:    latest.Version,
			SchemaHash: hash,
			Collection: CollectionName(source, entity, latest.Version),
		}, nil
	}

	diff := Diff(latest.Schema, schema)
	parent := latest.Version
	return s.createVersion(ctx, source, entity, schema, hash, latest.Version+1, &parent, diff, now)
}

// History returns every version recorded for the pair, newest first.
func (s *Store) History(ctx context.Context, source, entity string) ([]*types.SchemaVersion, error) {
	versions, err := s.repo.List(ctx, source, entity)
	if err != nil {
		return nil, flowerr.WrapTransient(err, "versionstore", "History", "version listing")
	}
	return versions, nil
}

// Get returns one specific version.
func (s *Store) Get(ctx context.Context, source, entity string, version int) (*types.SchemaVersion, error) {
	return s.repo.Get(ctx, source, entity, version)
}

// AddRecordCount increments the record counter of a version after a
// successful insert.
func (s *Store) AddRecordCount(ctx context.Context, source, entity string, version int, delta int64) error {
	if delta == 0 {
		return nil
	}
	return s.repo.AddRecordCount(ctx, source, entity, version, delta)
}

func (s *Store) createVersion(ctx context.Context, source, entity string, schema types.Schema, hash string, version int, parent *int, diff *types.SchemaDiff, now time.Time) (*types.VersionResolution, error) {
	v := &types.SchemaVersion{
		Source:        source,
		Entity:        entity,
		Version:       version,
		Schema:        schema.Clone(),
		SchemaHash:    hash,
		CreatedAt:     now,
		LastUsed:      now,
		ParentVersion: parent,
		Diff:          diff,
	}

	if err := s.repo.Insert(ctx, v); err != nil {
		if errors.Is(err, flowerr.ErrVersionConflict) {
			// Another writer won the race; the caller retries and the
			// hash-based resolution converges.
			return nil, flowerr.WrapTransient(err, "versionstore", "Resolve", "version creation")
		}
		return nil, flowerr.WrapTransient(err, "versionstore", "Resolve", "version insert")
	}

	if parent == nil {
		s.logger.Info("created first schema version", "source", source, "entity", entity)
	} else {
		s.logger.Info("schema evolved",
			"source", source, "entity", entity,
			"from", *parent, "to", version,
			"added", diff.AddedFields, "removed", diff.RemovedFields,
			"modified", len(diff.ModifiedFields), "breaking", diff.BreakingChanges)
	}

	return &types.VersionResolution{
		Version:      version,
		IsNewVersion: true,
		Diff:         diff,
		SchemaHash:   hash,
		Collection:   CollectionName(source, entity, version),
	}, nil
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}
