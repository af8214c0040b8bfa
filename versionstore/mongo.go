package versionstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/types"
)

// VersionCollection is the metadata collection holding schema versions.
const VersionCollection = "schema_versions"

// MongoRepository persists schema versions in a MongoDB collection. The
// unique index on (source, entity, version) is the cross-process guard
// against concurrent version creation.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository wraps the schema_versions collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(VersionCollection)}
}

// EnsureIndexes creates the unique (source, entity, version) index. Call once
// at startup; the operation is idempotent.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "source", Value: 1},
			{Key: "entity", Value: 1},
			{Key: "version", Value: -1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return flowerr.WrapTransient(err, "versionstore", "EnsureIndexes", "index creation")
	}
	return nil
}

// Latest implements Repository.
func (r *MongoRepository) Latest(ctx context.Context, source, entity string) (*types.SchemaVersion, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})

	var v types.SchemaVersion
	err := r.coll.FindOne(ctx, bson.M{"source": source, "entity": entity}, opts).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, flowerr.ErrVersionNotFound
	}
	if err != nil {
		return nil, flowerr.Wrap(flowerr.ErrStorageUnavailable, "versionstore", "Latest", err.Error())
	}
	return &v, nil
}

// Get implements Repository.
func (r *MongoRepository) Get(ctx context.Context, source, entity string, version int) (*types.SchemaVersion, error) {
	var v types.SchemaVersion
	err := r.coll.FindOne(ctx, bson.M{"source": source, "entity": entity, "version": version}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, flowerr.ErrVersionNotFound
	}
	if err != nil {
		return nil, flowerr.Wrap(flowerr.ErrStorageUnavailable, "versionstore", "Get", err.Error())
	}
	return &v, nil
}

// List implements Repository, newest first.
func (r *MongoRepository) List(ctx context.Context, source, entity string) ([]*types.SchemaVersion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "version", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{"source": source, "entity": entity}, opts)
	if err != nil {
		return nil, flowerr.Wrap(flowerr.ErrStorageUnavailable, "versionstore", "List", err.Error())
	}
	defer cursor.Close(ctx)

	var versions []*types.SchemaVersion
	for cursor.Next(ctx) {
		var v types.SchemaVersion
		if err := cursor.Decode(&v); err != nil {
			return nil, flowerr.Wrap(err, "versionstore", "List", "version decode")
		}
		versions = append(versions, &v)
	}
	if err := cursor.Err(); err != nil {
		return nil, flowerr.Wrap(flowerr.ErrStorageUnavailable, "versionstore", "List", err.Error())
	}
	return versions, nil
}

// Insert implements Repository. A duplicate key on (source, entity, version)
// means another writer created the version first.
func (r *MongoRepository) Insert(ctx context.Context, version *types.SchemaVersion) error {
	_, err := r.coll.InsertOne(ctx, version)
	if mongo.IsDuplicateKeyError(err) {
		return flowerr.ErrVersionConflict
	}
	if err != nil {
		return flowerr.Wrap(flowerr.ErrStorageUnavailable, "versionstore", "Insert", err.Error())
	}
	return nil
}

// TouchLastUsed implements Repository.
func (r *MongoRepository) TouchLastUsed(ctx context.Context, source, entity string, version int, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"source": source, "entity": entity, "version": version},
		bson.M{"$set": bson.M{"last_used": at}})
	if err != nil {
		return flowerr.Wrap(flowerr.ErrStorageUnavailable, "versionstore", "TouchLastUsed", err.Error())
	}
	return nil
}

// AddRecordCount implements Repository.
func (r *MongoRepository) AddRecordCount(ctx context.Context, source, entity string, version int, delta int64) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"source": source, "entity": entity, "version": version},
		bson.M{"$inc": bson.M{"record_count": delta}})
	if err != nil {
		return flowerr.Wrap(flowerr.ErrStorageUnavailable, "versionstore", "AddRecordCount", err.Error())
	}
	return nil
}
