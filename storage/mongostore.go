package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	flowerr "github.com/c360/schemaflow/errors"
)

// defaultOpTimeout bounds every store call so an unreachable server fails
// fast as transient instead of hanging an ingest.
const defaultOpTimeout = 10 * time.Second

// MongoStore is the MongoDB-backed DocumentStore. Each domain maps to a
// database on the same client.
type MongoStore struct {
	client    *mongo.Client
	opTimeout time.Duration
}

// MongoOption configures a MongoStore.
type MongoOption func(*MongoStore)

// WithOpTimeout overrides the per-operation timeout.
func WithOpTimeout(d time.Duration) MongoOption {
	return func(s *MongoStore) { s.opTimeout = d }
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri string, opts ...MongoOption) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, flowerr.WrapTransient(err, "storage", "NewMongoStore", "mongodb connect")
	}

	s := &MongoStore{client: client, opTimeout: defaultOpTimeout}
	for _, opt := range opts {
		opt(s)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, flowerr.WrapTransient(flowerr.ErrStorageUnavailable, "storage", "NewMongoStore", fmt.Sprintf("mongodb ping: %v", err))
	}
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client, for callers that manage
// connection lifecycle themselves.
func NewMongoStoreFromClient(client *mongo.Client, opts ...MongoOption) *MongoStore {
	s := &MongoStore{client: client, opTimeout: defaultOpTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client exposes the underlying connection for metadata repositories that
// share it.
func (s *MongoStore) Client() *mongo.Client {
	return s.client
}

// InsertMany implements DocumentStore. Inserts are unordered so one rejected
// document does not abort the rest; rejects come back as failures.
func (s *MongoStore) InsertMany(ctx context.Context, domain, collection string, docs []map[string]any) (*InsertResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	payload := make([]any, len(docs))
	for i, doc := range docs {
		payload[i] = doc
	}

	coll := s.client.Database(domain).Collection(collection)
	res, err := coll.InsertMany(ctx, payload, options.InsertMany().SetOrdered(false))

	result := &InsertResult{}
	if res != nil {
		result.InsertedCount = len(res.InsertedIDs)
	}
	if err == nil {
		return result, nil
	}

	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) {
		for _, we := range bulkErr.WriteErrors {
			result.Failures = append(result.Failures, InsertFailure{
				Index:   we.Index,
				Message: we.Message,
			})
		}
		// With unordered writes everything not listed as failed went in.
		if result.InsertedCount == 0 {
			result.InsertedCount = len(docs) - len(result.Failures)
		}
		return result, nil
	}

	return nil, s.asStorageError(ctx, err, "InsertMany")
}

// FindOne implements DocumentStore.
func (s *MongoStore) FindOne(ctx context.Context, domain, collection string, filter map[string]any) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var doc bson.M
	err := s.client.Database(domain).Collection(collection).FindOne(ctx, toFilter(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, flowerr.ErrDocumentNotFound
	}
	if err != nil {
		return nil, s.asStorageError(ctx, err, "FindOne")
	}
	return map[string]any(doc), nil
}

// Count implements DocumentStore.
func (s *MongoStore) Count(ctx context.Context, domain, collection string, filter map[string]any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	n, err := s.client.Database(domain).Collection(collection).CountDocuments(ctx, toFilter(filter))
	if err != nil {
		return 0, s.asStorageError(ctx, err, "Count")
	}
	return n, nil
}

// ListCollections implements DocumentStore.
func (s *MongoStore) ListCollections(ctx context.Context, domain string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	names, err := s.client.Database(domain).ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, s.asStorageError(ctx, err, "ListCollections")
	}
	return names, nil
}

// CreateIndex implements DocumentStore.
func (s *MongoStore) CreateIndex(ctx context.Context, domain, collection string, fields []string, unique bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	keys := make(bson.D, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}

	_, err := s.client.Database(domain).Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(unique),
	})
	if err != nil {
		return s.asStorageError(ctx, err, "CreateIndex")
	}
	return nil
}

// Close implements DocumentStore.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// asStorageError classifies driver failures: deadline and server-selection
// problems are transient storage unavailability, the rest pass through
// wrapped.
func (s *MongoStore) asStorageError(ctx context.Context, err error, method string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return flowerr.WrapTransient(flowerr.ErrStorageUnavailable, "storage", method, err.Error())
	}
	return flowerr.Wrap(err, "storage", method, "mongodb operation")
}

func toFilter(filter map[string]any) bson.M {
	if len(filter) == 0 {
		return bson.M{}
	}
	return bson.M(filter)
}
