package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	ferrors "github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
)

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps traces in a MongoDB collection, one document per trace,
// with a unique index on the content hash.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects, pings and ensures the hash index.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "flowscope"
	}
	if cfg.Collection == "" {
		cfg.Collection = "traces"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeUnavailable, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, ferrors.Wrap(ferrors.ErrCodeUnavailable, err, "ping mongodb")
	}

	s := &MongoStore{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}
	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hash", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create hash index: %w", err)
	}
	return s, nil
}

// Put stores doc unless a trace with the same hash exists. Two concurrent
// uploads of one trace both end up with the record that won the insert.
func (s *MongoStore) Put(ctx context.Context, doc graph.Document) (*Trace, error) {
	t, err := NewTrace(doc)
	if err != nil {
		return nil, err
	}
	if existing, err := s.byHash(ctx, t.Hash); err == nil {
		return existing, nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if _, err := s.coll.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return s.byHash(ctx, t.Hash)
		}
		return nil, fmt.Errorf("insert trace: %w", err)
	}
	return t, nil
}

func (s *MongoStore) byHash(ctx context.Context, hash string) (*Trace, error) {
	var t Trace
	if err := s.coll.FindOne(ctx, bson.M{"hash": hash}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Get fetches the trace with the given id.
func (s *MongoStore) Get(ctx context.Context, id string) (*Trace, error) {
	if err := ferrors.ValidateTraceID(id); err != nil {
		return nil, err
	}
	var t Trace
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find trace: %w", err)
	}
	return &t, nil
}

// List returns every trace without its frames, oldest first.
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetProjection(bson.M{"document": 0}).
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	out := []Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode traces: %w", err)
	}
	return out, nil
}

// Delete removes the trace with the given id.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := ferrors.ValidateTraceID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete trace: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
