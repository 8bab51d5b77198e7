package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/relata/relata/pkg/observability"
	"github.com/relata/relata/pkg/prefab"
)

// MongoConfig configures a MongoDB-backed snapshot store.
type MongoConfig struct {
	// URI is the connection string, e.g. mongodb://localhost:27017.
	URI string
	// Database holds the snapshot collection. Defaults to "relata".
	Database string
	// Collection name. Defaults to "snapshots".
	Collection string
}

// MongoStore keeps snapshots as BSON documents, one per prefab, keyed by the
// prefab ID. The prefab's own BSON tags define the document shape.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "relata"
	}
	if cfg.Collection == "" {
		cfg.Collection = "snapshots"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Put(ctx context.Context, p *prefab.Prefab) error {
	start := time.Now()
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	observability.Store().OnPut(ctx, "mongo", p.ID.String(), p.EntityCount(), p.EdgeCount(), time.Since(start))
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*prefab.Prefab, error) {
	start := time.Now()
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var p prefab.Prefab
	err = s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			observability.Store().OnGet(ctx, "mongo", id, false, time.Since(start))
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	observability.Store().OnGet(ctx, "mongo", id, true, time.Since(start))
	return &p, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	start := time.Now()
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var infos []Info
	for cursor.Next(ctx) {
		var p prefab.Prefab
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		infos = append(infos, InfoOf(&p))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	observability.Store().OnList(ctx, "mongo", len(infos), time.Since(start))
	return infos, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	key, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	observability.Store().OnDelete(ctx, "mongo", id, time.Since(start))
	return nil
}

var _ Store = (*MongoStore)(nil)
