package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/report"
)

const (
	defaultDatabase   = "ot3d"
	defaultCollection = "reports"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string // default "ot3d"
	Collection string // default "reports"
}

func (c *MongoConfig) validate() error {
	if c.URI == "" {
		return errors.New("mongo store requires a URI")
	}
	if c.Database == "" {
		c.Database = defaultDatabase
	}
	if c.Collection == "" {
		c.Collection = defaultCollection
	}
	return nil
}

// MongoStore keeps reports in a MongoDB collection, keyed by run id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, r *report.Report) error {
	if err := checkID(r.ID); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, idFilter(r.ID), r, opts); err != nil {
		return fmt.Errorf("mongo save %s: %w", r.ID, err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (*report.Report, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var r report.Report
	err := s.coll.FindOne(ctx, idFilter(id)).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo load %s: %w", id, err)
	}
	return &r, nil
}

func (s *MongoStore) List(ctx context.Context) ([]report.Summary, error) {
	cur, err := s.coll.Aggregate(ctx, listPipeline())
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	var out []report.Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	sortSummaries(out)
	return out, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func idFilter(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

// listPipeline projects every report onto its Summary fields, replacing the
// cluster list by its length.
func listPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "design", Value: 1},
			{Key: "source", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "clusters", Value: bson.D{{Key: "$size", Value: bson.D{
				{Key: "$ifNull", Value: bson.A{"$clusters", bson.A{}}},
			}}}},
		}}},
	}
}

var _ Store = (*MongoStore)(nil)
