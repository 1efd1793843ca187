package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStorage implements Storage on a MongoDB collection.
type MongoStorage struct {
	uri        string
	database   string
	collection string
	timeout    time.Duration

	client   *mongo.Client
	coll     *mongo.Collection
	projects ProjectRepository
}

// NewMongoStorage creates a new MongoDB storage.
func NewMongoStorage(uri, database, collection string, timeout time.Duration) *MongoStorage {
	if database == "" {
		database = "rostergrid"
	}
	if collection == "" {
		collection = "projects"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MongoStorage{
		uri:        uri,
		database:   database,
		collection: collection,
		timeout:    timeout,
	}
}

// Open connects to the server and verifies it answers.
func (s *MongoStorage) Open() error {
	if s.uri == "" {
		return fmt.Errorf("mongo uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(s.uri).
		SetConnectTimeout(s.timeout).
		SetServerSelectionTimeout(s.timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return fmt.Errorf("ping mongo: %w", err)
	}

	s.client = client
	s.coll = client.Database(s.database).Collection(s.collection)
	s.projects = instrument(&mongoProjectRepo{coll: s.coll}, DriverMongo)
	return nil
}

// Close disconnects the client.
func (s *MongoStorage) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Migrate creates the listing index.
func (s *MongoStorage) Migrate() error {
	if s.coll == nil {
		return fmt.Errorf("mongo not open")
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_projects_created_at"),
	})
	if err != nil {
		return fmt.Errorf("create created_at index: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *MongoStorage) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("mongo not initialized")
	}
	return s.client.Ping(ctx, readpref.Primary())
}

// Backend returns the driver name.
func (s *MongoStorage) Backend() string {
	return DriverMongo
}

// Projects returns the project repository.
func (s *MongoStorage) Projects() ProjectRepository {
	return s.projects
}
