package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ManuelReschke/ObservationDesk/app/models"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second
const connectTimeout = 10 * time.Second

// Config describes the MongoDB deployment to connect to.
type Config struct {
	URI      string
	Database string
}

// ConfigFromEnv reads MONGO_URI and MONGO_DATABASE.
func ConfigFromEnv() Config {
	return Config{
		URI:      env.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: env.GetEnv("MONGO_DATABASE", "observations"),
	}
}

// SetupDatabase connects to MongoDB, retrying a few times while the server comes up,
// and makes sure the indexes used by the dashboard queries exist.
func SetupDatabase(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	var err error
	for i := 0; i < maxRetries; i++ {
		var client *mongo.Client
		client, err = connect(ctx, cfg.URI)
		if err == nil {
			db := client.Database(cfg.Database)
			if idxErr := EnsureIndexes(ctx, db); idxErr != nil {
				log.Printf("Warning: could not ensure indexes: %v", idxErr)
			}
			log.Printf("Connected to MongoDB database %q", cfg.Database)
			return client, db, nil
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, nil, fmt.Errorf("mongodb connection failed after %d tries: %w", maxRetries, err)
}

func connect(ctx context.Context, uri string) (*mongo.Client, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the indexes backing the date filters, the default sort and
// the createdAt fallback. Creating an existing index is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(models.CollectionObservations).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	return err
}

// Ping reports whether the deployment answers within ctx.
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}
