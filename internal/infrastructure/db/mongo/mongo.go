package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second

	collectionUsers    = "users"
	collectionSessions = "user_sessions"
	collectionCounters = "counters"

	indexUsersEmail    = "users_email_unique"
	indexUsersUsername = "users_username_unique"
	indexUsersNRP      = "users_nrp_unique"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the unique indexes registration relies on plus the
// lookup indexes used by the session ledger.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexUsersEmail).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(indexUsersUsername).SetUnique(true),
		},
		{
			// Only documents that carry an NRP take part in uniqueness.
			Keys: bson.D{{Key: "nrp", Value: 1}},
			Options: options.Index().
				SetName(indexUsersNRP).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"nrp": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "user_role", Value: 1}}},
	}
	if _, err := db.Collection(collectionUsers).Indexes().CreateMany(ctx, users); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	sessions := []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_token", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "login_timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "expires_at", Value: 1}}},
	}
	if _, err := db.Collection(collectionSessions).Indexes().CreateMany(ctx, sessions); err != nil {
		return fmt.Errorf("session indexes: %w", err)
	}
	return nil
}
