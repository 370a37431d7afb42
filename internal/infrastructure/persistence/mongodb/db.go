// Package mongodb implements the repository ports over a MongoDB database.
// Every mutating member operation is a conditional update keyed on the
// document version, so concurrent workflow actions serialize per entity
// without in-process locks.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection name constants.
const (
	colMembers     = "members"
	colTransitions = "workflow_transitions"
)

// Database wraps the driver client and database handle. The container owns
// the lifecycle: Connect at startup, Close on shutdown.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect establishes the client and verifies connectivity before returning.
func Connect(ctx context.Context, uri, name string, timeout time.Duration) (*Database, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}

	return &Database{client: client, db: client.Database(name)}, nil
}

// Ping checks database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Migrate creates the indexes both repositories rely on.
func (d *Database) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colMembers: {
			{
				Keys:    bson.D{{Key: "applicationNumber", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colTransitions: {
			{
				Keys:    bson.D{{Key: "workflowType", Value: 1}, {Key: "currentStatus", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "workflowType", Value: 1}, {Key: "order", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for col, models := range indexes {
		if _, err := d.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongodb: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments returns true when err indicates no MongoDB documents found.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// isDuplicateKey checks if a MongoDB error is a duplicate key violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "E11000")
}
