package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-grocery/store"
)

// TxScope runs work inside a MongoDB session transaction. Requires a
// replica set or sharded cluster.
type TxScope struct {
	client *mongo.Client
}

func NewTxScope(client *mongo.Client) *TxScope {
	return &TxScope{client: client}
}

// Execute runs fn in a transaction. The driver retries fn on transient
// errors, so fn must be idempotent with no external side effects.
func (s *TxScope) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

var _ store.TxScope = (*TxScope)(nil)

// EnsureIndexes creates the indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string]mongo.IndexModel{
		"carts": {
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		"users": {
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		"orders": {
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		"products": {
			Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "category", Value: 1}},
		},
	}
	for name, model := range indexes {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("creating index on %s: %w", name, err)
		}
	}
	return nil
}
