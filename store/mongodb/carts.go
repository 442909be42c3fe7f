package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-grocery/models"
	"go-grocery/store"
)

// CartStore implements store.CartStore. carts.user_id carries a unique
// index, see EnsureIndexes.
type CartStore struct {
	collection *mongo.Collection
}

func NewCartStore(db *mongo.Database) *CartStore {
	return &CartStore{collection: db.Collection("carts")}
}

func (s *CartStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := s.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

func (s *CartStore) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"items":        []models.CartItem{},
		"total_amount": 0.0,
		"updated_at":   time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cart models.Cart
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&cart)
	if err != nil {
		return nil, fmt.Errorf("upserting cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

func (s *CartStore) Save(ctx context.Context, cart *models.Cart) error {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	cart.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"items":        items,
		"total_amount": cart.TotalAmount,
		"updated_at":   cart.UpdatedAt,
	}}
	_, err := s.collection.UpdateOne(ctx, bson.M{"user_id": cart.UserID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}

func (s *CartStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("deleting cart: %w", err)
	}
	return nil
}

var _ store.CartStore = (*CartStore)(nil)
