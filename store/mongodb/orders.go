package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-grocery/models"
	"go-grocery/store"
)

// OrderStore implements store.OrderStore on the orders collection.
type OrderStore struct {
	collection *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{collection: db.Collection("orders")}
}

func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding order %s: %w", id.Hex(), err)
	}
	return &order, nil
}

func (s *OrderStore) find(ctx context.Context, query bson.M, limit int64) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("finding orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decoding orders: %w", err)
	}
	return orders, nil
}

func (s *OrderStore) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.find(ctx, bson.M{"user_id": userID}, 0)
}

func (s *OrderStore) FindAll(ctx context.Context) ([]models.Order, error) {
	return s.find(ctx, bson.M{}, 0)
}

func (s *OrderStore) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	return s.find(ctx, bson.M{}, int64(limit))
}

func (s *OrderStore) Update(ctx context.Context, order *models.Order) error {
	update := bson.M{"$set": bson.M{
		"order_status": order.Status,
		"is_paid":      order.IsPaid,
		"paid_at":      order.PaidAt,
		"is_delivered": order.IsDelivered,
		"delivered_at": order.DeliveredAt,
		"updated_at":   order.UpdatedAt,
	}}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": order.ID}, update)
	if err != nil {
		return fmt.Errorf("updating order %s: %w", order.ID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *OrderStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("deleting order %s: %w", id.Hex(), err)
	}
	return nil
}

func (s *OrderStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("deleting orders of %s: %w", userID.Hex(), err)
	}
	return nil
}

func (s *OrderStore) Count(ctx context.Context) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{})
}

func (s *OrderStore) CountByStatus(ctx context.Context, status models.OrderStatus) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{"order_status": status})
}

// PaidSales sums total_price over paid orders.
func (s *OrderStore) PaidSales(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_paid": true}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$total_price"}}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("aggregating sales: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decoding sales: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

var _ store.OrderStore = (*OrderStore)(nil)
