// Package mongodb implements the store interfaces on MongoDB.
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

// ProductStore implements store.ProductStore on the products collection.
type ProductStore struct {
	collection *mongo.Collection
}

func NewProductStore(db *mongo.Database) *ProductStore {
	return &ProductStore{collection: db.Collection("products")}
}

func (s *ProductStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding product %s: %w", id.Hex(), err)
	}
	return &product, nil
}

func (s *ProductStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	result := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("finding products: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, fmt.Errorf("decoding product: %w", err)
		}
		result[product.ID] = product
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}
	return result, nil
}

func productQuery(filter models.ProductFilter) bson.M {
	query := bson.M{}
	if filter.ActiveOnly {
		query["is_active"] = true
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Featured != nil {
		query["featured"] = *filter.Featured
	}
	return query
}

func (s *ProductStore) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	query := productQuery(filter)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * filter.Limit)).SetLimit(int64(filter.Limit))
	}

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("decoding products: %w", err)
	}

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}
	return products, total, nil
}

func (s *ProductStore) Categories(ctx context.Context) ([]models.Category, error) {
	values, err := s.collection.Distinct(ctx, "category", bson.M{"is_active": true})
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	categories := make([]models.Category, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			categories = append(categories, models.Category(name))
		}
	}
	return categories, nil
}

func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if _, err := s.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func (s *ProductStore) Update(ctx context.Context, product *models.Product) error {
	update := bson.M{"$set": bson.M{
		"name":           product.Name,
		"description":    product.Description,
		"price":          product.Price,
		"original_price": product.OriginalPrice,
		"category":       product.Category,
		"image":          product.Image,
		"unit":           product.Unit,
		"brand":          product.Brand,
		"is_active":      product.IsActive,
		"featured":       product.Featured,
		"updated_at":     product.UpdatedAt,
	}}
	return s.updateOne(ctx, product.ID, update)
}

func (s *ProductStore) SetStock(ctx context.Context, id primitive.ObjectID, stock int) error {
	update := bson.M{"$set": bson.M{"stock": stock, "updated_at": time.Now().UTC()}}
	return s.updateOne(ctx, id, update)
}

func (s *ProductStore) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("updating product %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", id.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DecrementStock takes quantity units only if at least that many remain.
func (s *ProductStore) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"stock": -quantity},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return fmt.Errorf("decrementing stock of %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	n, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("checking product %s: %w", id.Hex(), err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrInsufficientStock
}

func (s *ProductStore) IncrementStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"stock": quantity},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return fmt.Errorf("incrementing stock of %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{})
}

func (s *ProductStore) CountOutOfStock(ctx context.Context) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{"stock": 0})
}

var _ store.ProductStore = (*ProductStore)(nil)
