package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection("products"),
	}
}

func (m *mongoProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products := make([]domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (m *mongoProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (m *mongoProductRepository) FindByCategory(ctx context.Context, category string, limit int) ([]domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.collection.Find(ctx, bson.M{"category": category}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by category: %w", err)
	}

	products := make([]domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (m *mongoProductRepository) Insert(ctx context.Context, input domain.ProductInput) (string, error) {
	now := time.Now().UTC()
	product := domain.Product{
		ID:            uuid.NewString(),
		Name:          input.Name,
		Category:      input.Category,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Unit:          input.Unit,
		Description:   input.Description,
		Stock:         input.Stock,
		Image:         input.Image,
		IsBestSeller:  input.IsBestSeller,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := m.collection.InsertOne(ctx, product); err != nil {
		return "", fmt.Errorf("failed to insert product: %w", err)
	}
	return product.ID, nil
}

func (m *mongoProductRepository) Update(ctx context.Context, id string, input domain.ProductInput) error {
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, updateDocument(input, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (m *mongoProductRepository) Delete(ctx context.Context, id string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (m *mongoProductRepository) SetStock(ctx context.Context, id string, stock int) error {
	update := bson.M{
		"$set": bson.M{
			"stock":      stock,
			"updated_at": time.Now().UTC(),
		},
	}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// BulkUpdate applies all updates in one round trip. MongoDB does not roll back
// the updates that matched when another id is missing; the error reports it.
func (m *mongoProductRepository) BulkUpdate(ctx context.Context, updates []domain.ProductUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(updateDocument(u.Input, now)))
	}

	result, err := m.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return bulkWriteError("failed to bulk update products", err)
	}
	if int(result.MatchedCount) != len(updates) {
		return fmt.Errorf("%w: %d of %d products matched", domain.ErrProductNotFound, result.MatchedCount, len(updates))
	}
	return nil
}

func (m *mongoProductRepository) BulkSetStock(ctx context.Context, updates []domain.StockUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetUpdate(bson.M{"$set": bson.M{"stock": u.Stock, "updated_at": now}}))
	}

	result, err := m.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return bulkWriteError("failed to bulk update stock", err)
	}
	if int(result.MatchedCount) != len(updates) {
		return fmt.Errorf("%w: %d of %d products matched", domain.ErrProductNotFound, result.MatchedCount, len(updates))
	}
	return nil
}

// bulkWriteError marks per-document failures of an unordered bulk write,
// which leave the other documents written.
func bulkWriteError(msg string, err error) error {
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		return fmt.Errorf("%s: %w: %w", msg, ErrPartialWrite, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (m *mongoProductRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// updateDocument sets the editable fields and unsets the optional ones the
// input leaves empty, so "unknown stock" is stored as a missing field.
func updateDocument(input domain.ProductInput, now time.Time) bson.M {
	set := bson.M{
		"name":           input.Name,
		"category":       input.Category,
		"price":          input.Price,
		"unit":           input.Unit,
		"description":    input.Description,
		"image":          input.Image,
		"is_best_seller": input.IsBestSeller,
		"updated_at":     now,
	}
	unset := bson.M{}

	if input.OriginalPrice != nil {
		set["original_price"] = *input.OriginalPrice
	} else {
		unset["original_price"] = ""
	}
	if input.Stock != nil {
		set["stock"] = *input.Stock
	} else {
		unset["stock"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
