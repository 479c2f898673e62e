package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

// Insert assigns the id, creation time and pending status before storing.
func (m *mongoOrderRepository) Insert(ctx context.Context, order *domain.Order) (string, error) {
	order.ID = uuid.NewString()
	order.Status = domain.OrderStatusPending
	order.CreatedAt = time.Now().UTC()

	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	return order.ID, nil
}

func (m *mongoOrderRepository) FindByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (m *mongoOrderRepository) CreateIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	}

	if _, err := m.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}
