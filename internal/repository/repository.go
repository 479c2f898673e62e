package repository

import (
	"context"
	"errors"

	"github.com/fjod/peixeshop/internal/domain"
)

// ErrPartialWrite means a bulk write failed after some documents may have
// been changed.
var ErrPartialWrite = errors.New("bulk write partially applied")

// ProductRepository defines the catalog document operations.
// Consumers define this interface, not the MongoDB implementation
type ProductRepository interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	FindByCategory(ctx context.Context, category string, limit int) ([]domain.Product, error)
	Insert(ctx context.Context, input domain.ProductInput) (string, error)
	Update(ctx context.Context, id string, input domain.ProductInput) error
	Delete(ctx context.Context, id string) error
	SetStock(ctx context.Context, id string, stock int) error
	BulkUpdate(ctx context.Context, updates []domain.ProductUpdate) error
	BulkSetStock(ctx context.Context, updates []domain.StockUpdate) error
}

type OrderRepository interface {
	Insert(ctx context.Context, order *domain.Order) (string, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
}

// Indexer is implemented by repositories that own MongoDB indexes.
type Indexer interface {
	CreateIndexes(ctx context.Context) error
}
