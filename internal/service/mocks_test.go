package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/fjod/peixeshop/internal/domain"
)

// MockProductRepository implements repository.ProductRepository for testing
type MockProductRepository struct {
	mu       sync.Mutex
	Products map[string]domain.Product
	Err      error // returned by every write when set

	FindAllCalls  atomic.Int32
	FindByIDCalls atomic.Int32
}

func NewMockProductRepository(products ...domain.Product) *MockProductRepository {
	m := &MockProductRepository{Products: make(map[string]domain.Product)}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

func (m *MockProductRepository) FindAll(_ context.Context) ([]domain.Product, error) {
	m.FindAllCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0, len(m.Products))
	for _, p := range m.Products {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockProductRepository) FindByID(_ context.Context, id string) (*domain.Product, error) {
	m.FindByIDCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *MockProductRepository) FindByCategory(_ context.Context, category string, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0)
	for _, p := range m.Products {
		if p.Category == category && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockProductRepository) Insert(_ context.Context, input domain.ProductInput) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "p" + string(rune('a'+len(m.Products)))
	m.Products[id] = productFromInput(id, input)
	return id, nil
}

func (m *MockProductRepository) Update(_ context.Context, id string, input domain.ProductInput) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Products[id]; !ok {
		return domain.ErrProductNotFound
	}
	m.Products[id] = productFromInput(id, input)
	return nil
}

func (m *MockProductRepository) Delete(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.Products, id)
	return nil
}

func (m *MockProductRepository) SetStock(_ context.Context, id string, stock int) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock = &stock
	m.Products[id] = p
	return nil
}

func (m *MockProductRepository) BulkUpdate(ctx context.Context, updates []domain.ProductUpdate) error {
	var missing bool
	for _, u := range updates {
		if err := m.Update(ctx, u.ID, u.Input); err != nil {
			if !errors.Is(err, domain.ErrProductNotFound) {
				return err
			}
			missing = true
		}
	}
	if missing {
		return domain.ErrProductNotFound
	}
	return nil
}

func (m *MockProductRepository) BulkSetStock(ctx context.Context, updates []domain.StockUpdate) error {
	var missing bool
	for _, u := range updates {
		if err := m.SetStock(ctx, u.ID, u.Stock); err != nil {
			if !errors.Is(err, domain.ErrProductNotFound) {
				return err
			}
			missing = true
		}
	}
	if missing {
		return domain.ErrProductNotFound
	}
	return nil
}

func productFromInput(id string, in domain.ProductInput) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          in.Name,
		Category:      in.Category,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Unit:          in.Unit,
		Description:   in.Description,
		Stock:         in.Stock,
		Image:         in.Image,
		IsBestSeller:  in.IsBestSeller,
	}
}

// MockOrderRepository implements repository.OrderRepository for testing
type MockOrderRepository struct {
	mu        sync.Mutex
	Orders    []domain.Order
	InsertErr error
	// OnInsert runs before the order is stored.
	OnInsert func()

	FindCalls atomic.Int32
	LastLimit int
}

func (m *MockOrderRepository) Insert(_ context.Context, order *domain.Order) (string, error) {
	if m.InsertErr != nil {
		return "", m.InsertErr
	}
	if m.OnInsert != nil {
		m.OnInsert()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = "order-" + string(rune('0'+len(m.Orders)))
	order.Status = domain.OrderStatusPending
	m.Orders = append(m.Orders, *order)
	return order.ID, nil
}

func (m *MockOrderRepository) FindByUser(_ context.Context, userID string, limit int) ([]domain.Order, error) {
	m.FindCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastLimit = limit
	out := make([]domain.Order, 0)
	for i := len(m.Orders) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Orders[i].UserID == userID {
			out = append(out, m.Orders[i])
		}
	}
	return out, nil
}

// MockPublisher implements EventPublisher for testing
type MockPublisher struct {
	mu             sync.Mutex
	Err            error
	CatalogReasons []string
	PlacedOrders   []string
}

func (m *MockPublisher) PublishOrderPlaced(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlacedOrders = append(m.PlacedOrders, order.ID)
	return m.Err
}

func (m *MockPublisher) PublishCatalogChanged(_ context.Context, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CatalogReasons = append(m.CatalogReasons, reason)
	return m.Err
}
