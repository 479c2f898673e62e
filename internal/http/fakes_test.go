package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/fjod/peixeshop/internal/auth"
	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/events"
	"github.com/fjod/peixeshop/internal/querycache"
	"github.com/fjod/peixeshop/internal/service"
	"github.com/fjod/peixeshop/internal/session"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// memoryProducts implements repository.ProductRepository for handler tests
type memoryProducts struct {
	mu       sync.Mutex
	products map[string]domain.Product
	seq      int
}

func newMemoryProducts(products ...domain.Product) *memoryProducts {
	m := &memoryProducts{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memoryProducts) FindAll(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryProducts) FindByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *memoryProducts) FindByCategory(ctx context.Context, category string, limit int) ([]domain.Product, error) {
	all, _ := m.FindAll(ctx)
	out := make([]domain.Product, 0)
	for _, p := range all {
		if p.Category == category && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProducts) Insert(_ context.Context, in domain.ProductInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("new-%d", m.seq)
	m.products[id] = toProduct(id, in)
	return id, nil
}

func (m *memoryProducts) Update(_ context.Context, id string, in domain.ProductInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	m.products[id] = toProduct(id, in)
	return nil
}

func (m *memoryProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *memoryProducts) SetStock(_ context.Context, id string, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock = &stock
	m.products[id] = p
	return nil
}

func (m *memoryProducts) BulkUpdate(ctx context.Context, updates []domain.ProductUpdate) error {
	for _, u := range updates {
		if err := m.Update(ctx, u.ID, u.Input); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryProducts) BulkSetStock(ctx context.Context, updates []domain.StockUpdate) error {
	for _, u := range updates {
		if err := m.SetStock(ctx, u.ID, u.Stock); err != nil {
			return err
		}
	}
	return nil
}

func toProduct(id string, in domain.ProductInput) domain.Product {
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

// memoryOrders implements repository.OrderRepository for handler tests
type memoryOrders struct {
	mu     sync.Mutex
	orders []domain.Order
}

func (m *memoryOrders) Insert(_ context.Context, order *domain.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = fmt.Sprintf("order-%d", len(m.orders)+1)
	m.orders = append(m.orders, *order)
	return order.ID, nil
}

func (m *memoryOrders) FindByUser(_ context.Context, userID string, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, 0)
	for i := len(m.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if m.orders[i].UserID == userID {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

const adminEmail = "admin@peixesfrescos.com"

func intPtr(v int) *int { return &v }

func seedCatalog() []domain.Product {
	return []domain.Product{
		{ID: "salmon", Name: "Salmão Fresco", Category: "Peixes", Price: domain.MustParseMoney("89.90"), Unit: "kg", Stock: intPtr(50)},
		{ID: "shrimp", Name: "Camarão Rosa", Category: "Frutos do Mar", Price: domain.MustParseMoney("65.00"), Unit: "kg", Stock: intPtr(30)},
		{ID: "octopus", Name: "Polvo Congelado", Category: "Frutos do Mar", Price: domain.MustParseMoney("120.00"), Unit: "kg", Stock: intPtr(5)},
	}
}

type testEnv struct {
	handler  http.Handler
	products *memoryProducts
	orders   *memoryOrders
	cache    *querycache.Cache
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger, _ := test.NewNullLogger()

	products := newMemoryProducts(seedCatalog()...)
	orders := &memoryOrders{}
	cache := querycache.New()
	publisher := events.NoopPublisher{}

	catalog := service.NewCatalogService(products, cache, publisher, logger)
	orderSvc := service.NewOrderService(orders, cache)
	checkout := service.NewCheckoutService(orderSvc, publisher, logger)

	userRepo, err := auth.NewRepository(auth.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, userRepo.RunMigrations())
	t.Cleanup(func() { userRepo.Close() })
	accounts := auth.NewService(userRepo, []string{adminEmail})

	store := session.NewMemoryStore()
	sessions := session.NewManager(store, logger)
	t.Cleanup(func() {
		sessions.Close()
		store.Close()
	})

	return &testEnv{
		handler: NewRouter(Deps{
			Catalog:  catalog,
			Orders:   orderSvc,
			Checkout: checkout,
			Accounts: accounts,
			Sessions: sessions,
			Cache:    cache,
			Log:      logger,
		}),
		products: products,
		orders:   orders,
		cache:    cache,
		sessions: sessions,
	}
}
