package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/querycache"
	"github.com/fjod/peixeshop/internal/repository"
	"github.com/sirupsen/logrus"
)

// CategoryLimit caps the number of products returned for one category.
const CategoryLimit = 50

// EventPublisher announces committed writes to other parts of the system.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *domain.Order) error
	PublishCatalogChanged(ctx context.Context, reason string) error
}

type CatalogService struct {
	repo      repository.ProductRepository
	cache     *querycache.Cache
	publisher EventPublisher
	log       logrus.FieldLogger
}

func NewCatalogService(repo repository.ProductRepository, cache *querycache.Cache, publisher EventPublisher, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		log:       log.WithField("component", "catalog"),
	}
}

func (s *CatalogService) GetProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := querycache.ReadAs(ctx, s.cache, querycache.ProductsAllKey(), s.repo.FindAll)
	if err != nil {
		return nil, err
	}
	return slices.Clone(products), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}

	product, err := querycache.ReadAs(ctx, s.cache, querycache.ProductKey(id), func(ctx context.Context) (domain.Product, error) {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *CatalogService) GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}

	key := querycache.ProductsByCategoryKey(category, CategoryLimit)
	products, err := querycache.ReadAs(ctx, s.cache, key, func(ctx context.Context) ([]domain.Product, error) {
		return s.repo.FindByCategory(ctx, category, CategoryLimit)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(products), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, input domain.ProductInput) (string, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return "", err
	}

	id, err := s.repo.Insert(ctx, input)
	if err != nil {
		return "", err
	}

	s.changed(ctx, "product created")
	return id, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input domain.ProductInput) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}
	input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, input); err != nil {
		return err
	}

	s.changed(ctx, "product updated")
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.changed(ctx, "product deleted")
	return nil
}

func (s *CatalogService) UpdateStock(ctx context.Context, id string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidInput)
	}
	if err := s.repo.SetStock(ctx, id, stock); err != nil {
		return err
	}

	s.changed(ctx, "stock updated")
	return nil
}

// BatchUpdateStock validates every update before writing any. Once the batch
// reaches the database the cache is invalidated even on error, since some
// documents may already have changed.
func (s *CatalogService) BatchUpdateStock(ctx context.Context, updates []domain.StockUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no updates", domain.ErrInvalidInput)
	}
	for _, u := range updates {
		if strings.TrimSpace(u.ID) == "" {
			return fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
		}
		if u.Stock < 0 {
			return fmt.Errorf("%w: stock must not be negative for %s", domain.ErrInvalidInput, u.ID)
		}
	}

	err := s.repo.BulkSetStock(ctx, updates)
	if partiallyApplied(err) {
		s.changed(ctx, "stock batch updated")
	}
	return err
}

func (s *CatalogService) BatchUpdateProducts(ctx context.Context, updates []domain.ProductUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no updates", domain.ErrInvalidInput)
	}
	for i := range updates {
		if strings.TrimSpace(updates[i].ID) == "" {
			return fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
		}
		updates[i].Input.Normalize()
		if err := updates[i].Input.Validate(); err != nil {
			return fmt.Errorf("product %s: %w", updates[i].ID, err)
		}
	}

	err := s.repo.BulkUpdate(ctx, updates)
	if partiallyApplied(err) {
		s.changed(ctx, "products batch updated")
	}
	return err
}

func (s *CatalogService) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	products, err := s.GetProducts(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	return domain.ComputeDashboardStats(products), nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.CategoryStats, error) {
	products, err := s.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ComputeCategoryStats(products), nil
}

// partiallyApplied reports whether a bulk write may have changed documents.
func partiallyApplied(err error) bool {
	return err == nil ||
		errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, repository.ErrPartialWrite)
}

// changed runs after a committed write. Publishing is best effort.
func (s *CatalogService) changed(ctx context.Context, reason string) {
	s.cache.InvalidateAll()
	if err := s.publisher.PublishCatalogChanged(ctx, reason); err != nil {
		s.log.WithError(err).WithField("reason", reason).Warn("failed to publish catalog change")
	}
}
