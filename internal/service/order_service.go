package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/querycache"
	"github.com/fjod/peixeshop/internal/repository"
)

const (
	DefaultOrdersLimit = 10
	MaxOrdersLimit     = 50
)

type OrderService struct {
	repo  repository.OrderRepository
	cache *querycache.Cache
}

func NewOrderService(repo repository.OrderRepository, cache *querycache.Cache) *OrderService {
	return &OrderService{
		repo:  repo,
		cache: cache,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, order *domain.Order) (string, error) {
	id, err := s.repo.Insert(ctx, order)
	if err != nil {
		return "", err
	}

	s.cache.InvalidateAll()
	return id, nil
}

// GetUserOrders returns the newest orders of a user. A non-positive limit
// means the default; larger limits are capped.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	limit = clampLimit(limit)

	orders, err := querycache.ReadAs(ctx, s.cache, querycache.UserOrdersKey(userID, limit), func(ctx context.Context) ([]domain.Order, error) {
		return s.repo.FindByUser(ctx, userID, limit)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(orders), nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultOrdersLimit
	case limit > MaxOrdersLimit:
		return MaxOrdersLimit
	}
	return limit
}
