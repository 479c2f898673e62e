package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/peixeshop/internal/cart"
	"github.com/fjod/peixeshop/internal/domain"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidCustomer = errors.New("customer name and phone are required")
)

type CheckoutService struct {
	orders    *OrderService
	publisher EventPublisher
	log       logrus.FieldLogger
}

func NewCheckoutService(orders *OrderService, publisher EventPublisher, log logrus.FieldLogger) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		publisher: publisher,
		log:       log.WithField("component", "checkout"),
	}
}

// Checkout turns the current cart contents into a pending order and takes
// the ordered lines out of the cart. Units added to the cart while the order
// is being stored stay in the cart. Any failure before the order is stored
// leaves the cart untouched.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, c *cart.Store, customer domain.Customer) (*domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	if customer.Name == "" || customer.Phone == "" {
		return nil, ErrInvalidCustomer
	}

	snapshot := c.Snapshot()
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order := domain.NewOrderFromSnapshot(userID, snapshot, customer)
	if _, err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order placed")
	}

	c.RemoveSnapshot(snapshot)
	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.Total.String(),
	}).Info("order placed")

	return order, nil
}
