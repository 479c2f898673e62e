// Package events publishes storefront events to Kafka and reacts to catalog
// changes made by other instances.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	TopicOrders         = "orders"
	TopicCatalogChanges = "catalog-changes"

	headerEventType = "event_type"
	headerOrigin    = "origin"
)

type OrderPlacedEvent struct {
	OrderID   string             `json:"order_id"`
	UserID    string             `json:"user_id"`
	Items     []domain.OrderItem `json:"items"`
	Total     domain.Money       `json:"total"`
	Customer  domain.Customer    `json:"customer"`
	CreatedAt time.Time          `json:"created_at"`
}

type CatalogChangedEvent struct {
	Reason     string    `json:"reason"`
	Origin     string    `json:"origin"`
	OccurredAt time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes events to Kafka. instanceID marks catalog events so the
// instance that made a change can ignore its own message.
type Publisher struct {
	writer     messageWriter
	instanceID string
}

// BatchTimeout bounds how long a single event waits for a batch to fill.
// Events are published from request handlers, one at a time.
const BatchTimeout = 10 * time.Millisecond

func NewPublisher(instanceID string, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           BatchTimeout,
		WriteTimeout:           10 * time.Second,
	}
	return &Publisher{writer: w, instanceID: instanceID}
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(OrderPlacedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Items:     order.Items,
		Total:     order.Total,
		Customer:  order.Customer,
		CreatedAt: order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order event failed: %w", err)
	}

	msg := kafka.Message{
		Topic: TopicOrders,
		Key:   []byte(order.ID), // keeps events of one order ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte("OrderPlaced")},
			{Key: headerOrigin, Value: []byte(p.instanceID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order placed failed: %w", err)
	}
	return nil
}

func (p *Publisher) PublishCatalogChanged(ctx context.Context, reason string) error {
	payload, err := json.Marshal(CatalogChangedEvent{
		Reason:     reason,
		Origin:     p.instanceID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal catalog event failed: %w", err)
	}

	msg := kafka.Message{
		Topic: TopicCatalogChanges,
		Value: payload,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte("CatalogChanged")},
			{Key: headerOrigin, Value: []byte(p.instanceID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish catalog changed failed: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, *domain.Order) error { return nil }
func (NoopPublisher) PublishCatalogChanged(context.Context, string) error     { return nil }
func (NoopPublisher) Close() error                                            { return nil }
