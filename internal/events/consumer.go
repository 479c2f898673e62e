package events

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Invalidator is the part of the query cache the consumer needs.
type Invalidator interface {
	InvalidateAll()
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CatalogConsumer drops the local query cache whenever another instance
// reports a catalog write.
type CatalogConsumer struct {
	cache      Invalidator
	reader     messageReader
	instanceID string
	log        logrus.FieldLogger
}

// NewCatalogConsumer joins a consumer group of its own so every instance
// receives every change. It starts at the newest offset.
func NewCatalogConsumer(cache Invalidator, instanceID string, log logrus.FieldLogger, brokers ...string) *CatalogConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       TopicCatalogChanges,
		GroupID:     "storefront-" + instanceID,
		StartOffset: kafka.LastOffset,
		MaxBytes:    1e6,
	})
	return &CatalogConsumer{
		cache:      cache,
		reader:     reader,
		instanceID: instanceID,
		log:        log.WithField("component", "catalog-consumer"),
	}
}

func (c *CatalogConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *CatalogConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.WithError(err).Warn("error closing kafka reader")
	}
}

func (c *CatalogConsumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.log.WithError(err).Warn("error reading message")
		return
	}

	origin := headerValue(m, headerOrigin)
	if origin == c.instanceID {
		return
	}

	c.cache.InvalidateAll()
	c.log.WithFields(logrus.Fields{
		"origin": origin,
		"offset": m.Offset,
	}).Debug("query cache invalidated by remote catalog change")
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
