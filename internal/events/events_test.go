package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/peixeshop/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader serves queued messages and then blocks until ctx is done.
type fakeReader struct {
	ch chan kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.ch:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error { return nil }

type countingInvalidator struct{ n atomic.Int32 }

func (c *countingInvalidator) InvalidateAll() { c.n.Add(1) }

func TestPublishOrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, instanceID: "inst-a"}

	order := &domain.Order{
		ID:     "o1",
		UserID: "u1",
		Items: []domain.OrderItem{
			{ProductID: "salmon", Name: "Salmão Fresco", UnitPrice: domain.MustParseMoney("89.90"), Quantity: 2},
		},
		Total:     domain.MustParseMoney("179.80"),
		Customer:  domain.Customer{Name: "Ana", Phone: "11999990000"},
		CreatedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishOrderPlaced(context.Background(), order))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, TopicOrders, msg.Topic)
	assert.Equal(t, "o1", string(msg.Key))
	assert.Equal(t, "OrderPlaced", headerValue(msg, headerEventType))

	var got OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	want := OrderPlacedEvent{
		OrderID:   "o1",
		UserID:    "u1",
		Items:     order.Items,
		Total:     order.Total,
		Customer:  order.Customer,
		CreatedAt: order.CreatedAt,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, string(msg.Value), `"total":179.80`)
}

func TestPublishCatalogChanged(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w, instanceID: "inst-a"}

	require.NoError(t, p.PublishCatalogChanged(context.Background(), "product updated"))

	require.Len(t, w.messages, 1)
	assert.Equal(t, TopicCatalogChanges, w.messages[0].Topic)
	assert.Equal(t, "inst-a", headerValue(w.messages[0], headerOrigin))

	w.err = errors.New("leader not available")
	assert.ErrorIs(t, p.PublishCatalogChanged(context.Background(), "x"), w.err)
}

func TestCatalogConsumer_IgnoresOwnMessages(t *testing.T) {
	logger, _ := test.NewNullLogger()
	inv := &countingInvalidator{}
	r := &fakeReader{ch: make(chan kafka.Message, 3)}
	c := &CatalogConsumer{cache: inv, reader: r, instanceID: "inst-a", log: logger}

	r.ch <- kafka.Message{Headers: []kafka.Header{{Key: headerOrigin, Value: []byte("inst-a")}}}
	r.ch <- kafka.Message{Headers: []kafka.Header{{Key: headerOrigin, Value: []byte("inst-b")}}}
	r.ch <- kafka.Message{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return inv.n.Load() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, int32(2), inv.n.Load())
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.PublishOrderPlaced(context.Background(), &domain.Order{}))
	assert.NoError(t, p.PublishCatalogChanged(context.Background(), "x"))
}

func TestNewPublisher_FlushesSingleEventsQuickly(t *testing.T) {
	p := NewPublisher("instance-a", "localhost:9092")
	t.Cleanup(func() { p.Close() })

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, BatchTimeout, w.BatchTimeout)
	assert.Less(t, w.BatchTimeout, 100*time.Millisecond)
}
