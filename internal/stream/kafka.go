// Package stream publishes order lifecycle events for the reporting pipeline.
// The kitchen queue never consumes these; they exist so sales aggregation can
// run off-path without touching the serving database.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mnw01/scan-order/internal/database"
)

// Event types carried on the order events topic.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the wire format for one lifecycle event.
type OrderEvent struct {
	Type         string    `json:"type"`
	OrderID      string    `json:"order_id"`
	RestaurantID string    `json:"restaurant_id"`
	TableNumber  string    `json:"table_number"`
	Status       string    `json:"status"`
	TotalAmount  string    `json:"total_amount"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher writes order events to Kafka. A nil *Publisher is a valid no-op,
// so the server runs unchanged without a broker.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(writer *kafka.Writer) *Publisher {
	return &Publisher{writer: writer}
}

// Publish writes one event, keyed by restaurant so per-restaurant ordering is
// preserved within a partition. Failures are logged, not surfaced: the order
// itself already committed and the reporting path is best-effort.
func (p *Publisher) Publish(ctx context.Context, eventType string, order database.Order) {
	if p == nil {
		return
	}
	event := OrderEvent{
		Type:         eventType,
		OrderID:      order.ID.String(),
		RestaurantID: order.RestaurantID.String(),
		TableNumber:  order.TableNumber,
		Status:       order.Status,
		TotalAmount:  database.NumericToDecimal(order.TotalAmount).StringFixed(2),
		OccurredAt:   time.Now().UTC(),
	}
	payload, _ := json.Marshal(event)
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RestaurantID),
		Value: payload,
	})
	if err != nil {
		log.Printf("ERROR: publish %s for order %s: %v", eventType, event.OrderID, err)
	}
}
