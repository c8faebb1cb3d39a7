// Package events moves committed order events from the outbox table onto a
// RabbitMQ topic exchange, and reads them back for consumers.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

const ExchangeType = "topic"

// Message is the wire form of an order event.
type Message struct {
	ID         uuid.UUID             `json:"id"`
	OrderID    uuid.UUID             `json:"order_id"`
	EventType  domain.OrderEventType `json:"event_type"`
	FromStatus *domain.OrderStatus   `json:"from_status,omitempty"`
	ToStatus   domain.OrderStatus    `json:"to_status"`
	Notes      *string               `json:"notes,omitempty"`
	Payload    json.RawMessage       `json:"payload,omitempty"`
	OccurredAt time.Time             `json:"occurred_at"`
}

func NewMessage(e domain.OrderEvent) Message {
	return Message{
		ID:         e.ID,
		OrderID:    e.OrderID,
		EventType:  e.EventType,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Notes:      e.Notes,
		Payload:    e.Payload,
		OccurredAt: e.CreatedAt,
	}
}

// RoutingKey is order.<event_type>, e.g. order.cancelled.
func RoutingKey(t domain.OrderEventType) string {
	return "order." + string(t)
}
