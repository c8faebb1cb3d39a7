package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: nil,
	OrderStatusCancelled: nil,
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition naming both ends when the
// move is not in the table.
func ValidateTransition(from, to OrderStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("status %q: %w", to, ErrInvalidStatus)
	}
	if !from.CanTransitionTo(to) {
		return WithReason(ErrInvalidTransition, fmt.Sprintf("%s -> %s", from, to))
	}
	return nil
}

// OpenOrderStatuses are the non-terminal statuses.
var OpenOrderStatuses = []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped}

type Order struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Status     OrderStatus
	OrderDate  time.Time
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderDetails is an order joined with the user and product it references.
type OrderDetails struct {
	Order
	UserName    string
	UserEmail   string
	ProductName string
	ProductSKU  *string
}

type OrderFilter struct {
	UserID    *uuid.UUID
	ProductID *uuid.UUID
	Status    *OrderStatus
	Page      Page
}

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "created"
	OrderEventStatusChanged OrderEventType = "status_changed"
	OrderEventCancelled     OrderEventType = "cancelled"
)

type OrderEvent struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	EventType   OrderEventType
	FromStatus  *OrderStatus
	ToStatus    OrderStatus
	Notes       *string
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt *time.Time
}
