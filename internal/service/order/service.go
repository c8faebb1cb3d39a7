// Package order runs the order lifecycle. Creation and cancellation write the
// order row, the stock movement and the outbox event in one transaction.
package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/service/availability"
	"github.com/josh-kwaku/order-backend/internal/stock"
)

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetForShare(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error)
}

type productRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Product, error)
}

type orderRepo interface {
	Create(ctx context.Context, tx *sql.Tx, o *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Order, error)
	GetDetails(ctx context.Context, id uuid.UUID) (*domain.OrderDetails, error)
	List(ctx context.Context, f domain.OrderFilter) ([]domain.OrderDetails, int, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.OrderStatus, notes *string) (*domain.Order, error)
}

type eventRepo interface {
	Create(ctx context.Context, tx *sql.Tx, e *domain.OrderEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.OrderEvent, error)
}

type stockLedger interface {
	Adjust(ctx context.Context, tx *sql.Tx, adj stock.Adjustment) (*domain.StockMovement, error)
}

type availabilityChecker interface {
	CheckAvailability(ctx context.Context, productID uuid.UUID, requestedQty int) (availability.Result, error)
}

type productCache interface {
	Invalidate(ctx context.Context, productID uuid.UUID)
}

type Service struct {
	users        userRepo
	products     productRepo
	orders       orderRepo
	events       eventRepo
	ledger       stockLedger
	availability availabilityChecker
	cache        productCache
	db           *sql.DB
}

func NewService(
	users userRepo,
	products productRepo,
	orders orderRepo,
	events eventRepo,
	ledger stockLedger,
	checker availabilityChecker,
	cache productCache,
	db *sql.DB,
) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	return &Service{
		users:        users,
		products:     products,
		orders:       orders,
		events:       events,
		ledger:       ledger,
		availability: checker,
		cache:        cache,
		db:           db,
	}
}

type noopCache struct{}

func (noopCache) Invalidate(context.Context, uuid.UUID) {}

// Stock reads must not see another transaction's uncommitted decrement.
var txOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.OrderDetails, error) {
	d, err := s.orders.GetDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, f domain.OrderFilter) (*domain.PageResult[domain.OrderDetails], error) {
	if f.Status != nil && !f.Status.IsValid() {
		return nil, fmt.Errorf("List: %w", domain.ErrInvalidStatus)
	}
	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return &domain.PageResult[domain.OrderDetails]{
		Items:  orders,
		Total:  total,
		Limit:  f.Page.Limit,
		Offset: f.Page.Offset,
	}, nil
}

func (s *Service) Events(ctx context.Context, orderID uuid.UUID) ([]domain.OrderEvent, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, fmt.Errorf("Events: %w", err)
	}
	events, err := s.events.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Events: %w", err)
	}
	return events, nil
}

type eventPayload struct {
	OrderID    uuid.UUID          `json:"order_id"`
	UserID     uuid.UUID          `json:"user_id"`
	ProductID  uuid.UUID          `json:"product_id"`
	Quantity   int                `json:"quantity"`
	UnitPrice  string             `json:"unit_price"`
	TotalPrice string             `json:"total_price"`
	Status     domain.OrderStatus `json:"status"`
}

func (s *Service) writeEvent(ctx context.Context, tx *sql.Tx, o *domain.Order, eventType domain.OrderEventType, from *domain.OrderStatus, now time.Time) error {
	payload, err := json.Marshal(eventPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		UnitPrice:  o.UnitPrice.StringFixed(2),
		TotalPrice: o.TotalPrice.StringFixed(2),
		Status:     o.Status,
	})
	if err != nil {
		return fmt.Errorf("writeEvent: marshal: %w", err)
	}

	event := &domain.OrderEvent{
		ID:         uuid.New(),
		OrderID:    o.ID,
		EventType:  eventType,
		FromStatus: from,
		ToStatus:   o.Status,
		Notes:      o.Notes,
		Payload:    payload,
		CreatedAt:  now,
	}
	if err := s.events.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("writeEvent: %w", err)
	}
	return nil
}
