package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/logging"
	"github.com/josh-kwaku/order-backend/internal/pricing"
	"github.com/josh-kwaku/order-backend/internal/service/availability"
	"github.com/josh-kwaku/order-backend/internal/stock"
)

type CreateRequest struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Notes     *string
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.OrderDetails, error) {
	log := logging.FromContext(ctx).With(
		"user_id", req.UserID,
		"product_id", req.ProductID,
		"quantity", req.Quantity,
	)

	if req.Quantity <= 0 {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidQuantity)
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if err := verifyUserActive(user); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	res, err := s.availability.CheckAvailability(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if !res.Available {
		log.Warn("order rejected by availability check", "reason", res.Reason)
		return nil, fmt.Errorf("Create: %w", res.Err())
	}

	quote, err := pricing.Price(res.Snapshot.Price, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	o, err := s.executeCreate(ctx, req, quote)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	s.cache.Invalidate(ctx, req.ProductID)

	log.Info("order created",
		"order_id", o.ID,
		"unit_price", o.UnitPrice.StringFixed(2),
		"total_price", o.TotalPrice.StringFixed(2),
	)

	d, err := s.orders.GetDetails(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return d, nil
}

// executeCreate re-checks the user and the product under row locks, so a
// concurrent deactivation or a competing order cannot slip in between the
// pre-checks and the insert.
func (s *Service) executeCreate(ctx context.Context, req CreateRequest, quote *pricing.Quote) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, txOptions)
	if err != nil {
		return nil, fmt.Errorf("executeCreate: begin tx: %w", err)
	}
	defer tx.Rollback()

	user, err := s.users.GetForShare(ctx, tx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("executeCreate: %w", err)
	}
	if err := verifyUserActive(user); err != nil {
		return nil, fmt.Errorf("executeCreate: %w", err)
	}

	locked, err := s.products.GetForUpdate(ctx, tx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("executeCreate: %w", err)
	}
	if res := availability.Evaluate(locked, req.Quantity); !res.Available {
		return nil, fmt.Errorf("executeCreate: %w", res.Err())
	}

	now := time.Now().UTC()
	o := &domain.Order{
		ID:         uuid.New(),
		UserID:     req.UserID,
		ProductID:  req.ProductID,
		Quantity:   quote.Quantity,
		UnitPrice:  quote.UnitPrice,
		TotalPrice: quote.Total,
		Status:     domain.OrderStatusPending,
		OrderDate:  now,
		Notes:      req.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.Create(ctx, tx, o); err != nil {
		return nil, fmt.Errorf("executeCreate: create order: %w", err)
	}

	if _, err := s.ledger.Adjust(ctx, tx, stock.Adjustment{
		ProductID: o.ProductID,
		OrderID:   &o.ID,
		Direction: domain.StockSubtract,
		Quantity:  o.Quantity,
		Reason:    stock.OrderPlacedReason(o.ID),
	}); err != nil {
		return nil, fmt.Errorf("executeCreate: %w", err)
	}

	if err := s.writeEvent(ctx, tx, o, domain.OrderEventCreated, nil, now); err != nil {
		return nil, fmt.Errorf("executeCreate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("executeCreate: commit: %w", err)
	}
	return o, nil
}

func verifyUserActive(u *domain.User) error {
	if u.Status != domain.UserStatusActive {
		return domain.WithReason(domain.ErrUserInactive, fmt.Sprintf("user status is %s", u.Status))
	}
	return nil
}
