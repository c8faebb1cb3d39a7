package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/logging"
	"github.com/josh-kwaku/order-backend/internal/stock"
)

// UpdateStatus moves an order along the state machine. A move to cancelled
// takes the cancellation path so stock is restored.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, notes *string) (*domain.OrderDetails, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("UpdateStatus: status %q: %w", status, domain.ErrInvalidStatus)
	}

	if status == domain.OrderStatusCancelled {
		if err := s.cancel(ctx, id, notes, transitionGuard); err != nil {
			return nil, fmt.Errorf("UpdateStatus: %w", err)
		}
		return s.details(ctx, "UpdateStatus", id)
	}

	o, from, err := s.executeStatusChange(ctx, id, status, notes)
	if err != nil {
		logging.FromContext(ctx).Warn("order status change rejected",
			"order_id", id, "to", status, "error", err)
		return nil, fmt.Errorf("UpdateStatus: %w", err)
	}

	logging.FromContext(ctx).Info("order status changed",
		"order_id", o.ID, "from", from, "to", o.Status)

	return s.details(ctx, "UpdateStatus", id)
}

func (s *Service) executeStatusChange(ctx context.Context, id uuid.UUID, status domain.OrderStatus, notes *string) (*domain.Order, domain.OrderStatus, error) {
	tx, err := s.db.BeginTx(ctx, txOptions)
	if err != nil {
		return nil, "", fmt.Errorf("executeStatusChange: begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := s.orders.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, "", fmt.Errorf("executeStatusChange: %w", err)
	}
	if err := domain.ValidateTransition(current.Status, status); err != nil {
		return nil, "", fmt.Errorf("executeStatusChange: %w", err)
	}

	updated, err := s.orders.UpdateStatus(ctx, tx, id, status, notes)
	if err != nil {
		return nil, "", fmt.Errorf("executeStatusChange: %w", err)
	}

	from := current.Status
	if err := s.writeEvent(ctx, tx, updated, domain.OrderEventStatusChanged, &from, time.Now().UTC()); err != nil {
		return nil, "", fmt.Errorf("executeStatusChange: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("executeStatusChange: commit: %w", err)
	}
	return updated, from, nil
}

// Cancel stops a non-terminal order and returns its quantity to stock.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*domain.OrderDetails, error) {
	var notes *string
	if r := strings.TrimSpace(reason); r != "" {
		notes = &r
	}
	if err := s.cancel(ctx, id, notes, terminalGuard); err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}
	return s.details(ctx, "Cancel", id)
}

// A cancel guard decides what error a terminal order produces. Cancel reports
// a business rule; a status update to cancelled reports an illegal transition.
type cancelGuard func(from domain.OrderStatus) error

func terminalGuard(from domain.OrderStatus) error {
	if from.IsTerminal() {
		return domain.WithReason(domain.ErrOrderTerminal, fmt.Sprintf("order is %s", from))
	}
	return nil
}

func transitionGuard(from domain.OrderStatus) error {
	return domain.ValidateTransition(from, domain.OrderStatusCancelled)
}

func (s *Service) cancel(ctx context.Context, id uuid.UUID, notes *string, guard cancelGuard) error {
	log := logging.FromContext(ctx).With("order_id", id)

	tx, err := s.db.BeginTx(ctx, txOptions)
	if err != nil {
		return fmt.Errorf("cancel: begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := s.orders.GetForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	if err := guard(current.Status); err != nil {
		log.Warn("order cancellation rejected", "status", current.Status, "error", err)
		return fmt.Errorf("cancel: %w", err)
	}

	updated, err := s.orders.UpdateStatus(ctx, tx, id, domain.OrderStatusCancelled, notes)
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}

	movement, err := s.ledger.Adjust(ctx, tx, stock.Adjustment{
		ProductID: current.ProductID,
		OrderID:   &current.ID,
		Direction: domain.StockAdd,
		Quantity:  current.Quantity,
		Reason:    stock.OrderCancelledReason(current.ID),
	})
	if err != nil {
		return fmt.Errorf("cancel: restore stock: %w", err)
	}

	from := current.Status
	if err := s.writeEvent(ctx, tx, updated, domain.OrderEventCancelled, &from, time.Now().UTC()); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cancel: commit: %w", err)
	}
	s.cache.Invalidate(ctx, current.ProductID)

	log.Info("order cancelled",
		"from", from,
		"product_id", current.ProductID,
		"restored", current.Quantity,
		"stock_quantity", movement.QuantityAfter,
		"product_status", movement.StatusAfter,
	)
	return nil
}

func (s *Service) details(ctx context.Context, op string, id uuid.UUID) (*domain.OrderDetails, error) {
	d, err := s.orders.GetDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}
