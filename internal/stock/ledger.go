// Package stock owns every change to a product's stock quantity. Each change
// moves quantity and status together and leaves a stock_movements row behind.
package stock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/logging"
)

type productStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Product, error)
	UpdateStock(ctx context.Context, tx *sql.Tx, id uuid.UUID, level domain.StockLevel) error
}

type movementStore interface {
	Create(ctx context.Context, tx *sql.Tx, m *domain.StockMovement) error
}

type Adjustment struct {
	ProductID uuid.UUID
	OrderID   *uuid.UUID
	Direction domain.StockDirection
	Quantity  int
	Reason    string
}

type Ledger struct {
	products  productStore
	movements movementStore
}

func NewLedger(products productStore, movements movementStore) *Ledger {
	return &Ledger{products: products, movements: movements}
}

// Adjust must run inside the caller's transaction. The product row is locked
// for the rest of it.
func (l *Ledger) Adjust(ctx context.Context, tx *sql.Tx, adj Adjustment) (*domain.StockMovement, error) {
	p, err := l.products.GetForUpdate(ctx, tx, adj.ProductID)
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	before := domain.StockLevel{Quantity: p.StockQuantity, Status: p.Status}
	after, err := domain.ApplyStock(before, adj.Quantity, adj.Direction)
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	if err := l.products.UpdateStock(ctx, tx, p.ID, after); err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	m := &domain.StockMovement{
		ID:             uuid.New(),
		ProductID:      p.ID,
		OrderID:        adj.OrderID,
		Direction:      adj.Direction,
		Quantity:       adj.Quantity,
		QuantityBefore: before.Quantity,
		QuantityAfter:  after.Quantity,
		StatusBefore:   before.Status,
		StatusAfter:    after.Status,
		Reason:         adj.Reason,
		CreatedAt:      time.Now().UTC(),
	}
	if err := l.movements.Create(ctx, tx, m); err != nil {
		return nil, fmt.Errorf("Adjust: record movement: %w", err)
	}

	if before.Status != after.Status {
		logging.FromContext(ctx).Info("product status changed by stock movement",
			"product_id", p.ID,
			"from", before.Status,
			"to", after.Status,
			"stock_quantity", after.Quantity,
		)
	}
	return m, nil
}

func OrderPlacedReason(orderID uuid.UUID) string {
	return "order " + orderID.String() + " placed"
}

func OrderCancelledReason(orderID uuid.UUID) string {
	return "order " + orderID.String() + " cancelled"
}
