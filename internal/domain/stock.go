package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type StockDirection string

const (
	StockAdd      StockDirection = "add"
	StockSubtract StockDirection = "subtract"
)

func (d StockDirection) IsValid() bool {
	return d == StockAdd || d == StockSubtract
}

type StockMovement struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	OrderID        *uuid.UUID
	Direction      StockDirection
	Quantity       int
	QuantityBefore int
	QuantityAfter  int
	StatusBefore   ProductStatus
	StatusAfter    ProductStatus
	Reason         string
	CreatedAt      time.Time
}

// StockLevel is the pair the ledger rule keeps in lockstep.
type StockLevel struct {
	Quantity int
	Status   ProductStatus
}

// ApplyStock moves quantity by delta in direction and reconciles status:
// zero means out_of_stock, leaving zero from out_of_stock means available.
// A discontinued product keeps its status.
func ApplyStock(cur StockLevel, delta int, dir StockDirection) (StockLevel, error) {
	if delta <= 0 {
		return cur, ErrInvalidQuantity
	}

	var next StockLevel
	switch dir {
	case StockSubtract:
		if cur.Quantity-delta < 0 {
			return cur, WithReason(ErrInsufficientStock,
				fmt.Sprintf("available %d, requested %d", cur.Quantity, delta))
		}
		next.Quantity = cur.Quantity - delta
	case StockAdd:
		next.Quantity = cur.Quantity + delta
	default:
		return cur, fmt.Errorf("direction %q: %w", dir, ErrInvalidRequest)
	}

	next.Status = cur.Status
	if cur.Status == ProductStatusDiscontinued {
		return next, nil
	}
	switch {
	case next.Quantity == 0:
		next.Status = ProductStatusOutOfStock
	case cur.Status == ProductStatusOutOfStock:
		next.Status = ProductStatusAvailable
	}
	return next, nil
}
