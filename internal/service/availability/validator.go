// Package availability decides whether a product can satisfy an order line.
// It only reads.
package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

const ReasonNotFound = "not found"

type productReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

type Result struct {
	Available bool
	Reason    string
	Snapshot  *domain.ProductSnapshot

	cause error
}

// Err converts an unavailable result into the business error the workflow
// returns, keeping Reason intact. It is nil when the product is available.
func (r Result) Err() error {
	if r.Available {
		return nil
	}
	return domain.WithReason(r.cause, r.Reason)
}

type Validator struct {
	products productReader
}

func NewValidator(products productReader) *Validator {
	return &Validator{products: products}
}

// CheckAvailability returns an error only when the product could not be read.
// A missing product is reported as unavailable.
func (v *Validator) CheckAvailability(ctx context.Context, productID uuid.UUID, requestedQty int) (Result, error) {
	p, err := v.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return Result{Reason: ReasonNotFound, cause: domain.ErrProductNotFound}, nil
		}
		return Result{}, fmt.Errorf("CheckAvailability: %w", err)
	}
	return Evaluate(p, requestedQty), nil
}

// Evaluate applies the availability rules to an already loaded product. The
// order workflow calls it again on the locked row inside its transaction.
func Evaluate(p *domain.Product, requestedQty int) Result {
	snap := p.Snapshot()

	switch p.Status {
	case domain.ProductStatusAvailable:
	case domain.ProductStatusOutOfStock:
		// Out of stock is a shortage, so it reports as insufficient stock.
		return Result{
			Reason: fmt.Sprintf("status is %s, available %d, requested %d",
				p.Status, p.StockQuantity, requestedQty),
			Snapshot: &snap,
			cause:    domain.ErrInsufficientStock,
		}
	default:
		return Result{
			Reason:   fmt.Sprintf("status is %s", p.Status),
			Snapshot: &snap,
			cause:    domain.ErrProductUnavailable,
		}
	}
	if p.StockQuantity < requestedQty {
		return Result{
			Reason:   fmt.Sprintf("available %d, requested %d", p.StockQuantity, requestedQty),
			Snapshot: &snap,
			cause:    domain.ErrInsufficientStock,
		}
	}
	return Result{Available: true, Snapshot: &snap}
}
