package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

// Quote is the frozen price of an order line.
type Quote struct {
	UnitPrice decimal.Decimal
	Quantity  int
	Total     decimal.Decimal
}

// Price multiplies a unit price snapshot by quantity with exact decimal
// arithmetic. The result keeps two decimal places.
func Price(unitPrice decimal.Decimal, quantity int) (*Quote, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("Price: %w", domain.ErrInvalidQuantity)
	}
	if err := domain.ValidatePrice(unitPrice); err != nil {
		return nil, fmt.Errorf("Price: %w", err)
	}

	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	return &Quote{
		UnitPrice: unitPrice.Round(2),
		Quantity:  quantity,
		Total:     total.Round(2),
	}, nil
}
