package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusAvailable    ProductStatus = "available"
	ProductStatusOutOfStock   ProductStatus = "out_of_stock"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusAvailable, ProductStatusOutOfStock, ProductStatusDiscontinued:
		return true
	}
	return false
}

type Product struct {
	ID            uuid.UUID
	Name          string
	Description   *string
	Price         decimal.Decimal
	Category      *string
	StockQuantity int
	SKU           *string
	Status        ProductStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Snapshot freezes the fields an order depends on at validation time.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Status:        p.Status,
	}
}

type ProductSnapshot struct {
	ID            uuid.UUID
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	Status        ProductStatus
}

// ProductPatch covers the administratively editable fields. Stock and status
// move only through the stock ledger and Discontinue.
type ProductPatch struct {
	Name        Optional[string]
	Description Optional[string]
	Price       Optional[decimal.Decimal]
	Category    Optional[string]
	SKU         Optional[string]
}

type ProductFilter struct {
	Category *string
	Status   *ProductStatus
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Page     Page
}

// InitialProductStatus derives the status for a freshly created product.
func InitialProductStatus(stock int) ProductStatus {
	if stock == 0 {
		return ProductStatusOutOfStock
	}
	return ProductStatusAvailable
}

// NormalizeSKU upper-cases and trims a SKU; an empty result means "no SKU".
func NormalizeSKU(sku string) *string {
	s := strings.ToUpper(strings.TrimSpace(sku))
	if s == "" {
		return nil
	}
	return &s
}

// ValidatePrice requires a positive amount with at most two decimal places.
func ValidatePrice(p decimal.Decimal) error {
	if !p.IsPositive() || !p.Equal(p.Round(2)) {
		return ErrInvalidPrice
	}
	return nil
}
