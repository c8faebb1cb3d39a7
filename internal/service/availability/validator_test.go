package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

type fakeProducts struct {
	products map[uuid.UUID]*domain.Product
	err      error
	calls    int
}

func (f *fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func TestCheckAvailability(t *testing.T) {
	macbook := &domain.Product{
		ID:            uuid.New(),
		Name:          "MacBook Pro",
		Price:         decimal.RequireFromString("2499.99"),
		StockQuantity: 5,
		Status:        domain.ProductStatusAvailable,
	}
	empty := &domain.Product{
		ID:     uuid.New(),
		Name:   "Mouse",
		Price:  decimal.RequireFromString("19.99"),
		Status: domain.ProductStatusOutOfStock,
	}
	retired := &domain.Product{
		ID:            uuid.New(),
		Name:          "iPod",
		Price:         decimal.RequireFromString("199.00"),
		StockQuantity: 40,
		Status:        domain.ProductStatusDiscontinued,
	}
	products := &fakeProducts{products: map[uuid.UUID]*domain.Product{
		macbook.ID: macbook, empty.ID: empty, retired.ID: retired,
	}}
	v := NewValidator(products)

	tests := []struct {
		name       string
		productID  uuid.UUID
		qty        int
		available  bool
		reason     string
		wantErr    error
		wantSnapID uuid.UUID
	}{
		{name: "enough stock", productID: macbook.ID, qty: 2, available: true, wantSnapID: macbook.ID},
		{name: "exactly all stock", productID: macbook.ID, qty: 5, available: true, wantSnapID: macbook.ID},
		{name: "more than stock", productID: macbook.ID, qty: 6, reason: "available 5, requested 6", wantErr: domain.ErrInsufficientStock},
		{name: "out of stock", productID: empty.ID, qty: 1, reason: "status is out_of_stock, available 0, requested 1", wantErr: domain.ErrInsufficientStock},
		{name: "discontinued", productID: retired.ID, qty: 1, reason: "status is discontinued", wantErr: domain.ErrProductUnavailable},
		{name: "missing product", productID: uuid.New(), qty: 1, reason: ReasonNotFound, wantErr: domain.ErrProductNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := v.CheckAvailability(context.Background(), tc.productID, tc.qty)
			require.NoError(t, err)
			assert.Equal(t, tc.available, res.Available)
			assert.Equal(t, tc.reason, res.Reason)

			if tc.available {
				require.NoError(t, res.Err())
				require.NotNil(t, res.Snapshot)
				assert.Equal(t, tc.wantSnapID, res.Snapshot.ID)
				return
			}

			require.ErrorIs(t, res.Err(), tc.wantErr)
			reason, ok := domain.ReasonOf(res.Err())
			require.True(t, ok)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestCheckAvailability_SnapshotFreezesPrice(t *testing.T) {
	p := &domain.Product{
		ID:            uuid.New(),
		Name:          "Monitor",
		Price:         decimal.RequireFromString("300.00"),
		StockQuantity: 3,
		Status:        domain.ProductStatusAvailable,
	}
	v := NewValidator(&fakeProducts{products: map[uuid.UUID]*domain.Product{p.ID: p}})

	res, err := v.CheckAvailability(context.Background(), p.ID, 1)
	require.NoError(t, err)

	p.Price = decimal.RequireFromString("350.00")
	assert.True(t, res.Snapshot.Price.Equal(decimal.RequireFromString("300.00")))
}

func TestCheckAvailability_StorageFailure(t *testing.T) {
	v := NewValidator(&fakeProducts{err: errors.New("connection refused")})

	_, err := v.CheckAvailability(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	assert.Equal(t, domain.KindStorageFailure, domain.KindOf(err))
}
