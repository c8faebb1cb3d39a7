package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

type memUsers struct {
	byID    map[uuid.UUID]*domain.User
	created []*domain.User
}

func newMemUsers(users ...*domain.User) *memUsers {
	m := &memUsers{byID: map[uuid.UUID]*domain.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.byID[u.ID] = u
	m.created = append(m.created, u)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) GetForUpdate(ctx context.Context, _ *sql.Tx, id uuid.UUID) (*domain.User, error) {
	return m.GetByID(ctx, id)
}

func (m *memUsers) List(context.Context, domain.UserFilter) ([]domain.User, int, error) {
	return nil, 0, nil
}

func (m *memUsers) Update(context.Context, *sql.Tx, uuid.UUID, domain.UserPatch) (*domain.User, error) {
	panic("update must not be reached")
}

func TestUserService_Create_Validation(t *testing.T) {
	existing := &domain.User{ID: uuid.New(), Name: "John Doe", Email: "john@example.com", Status: domain.UserStatusActive}

	tests := []struct {
		name    string
		req     CreateUserRequest
		wantErr error
	}{
		{name: "blank name", req: CreateUserRequest{Name: "   ", Email: "a@example.com"}, wantErr: domain.ErrInvalidName},
		{name: "bad email", req: CreateUserRequest{Name: "A", Email: "not-an-email"}, wantErr: domain.ErrInvalidEmail},
		{name: "duplicate email differing in case", req: CreateUserRequest{Name: "B", Email: "JOHN@example.com"}, wantErr: domain.ErrDuplicateEmail},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := newMemUsers(existing)
			svc := NewUserService(users, nil, nil)

			_, err := svc.Create(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, users.created)
		})
	}
}

func TestUserService_Create_Normalizes(t *testing.T) {
	users := newMemUsers()
	svc := NewUserService(users, nil, nil)
	phone := "  "

	u, err := svc.Create(context.Background(), CreateUserRequest{
		Name:  "  John Doe ",
		Email: " John@Example.com",
		Phone: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", u.Name)
	assert.Equal(t, "john@example.com", u.Email)
	assert.Nil(t, u.Phone)
	assert.Equal(t, domain.UserStatusActive, u.Status)
	assert.NotEqual(t, uuid.Nil, u.ID)
}

func TestUserService_Update_RejectsBadPatch(t *testing.T) {
	self := &domain.User{ID: uuid.New(), Email: "self@example.com", Status: domain.UserStatusActive}
	other := &domain.User{ID: uuid.New(), Email: "taken@example.com", Status: domain.UserStatusActive}
	svc := NewUserService(newMemUsers(self, other), nil, nil)

	tests := []struct {
		name    string
		patch   domain.UserPatch
		wantErr error
	}{
		{name: "null name", patch: domain.UserPatch{Name: domain.Null[string]()}, wantErr: domain.ErrInvalidName},
		{name: "null email", patch: domain.UserPatch{Email: domain.Null[string]()}, wantErr: domain.ErrInvalidEmail},
		{name: "email of another user", patch: domain.UserPatch{Email: domain.Some("Taken@example.com")}, wantErr: domain.ErrDuplicateEmail},
		{name: "unknown status", patch: domain.UserPatch{Status: domain.Some(domain.UserStatus("banned"))}, wantErr: domain.ErrInvalidStatus},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), self.ID, tc.patch)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestProductService_Create_Validation(t *testing.T) {
	svc := NewProductService(nil, nil, nil, nil, nil, nil)

	tests := []struct {
		name    string
		req     CreateProductRequest
		wantErr error
	}{
		{name: "blank name", req: CreateProductRequest{Name: "", Price: decimal.RequireFromString("1.00")}, wantErr: domain.ErrInvalidName},
		{name: "zero price", req: CreateProductRequest{Name: "A", Price: decimal.Zero}, wantErr: domain.ErrInvalidPrice},
		{name: "three decimals", req: CreateProductRequest{Name: "A", Price: decimal.RequireFromString("1.999")}, wantErr: domain.ErrInvalidPrice},
		{name: "negative stock", req: CreateProductRequest{Name: "A", Price: decimal.RequireFromString("1.00"), StockQuantity: -1}, wantErr: domain.ErrInvalidStock},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, domain.KindValidationFailed, domain.KindOf(err))
		})
	}
}

func TestProductService_AdjustStock_Validation(t *testing.T) {
	svc := NewProductService(nil, nil, nil, nil, nil, nil)

	_, _, err := svc.AdjustStock(context.Background(), uuid.New(), StockAdjustment{Quantity: 1, Direction: "sideways"})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, _, err = svc.AdjustStock(context.Background(), uuid.New(), StockAdjustment{Quantity: 0, Direction: domain.StockAdd})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestProductService_List_PriceRange(t *testing.T) {
	svc := NewProductService(nil, nil, nil, nil, nil, nil)
	lo, hi := decimal.RequireFromString("10"), decimal.RequireFromString("5")

	_, err := svc.List(context.Background(), domain.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}
