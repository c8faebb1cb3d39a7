package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/service"
)

type fakeUsers struct {
	patch       *domain.UserPatch
	deactivated uuid.UUID
	err         error
}

func (f *fakeUsers) user(id uuid.UUID) *domain.User {
	return &domain.User{ID: id, Name: "Jane Doe", Email: "jane@example.com", Status: domain.UserStatusActive, CreatedAt: time.Now().UTC()}
}

func (f *fakeUsers) Create(_ context.Context, req service.CreateUserRequest) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := f.user(uuid.New())
	u.Email = req.Email
	return u, nil
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return f.user(id), f.err
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := f.user(uuid.New())
	u.Email = email
	return u, nil
}

func (f *fakeUsers) List(_ context.Context, filter domain.UserFilter) (*domain.PageResult[domain.User], error) {
	return &domain.PageResult[domain.User]{Items: []domain.User{}, Limit: filter.Page.Limit}, nil
}

func (f *fakeUsers) Update(_ context.Context, id uuid.UUID, p domain.UserPatch) (*domain.User, error) {
	f.patch = &p
	if f.err != nil {
		return nil, f.err
	}
	return f.user(id), nil
}

func (f *fakeUsers) Deactivate(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.deactivated = id
	if f.err != nil {
		return nil, f.err
	}
	u := f.user(id)
	u.Status = domain.UserStatusInactive
	return u, nil
}

func newUserRouter(users userService) http.Handler {
	r := chi.NewRouter()
	r.Route("/users", NewUserHandler(users, Pager{Default: 20, Max: 100}).Routes)
	return r
}

func TestUserHandler_Create(t *testing.T) {
	rec := serve(newUserRouter(&fakeUsers{}), http.MethodPost, "/users/", `{"name":"Jane Doe","email":"jane@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(newUserRouter(&fakeUsers{}), http.MethodPost, "/users/", `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeEnvelope(t, rec).Error.Code)

	rec = serve(newUserRouter(&fakeUsers{err: domain.ErrDuplicateEmail}), http.MethodPost, "/users/", `{"name":"Jane","email":"jane@example.com"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestUserHandler_UpdateDistinguishesNullFromAbsent(t *testing.T) {
	fake := &fakeUsers{}
	id := uuid.New()

	rec := serve(newUserRouter(fake), http.MethodPatch, "/users/"+id.String(), `{"name":"Jane Smith","phone":null}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.patch)
	require.True(t, fake.patch.Name.Set)
	assert.Equal(t, "Jane Smith", *fake.patch.Name.Value)
	assert.True(t, fake.patch.Phone.IsNull())
	assert.False(t, fake.patch.Email.Set)
	assert.False(t, fake.patch.Address.Set)
}

func TestUserHandler_UpdateRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "null email", body: `{"email":null}`},
		{name: "null name", body: `{"name":null}`},
		{name: "unknown status", body: `{"status":"banned"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeUsers{}
			rec := serve(newUserRouter(fake), http.MethodPatch, "/users/"+uuid.NewString(), tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, fake.patch)
		})
	}
}

func TestUserHandler_DeactivateBlocked(t *testing.T) {
	fake := &fakeUsers{err: domain.WithReason(domain.ErrUserHasOpenOrders, "2 open orders")}
	id := uuid.New()

	rec := serve(newUserRouter(fake), http.MethodPost, "/users/"+id.String()+"/deactivate", "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, id, fake.deactivated)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "USER_HAS_OPEN_ORDERS", env.Error.Code)
	assert.JSONEq(t, `{"reason":"2 open orders"}`, string(env.Error.Details))
}

func TestUserHandler_GetByEmail(t *testing.T) {
	rec := serve(newUserRouter(&fakeUsers{}), http.MethodGet, "/users/by-email/john@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var dto userDTO
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &dto))
	assert.Equal(t, "john@example.com", dto.Email)
}

type fakeProducts struct {
	productService
	filter domain.ProductFilter
	adj    *service.StockAdjustment
}

func (f *fakeProducts) List(_ context.Context, filter domain.ProductFilter) (*domain.PageResult[domain.Product], error) {
	f.filter = filter
	return &domain.PageResult[domain.Product]{Items: []domain.Product{}}, nil
}

func (f *fakeProducts) AdjustStock(_ context.Context, id uuid.UUID, adj service.StockAdjustment) (*domain.Product, *domain.StockMovement, error) {
	f.adj = &adj
	p := &domain.Product{ID: id, Name: "Desk", Price: decimal.RequireFromString("10.00"), StockQuantity: 4, Status: domain.ProductStatusAvailable}
	m := &domain.StockMovement{ID: uuid.New(), ProductID: id, Direction: adj.Direction, Quantity: adj.Quantity,
		QuantityBefore: 0, QuantityAfter: 4, StatusBefore: domain.ProductStatusOutOfStock, StatusAfter: domain.ProductStatusAvailable}
	return p, m, nil
}

func newProductRouter(products productService) http.Handler {
	r := chi.NewRouter()
	r.Route("/products", NewProductHandler(products, Pager{Default: 20, Max: 100}).Routes)
	return r
}

func TestProductHandler_ListPriceRange(t *testing.T) {
	fake := &fakeProducts{}

	rec := serve(newProductRouter(fake), http.MethodGet, "/products/?min_price=10.50&max_price=99&category=Electronics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.filter.MinPrice)
	assert.Equal(t, "10.5", fake.filter.MinPrice.String())
	require.NotNil(t, fake.filter.Category)
	assert.Equal(t, "Electronics", *fake.filter.Category)

	rec = serve(newProductRouter(fake), http.MethodGet, "/products/?min_price=cheap", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductHandler_AdjustStock(t *testing.T) {
	fake := &fakeProducts{}
	id := uuid.New()

	rec := serve(newProductRouter(fake), http.MethodPost, "/products/"+id.String()+"/stock", `{"delta":4,"direction":"add","reason":"restock"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.adj)
	assert.Equal(t, 4, fake.adj.Quantity)
	assert.Equal(t, domain.StockAdd, fake.adj.Direction)

	var dto stockAdjustmentDTO
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &dto))
	assert.Equal(t, "available", dto.Product.Status)
	assert.Equal(t, "out_of_stock", dto.Movement.StatusBefore)

	fake.adj = nil
	rec = serve(newProductRouter(fake), http.MethodPost, "/products/"+id.String()+"/stock", `{"delta":0,"direction":"sideways"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, fake.adj)
}
