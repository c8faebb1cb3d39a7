package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/repository"
	"github.com/josh-kwaku/order-backend/internal/service"
	"github.com/josh-kwaku/order-backend/internal/stock"
	"github.com/josh-kwaku/order-backend/internal/testutil"
)

type CatalogSuite struct {
	suite.Suite
	db       *sql.DB
	users    *service.UserService
	products *service.ProductService
	ctx      context.Context
}

func TestCatalog(t *testing.T) {
	suite.Run(t, new(CatalogSuite))
}

func (s *CatalogSuite) SetupSuite() {
	s.db = testutil.SetupTestDB(s.T())
	s.ctx = context.Background()

	productRepo := repository.NewProductRepository(s.db)
	orderRepo := repository.NewOrderRepository(s.db)
	movementRepo := repository.NewStockMovementRepository(s.db)

	s.users = service.NewUserService(repository.NewUserRepository(s.db), orderRepo, s.db)
	s.products = service.NewProductService(
		productRepo, orderRepo, movementRepo,
		stock.NewLedger(productRepo, movementRepo),
		nil, s.db,
	)
}

func (s *CatalogSuite) SetupTest() {
	testutil.Reset(s.T(), s.db)
}

func (s *CatalogSuite) seedOrder(userID, productID uuid.UUID, status domain.OrderStatus) {
	_, err := s.db.Exec(
		`INSERT INTO orders (user_id, product_id, quantity, unit_price, total_price, status)
		VALUES ($1, $2, 1, 10.00, 10.00, $3)`, userID, productID, status,
	)
	s.Require().NoError(err)
}

func (s *CatalogSuite) TestCreateUser_DuplicateEmailConflicts() {
	u, err := s.users.Create(s.ctx, service.CreateUserRequest{Name: "John Doe", Email: "john@example.com"})
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, u.ID)

	_, err = s.users.Create(s.ctx, service.CreateUserRequest{Name: "Johnny", Email: "John@Example.com"})
	s.Require().ErrorIs(err, domain.ErrDuplicateEmail)
	s.Equal(domain.KindConflict, domain.KindOf(err))
}

func (s *CatalogSuite) TestCreateUser_UniqueIndexBackstop() {
	repo := repository.NewUserRepository(s.db)
	u := &domain.User{ID: uuid.New(), Name: "A", Email: "race@example.com", Status: domain.UserStatusActive}
	s.Require().NoError(repo.Create(s.ctx, u))

	dup := &domain.User{ID: uuid.New(), Name: "B", Email: "RACE@example.com", Status: domain.UserStatusActive}
	err := repo.Create(s.ctx, dup)
	s.Require().ErrorIs(err, domain.ErrDuplicateEmail)
}

func (s *CatalogSuite) TestUpdateUser_PartialPatch() {
	phone := "+1 555 0100"
	u, err := s.users.Create(s.ctx, service.CreateUserRequest{Name: "Jane", Email: "jane@example.com", Phone: &phone})
	s.Require().NoError(err)

	updated, err := s.users.Update(s.ctx, u.ID, domain.UserPatch{
		Name:  domain.Some("Jane Smith"),
		Phone: domain.Null[string](),
	})
	s.Require().NoError(err)
	s.Equal("Jane Smith", updated.Name)
	s.Equal("jane@example.com", updated.Email)
	s.Nil(updated.Phone)
}

func (s *CatalogSuite) TestDeactivateUser_BlockedByOpenOrders() {
	user := testutil.SeedUser(s.T(), s.db, "Owner", "owner@example.com", domain.UserStatusActive)
	product := testutil.SeedProduct(s.T(), s.db, "Widget", "10.00", 5)
	s.seedOrder(user.ID, product.ID, domain.OrderStatusShipped)

	_, err := s.users.Deactivate(s.ctx, user.ID)
	s.Require().ErrorIs(err, domain.ErrUserHasOpenOrders)
	s.Equal(domain.KindBusinessRule, domain.KindOf(err))

	_, err = s.db.Exec(`UPDATE orders SET status = 'delivered' WHERE user_id = $1`, user.ID)
	s.Require().NoError(err)

	u, err := s.users.Deactivate(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(domain.UserStatusInactive, u.Status)

	_, err = s.users.Get(s.ctx, user.ID)
	s.NoError(err, "deactivated users are still readable")
}

func (s *CatalogSuite) TestListUsers_FilterAndSearch() {
	testutil.SeedUser(s.T(), s.db, "Alice Active", "alice@example.com", domain.UserStatusActive)
	testutil.SeedUser(s.T(), s.db, "Bob Active", "bob@example.com", domain.UserStatusActive)
	testutil.SeedUser(s.T(), s.db, "Carol Gone", "carol@example.com", domain.UserStatusInactive)

	active := domain.UserStatusActive
	page, err := s.users.List(s.ctx, domain.UserFilter{Status: &active, Page: domain.Page{Limit: 10}})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	page, err = s.users.List(s.ctx, domain.UserFilter{Search: "carol", Page: domain.Page{Limit: 10}})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal("Carol Gone", page.Items[0].Name)

	page, err = s.users.List(s.ctx, domain.UserFilter{Search: "%", Page: domain.Page{Limit: 10}})
	s.Require().NoError(err)
	s.Zero(page.Total, "wildcards in search text match literally")
}

func (s *CatalogSuite) TestCreateProduct_StatusFollowsStock() {
	sku := " mbp-16 "
	p, err := s.products.Create(s.ctx, service.CreateProductRequest{
		Name:          "MacBook Pro",
		Price:         decimal.RequireFromString("2499.99"),
		StockQuantity: 5,
		SKU:           &sku,
	})
	s.Require().NoError(err)
	s.Equal(domain.ProductStatusAvailable, p.Status)
	s.Equal("MBP-16", *p.SKU)

	empty, err := s.products.Create(s.ctx, service.CreateProductRequest{
		Name:  "Backorder Item",
		Price: decimal.RequireFromString("5.00"),
	})
	s.Require().NoError(err)
	s.Equal(domain.ProductStatusOutOfStock, empty.Status)

	dupSKU := "MBP-16"
	_, err = s.products.Create(s.ctx, service.CreateProductRequest{
		Name:  "Clone",
		Price: decimal.RequireFromString("1.00"),
		SKU:   &dupSKU,
	})
	s.Require().ErrorIs(err, domain.ErrDuplicateSKU)

	got, err := s.products.GetBySKU(s.ctx, "mbp-16")
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
}

func (s *CatalogSuite) TestUpdateProduct_LeavesStockAlone() {
	p := testutil.SeedProduct(s.T(), s.db, "Lamp", "20.00", 3)

	updated, err := s.products.Update(s.ctx, p.ID, domain.ProductPatch{
		Price:    domain.Some(decimal.RequireFromString("22.50")),
		Category: domain.Some("lighting"),
	})
	s.Require().NoError(err)
	s.True(updated.Price.Equal(decimal.RequireFromString("22.50")))
	s.Equal("lighting", *updated.Category)
	s.Equal(3, updated.StockQuantity)
	s.Equal("Lamp", updated.Name)
}

func (s *CatalogSuite) TestAdjustStock_RecordsMovements() {
	p := testutil.SeedProduct(s.T(), s.db, "Cable", "4.99", 1)

	got, m, err := s.products.AdjustStock(s.ctx, p.ID, service.StockAdjustment{
		Quantity: 1, Direction: domain.StockSubtract, Reason: "damaged in warehouse",
	})
	s.Require().NoError(err)
	s.Equal(0, got.StockQuantity)
	s.Equal(domain.ProductStatusOutOfStock, got.Status)
	s.Equal(domain.ProductStatusAvailable, m.StatusBefore)

	got, _, err = s.products.AdjustStock(s.ctx, p.ID, service.StockAdjustment{
		Quantity: 10, Direction: domain.StockAdd,
	})
	s.Require().NoError(err)
	s.Equal(10, got.StockQuantity)
	s.Equal(domain.ProductStatusAvailable, got.Status)

	_, _, err = s.products.AdjustStock(s.ctx, p.ID, service.StockAdjustment{
		Quantity: 11, Direction: domain.StockSubtract,
	})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)

	page, err := s.products.StockMovements(s.ctx, p.ID, domain.Page{Limit: 10})
	s.Require().NoError(err)
	s.Equal(2, page.Total)
	s.Equal("manual add", page.Items[0].Reason)
	s.Equal("damaged in warehouse", page.Items[1].Reason)
}

func (s *CatalogSuite) TestDiscontinue_BlockedByPendingOrders() {
	user := testutil.SeedUser(s.T(), s.db, "Buyer", "buyer@example.com", domain.UserStatusActive)
	p := testutil.SeedProduct(s.T(), s.db, "Gadget", "10.00", 5)
	s.seedOrder(user.ID, p.ID, domain.OrderStatusConfirmed)

	_, err := s.products.Discontinue(s.ctx, p.ID)
	s.Require().ErrorIs(err, domain.ErrProductHasOpenOrders)

	_, err = s.db.Exec(`UPDATE orders SET status = 'shipped' WHERE product_id = $1`, p.ID)
	s.Require().NoError(err)

	got, err := s.products.Discontinue(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(domain.ProductStatusDiscontinued, got.Status)

	again, err := s.products.Discontinue(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(domain.ProductStatusDiscontinued, again.Status)
}

func (s *CatalogSuite) TestListProducts_Filters() {
	testutil.SeedProduct(s.T(), s.db, "Cheap Pen", "1.50", 100)
	testutil.SeedProduct(s.T(), s.db, "Fancy Pen", "45.00", 2)
	testutil.SeedProduct(s.T(), s.db, "Notebook", "8.00", 0)

	lo, hi := decimal.RequireFromString("1.00"), decimal.RequireFromString("10.00")
	page, err := s.products.List(s.ctx, domain.ProductFilter{MinPrice: &lo, MaxPrice: &hi, Page: domain.Page{Limit: 10}})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	out := domain.ProductStatusOutOfStock
	page, err = s.products.List(s.ctx, domain.ProductFilter{Status: &out, Page: domain.Page{Limit: 10}})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal("Notebook", page.Items[0].Name)

	page, err = s.products.List(s.ctx, domain.ProductFilter{Search: "pen", Page: domain.Page{Limit: 1, Offset: 1}})
	s.Require().NoError(err)
	s.Equal(2, page.Total)
	s.Len(page.Items, 1)
}
