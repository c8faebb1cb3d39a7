package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

func SeedUser(t *testing.T, db *sql.DB, name, email string, status domain.UserStatus) *domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.Exec(
		`INSERT INTO users (id, name, email, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

// SeedProduct inserts a product whose status follows its stock, unless
// status is given explicitly.
func SeedProduct(t *testing.T, db *sql.DB, name, price string, stock int, status ...domain.ProductStatus) *domain.Product {
	t.Helper()

	st := domain.InitialProductStatus(stock)
	if len(status) > 0 {
		st = status[0]
	}
	now := time.Now().UTC()
	p := &domain.Product{
		ID:            uuid.New(),
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Status:        st,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := db.Exec(
		`INSERT INTO products (id, name, price, stock_quantity, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Price, p.StockQuantity, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return p
}

func GetProductStock(t *testing.T, db *sql.DB, productID uuid.UUID) domain.StockLevel {
	t.Helper()

	var level domain.StockLevel
	err := db.QueryRow(
		`SELECT stock_quantity, status FROM products WHERE id = $1`, productID,
	).Scan(&level.Quantity, &level.Status)
	if err != nil {
		t.Fatalf("get product stock %s: %v", productID, err)
	}
	return level
}

func CountOrders(t *testing.T, db *sql.DB, productID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM orders WHERE product_id = $1`, productID).Scan(&count)
	if err != nil {
		t.Fatalf("count orders for product %s: %v", productID, err)
	}
	return count
}

func CountStockMovements(t *testing.T, db *sql.DB, orderID uuid.UUID, dir domain.StockDirection) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM stock_movements WHERE order_id = $1 AND direction = $2`, orderID, dir,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count stock movements for order %s: %v", orderID, err)
	}
	return count
}

func CountOrderEvents(t *testing.T, db *sql.DB, orderID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM order_events WHERE order_id = $1`, orderID).Scan(&count)
	if err != nil {
		t.Fatalf("count order events for order %s: %v", orderID, err)
	}
	return count
}
