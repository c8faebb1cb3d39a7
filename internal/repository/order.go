package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

const orderColumns = `id, user_id, product_id, quantity, unit_price, total_price,
	status, order_date, notes, created_at, updated_at`

const orderDetailColumns = `o.id, o.user_id, o.product_id, o.quantity, o.unit_price, o.total_price,
	o.status, o.order_date, o.notes, o.created_at, o.updated_at,
	u.name, u.email, p.name, p.sku`

const orderDetailFrom = ` FROM orders o
	JOIN users u ON u.id = o.user_id
	JOIN products p ON p.id = o.product_id`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO orders (
			id, user_id, product_id, quantity, unit_price, total_price,
			status, order_date, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.UserID, o.ProductID, o.Quantity, o.UnitPrice, o.TotalPrice,
		o.Status, o.OrderDate, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapPQError(err))
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Order, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return o, nil
}

// GetDetails returns the order joined with the user's name and email and
// the product's name and sku.
func (r *OrderRepository) GetDetails(ctx context.Context, id uuid.UUID) (*domain.OrderDetails, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderDetailColumns+orderDetailFrom+` WHERE o.id = $1`, id,
	)
	d, err := scanOrderDetails(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetDetails: %w", domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("GetDetails: %w", err)
	}
	return d, nil
}

const orderFilterClause = `
	WHERE ($1::uuid IS NULL OR o.user_id = $1)
	AND ($2::uuid IS NULL OR o.product_id = $2)
	AND ($3::text IS NULL OR o.status = $3)`

func (r *OrderRepository) List(ctx context.Context, f domain.OrderFilter) ([]domain.OrderDetails, int, error) {
	args := []any{f.UserID, f.ProductID, f.Status}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders o`+orderFilterClause, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderDetailColumns+orderDetailFrom+orderFilterClause+`
		ORDER BY o.order_date DESC, o.id LIMIT $4 OFFSET $5`,
		append(args, f.Page.Limit, f.Page.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	orders := []domain.OrderDetails{}
	for rows.Next() {
		d, err := scanOrderDetails(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		orders = append(orders, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus moves the order to status. Notes are replaced only when non-nil.
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.OrderStatus, notes *string) (*domain.Order, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE orders SET status = $2, notes = COALESCE($3, notes), updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		id, status, notes,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("UpdateStatus: %w", domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("UpdateStatus: %w", mapPQError(err))
	}
	return o, nil
}

func (r *OrderRepository) CountByUser(ctx context.Context, tx *sql.Tx, userID uuid.UUID, statuses []domain.OrderStatus) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND status = ANY($2::text[])`,
		userID, statusStrings(statuses),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountByUser: %w", err)
	}
	return n, nil
}

func (r *OrderRepository) CountByProduct(ctx context.Context, tx *sql.Tx, productID uuid.UUID, statuses []domain.OrderStatus) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE product_id = $1 AND status = ANY($2::text[])`,
		productID, statusStrings(statuses),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountByProduct: %w", err)
	}
	return n, nil
}

func scanOrder(s scanner) (*domain.Order, error) {
	var o domain.Order
	err := s.Scan(
		&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.UnitPrice, &o.TotalPrice,
		&o.Status, &o.OrderDate, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrderDetails(s scanner) (*domain.OrderDetails, error) {
	var d domain.OrderDetails
	err := s.Scan(
		&d.ID, &d.UserID, &d.ProductID, &d.Quantity, &d.UnitPrice, &d.TotalPrice,
		&d.Status, &d.OrderDate, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
		&d.UserName, &d.UserEmail, &d.ProductName, &d.ProductSKU,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
