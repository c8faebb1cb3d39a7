package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

const stockMovementColumns = `id, product_id, order_id, direction, quantity,
	quantity_before, quantity_after, status_before, status_after, reason, created_at`

type StockMovementRepository struct {
	db *sql.DB
}

func NewStockMovementRepository(db *sql.DB) *StockMovementRepository {
	return &StockMovementRepository{db: db}
}

func (r *StockMovementRepository) Create(ctx context.Context, tx *sql.Tx, m *domain.StockMovement) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stock_movements (
			id, product_id, order_id, direction, quantity,
			quantity_before, quantity_after, status_before, status_after, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.ProductID, m.OrderID, m.Direction, m.Quantity,
		m.QuantityBefore, m.QuantityAfter, m.StatusBefore, m.StatusAfter, m.Reason, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapPQError(err))
	}
	return nil
}

func (r *StockMovementRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page domain.Page) ([]domain.StockMovement, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stock_movements WHERE product_id = $1`, productID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByProduct: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stockMovementColumns+` FROM stock_movements
		WHERE product_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		productID, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByProduct: %w", err)
	}
	defer rows.Close()

	movements := []domain.StockMovement{}
	for rows.Next() {
		m, err := scanStockMovement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByProduct: scan: %w", err)
		}
		movements = append(movements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByProduct: rows: %w", err)
	}
	return movements, total, nil
}

func scanStockMovement(s scanner) (*domain.StockMovement, error) {
	var m domain.StockMovement
	err := s.Scan(
		&m.ID, &m.ProductID, &m.OrderID, &m.Direction, &m.Quantity,
		&m.QuantityBefore, &m.QuantityAfter, &m.StatusBefore, &m.StatusAfter,
		&m.Reason, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
