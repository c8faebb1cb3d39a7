package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

const productColumns = `id, name, description, price, category, stock_quantity,
	sku, status, created_at, updated_at`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (
			id, name, description, price, category, stock_quantity,
			sku, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.StockQuantity,
		p.SKU, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapPQError(err))
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE sku = upper($1)`, sku,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetBySKU: %w", domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("GetBySKU: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Product, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return p, nil
}

const productFilterClause = `
	WHERE ($1::text IS NULL OR category = $1)
	AND ($2::text IS NULL OR status = $2)
	AND ($3::numeric IS NULL OR price >= $3)
	AND ($4::numeric IS NULL OR price <= $4)
	AND ($5 = '' OR name ILIKE $5 OR description ILIKE $5 OR sku ILIKE $5)`

func (r *ProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	args := []any{f.Category, f.Status, f.MinPrice, f.MaxPrice, likePattern(f.Search)}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products`+productFilterClause, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products`+productFilterClause+`
		ORDER BY created_at DESC, id LIMIT $6 OFFSET $7`,
		append(args, f.Page.Limit, f.Page.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return products, total, nil
}

// Update patches catalogue fields. Stock and status are owned by the stock
// ledger and never change here.
func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, p domain.ProductPatch) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE products SET
			name = CASE WHEN $2 THEN $3 ELSE name END,
			description = CASE WHEN $4 THEN $5 ELSE description END,
			price = CASE WHEN $6 THEN $7::numeric ELSE price END,
			category = CASE WHEN $8 THEN $9 ELSE category END,
			sku = CASE WHEN $10 THEN $11 ELSE sku END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		id,
		p.Name.Set, p.Name.Value,
		p.Description.Set, p.Description.Value,
		p.Price.Set, p.Price.Value,
		p.Category.Set, p.Category.Value,
		p.SKU.Set, p.SKU.Value,
	)
	prod, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Update: %w", domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("Update: %w", mapPQError(err))
	}
	return prod, nil
}

func (r *ProductRepository) UpdateStock(ctx context.Context, tx *sql.Tx, id uuid.UUID, level domain.StockLevel) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock_quantity = $2, status = $3, updated_at = now() WHERE id = $1`,
		id, level.Quantity, level.Status,
	)
	if err != nil {
		return fmt.Errorf("UpdateStock: %w", mapPQError(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStock: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStock: %w", domain.ErrProductNotFound)
	}
	return nil
}

func (r *ProductRepository) SetStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.ProductStatus) (*domain.Product, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE products SET status = $2, updated_at = now() WHERE id = $1 RETURNING `+productColumns,
		id, status,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("SetStatus: %w", domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("SetStatus: %w", mapPQError(err))
	}
	return p, nil
}

func scanProduct(s scanner) (*domain.Product, error) {
	var p domain.Product
	err := s.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.StockQuantity,
		&p.SKU, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
