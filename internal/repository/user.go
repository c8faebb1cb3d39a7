package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

const userColumns = `id, name, email, phone, address, status, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, phone, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.Phone, u.Address, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapPQError(err))
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByEmail: %w", domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return u, nil
}

// GetForShare takes a shared row lock so the user cannot be deactivated
// while an order referencing it is being written.
func (r *UserRepository) GetForShare(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR SHARE`, id,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForShare: %w", domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("GetForShare: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return u, nil
}

const userFilterClause = `
	WHERE ($1::text IS NULL OR status = $1)
	AND ($2 = '' OR name ILIKE $2 OR email ILIKE $2)`

func (r *UserRepository) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int, error) {
	search := likePattern(f.Search)

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`+userFilterClause, f.Status, search,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users`+userFilterClause+`
		ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		f.Status, search, f.Page.Limit, f.Page.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return users, total, nil
}

// Update applies only the fields set on the patch. A set field with a nil
// value clears the column.
func (r *UserRepository) Update(ctx context.Context, tx *sql.Tx, id uuid.UUID, p domain.UserPatch) (*domain.User, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE users SET
			name = CASE WHEN $2 THEN $3 ELSE name END,
			email = CASE WHEN $4 THEN $5 ELSE email END,
			phone = CASE WHEN $6 THEN $7 ELSE phone END,
			address = CASE WHEN $8 THEN $9 ELSE address END,
			status = CASE WHEN $10 THEN $11 ELSE status END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id,
		p.Name.Set, p.Name.Value,
		p.Email.Set, p.Email.Value,
		p.Phone.Set, p.Phone.Value,
		p.Address.Set, p.Address.Value,
		p.Status.Set, p.Status.Value,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Update: %w", domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("Update: %w", mapPQError(err))
	}
	return u, nil
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	err := s.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address,
		&u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
