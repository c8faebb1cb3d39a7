package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

type scanner interface {
	Scan(dest ...any) error
}

// Constraint names come from migrations/000001_init.up.sql.
var constraintErrors = map[string]error{
	"idx_users_email_lower":         domain.ErrDuplicateEmail,
	"products_sku_key":              domain.ErrDuplicateSKU,
	"idempotency_cache_pkey":        domain.ErrDuplicateIdempotencyKey,
	"orders_user_id_fkey":           domain.ErrUserNotFound,
	"orders_product_id_fkey":        domain.ErrProductNotFound,
	"products_stock_quantity_check": domain.ErrInsufficientStock,
	"products_price_check":          domain.ErrInvalidPrice,
	"orders_quantity_check":         domain.ErrInvalidQuantity,
}

// mapPQError translates constraint violations raised by Postgres into domain
// errors. Anything else is returned untouched and surfaces as a storage failure.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code.Name() {
	case "unique_violation", "foreign_key_violation", "check_violation":
		if target, ok := constraintErrors[pqErr.Constraint]; ok {
			return fmt.Errorf("%s: %w", pqErr.Constraint, target)
		}
		if pqErr.Code.Name() == "check_violation" {
			return fmt.Errorf("%s: %w", pqErr.Constraint, domain.ErrInvalidRequest)
		}
	case "not_null_violation":
		return fmt.Errorf("%s is required: %w", pqErr.Column, domain.ErrInvalidRequest)
	}
	return err
}

func uuidStrings(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func statusStrings[S ~string](statuses []S) pq.StringArray {
	out := make(pq.StringArray, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// likePattern escapes LIKE metacharacters so user search text matches literally.
func likePattern(search string) string {
	if search == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(search) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
