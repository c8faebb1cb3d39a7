package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/stock"
)

type userRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, int, error)
	Update(ctx context.Context, tx *sql.Tx, id uuid.UUID, p domain.UserPatch) (*domain.User, error)
}

type productRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, id uuid.UUID, p domain.ProductPatch) (*domain.Product, error)
	SetStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.ProductStatus) (*domain.Product, error)
}

type openOrderCounter interface {
	CountByUser(ctx context.Context, tx *sql.Tx, userID uuid.UUID, statuses []domain.OrderStatus) (int, error)
	CountByProduct(ctx context.Context, tx *sql.Tx, productID uuid.UUID, statuses []domain.OrderStatus) (int, error)
}

type stockMovementRepository interface {
	ListByProduct(ctx context.Context, productID uuid.UUID, page domain.Page) ([]domain.StockMovement, int, error)
}

type stockLedger interface {
	Adjust(ctx context.Context, tx *sql.Tx, adj stock.Adjustment) (*domain.StockMovement, error)
}

// productCache fronts single product reads. Load is called on a miss.
type productCache interface {
	Get(ctx context.Context, id uuid.UUID, load func(context.Context) (*domain.Product, error)) (*domain.Product, error)
	Invalidate(ctx context.Context, id uuid.UUID)
}

type directProductReads struct{}

func (directProductReads) Get(ctx context.Context, _ uuid.UUID, load func(context.Context) (*domain.Product, error)) (*domain.Product, error) {
	return load(ctx)
}

func (directProductReads) Invalidate(context.Context, uuid.UUID) {}
