package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/logging"
	"github.com/josh-kwaku/order-backend/internal/stock"
)

type ProductService struct {
	products  productRepository
	orders    openOrderCounter
	movements stockMovementRepository
	ledger    stockLedger
	cache     productCache
	db        *sql.DB
}

func NewProductService(
	products productRepository,
	orders openOrderCounter,
	movements stockMovementRepository,
	ledger stockLedger,
	cache productCache,
	db *sql.DB,
) *ProductService {
	if cache == nil {
		cache = directProductReads{}
	}
	return &ProductService{
		products:  products,
		orders:    orders,
		movements: movements,
		ledger:    ledger,
		cache:     cache,
		db:        db,
	}
}

type CreateProductRequest struct {
	Name          string
	Description   *string
	Price         decimal.Decimal
	Category      *string
	StockQuantity int
	SKU           *string
}

func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidName)
	}
	if err := domain.ValidatePrice(req.Price); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if req.StockQuantity < 0 {
		return nil, fmt.Errorf("Create: %w", domain.ErrInvalidStock)
	}

	var sku *string
	if req.SKU != nil {
		sku = domain.NormalizeSKU(*req.SKU)
	}
	if sku != nil {
		if err := s.ensureSKUFree(ctx, *sku, uuid.Nil); err != nil {
			return nil, fmt.Errorf("Create: %w", err)
		}
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:            uuid.New(),
		Name:          name,
		Description:   trimOptional(req.Description),
		Price:         req.Price,
		Category:      trimOptional(req.Category),
		StockQuantity: req.StockQuantity,
		SKU:           sku,
		Status:        domain.InitialProductStatus(req.StockQuantity),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	logging.FromContext(ctx).Info("product created",
		"product_id", p.ID, "stock_quantity", p.StockQuantity, "status", p.Status)
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := s.cache.Get(ctx, id, func(ctx context.Context) (*domain.Product, error) {
		return s.products.GetByID(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return p, nil
}

func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	normalized := domain.NormalizeSKU(sku)
	if normalized == nil {
		return nil, fmt.Errorf("GetBySKU: %w", domain.ErrInvalidRequest)
	}
	p, err := s.products.GetBySKU(ctx, *normalized)
	if err != nil {
		return nil, fmt.Errorf("GetBySKU: %w", err)
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, f domain.ProductFilter) (*domain.PageResult[domain.Product], error) {
	if f.Status != nil && !f.Status.IsValid() {
		return nil, fmt.Errorf("List: %w", domain.ErrInvalidStatus)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, fmt.Errorf("List: min_price above max_price: %w", domain.ErrInvalidRequest)
	}
	f.Search = strings.TrimSpace(f.Search)

	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return &domain.PageResult[domain.Product]{Items: products, Total: total, Limit: f.Page.Limit, Offset: f.Page.Offset}, nil
}

// Update changes catalogue fields only. Stock goes through AdjustStock and
// retirement through Discontinue.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, p domain.ProductPatch) (*domain.Product, error) {
	if p.Name.Set {
		if p.Name.IsNull() || strings.TrimSpace(*p.Name.Value) == "" {
			return nil, fmt.Errorf("Update: %w", domain.ErrInvalidName)
		}
		p.Name = domain.Some(strings.TrimSpace(*p.Name.Value))
	}
	if p.Price.Set {
		if p.Price.IsNull() {
			return nil, fmt.Errorf("Update: %w", domain.ErrInvalidPrice)
		}
		if err := domain.ValidatePrice(*p.Price.Value); err != nil {
			return nil, fmt.Errorf("Update: %w", err)
		}
	}
	if p.SKU.Set && !p.SKU.IsNull() {
		p.SKU.Value = domain.NormalizeSKU(*p.SKU.Value)
		if p.SKU.Value != nil {
			if err := s.ensureSKUFree(ctx, *p.SKU.Value, id); err != nil {
				return nil, fmt.Errorf("Update: %w", err)
			}
		}
	}
	if p.Description.Set && !p.Description.IsNull() {
		p.Description.Value = trimOptional(p.Description.Value)
	}
	if p.Category.Set && !p.Category.IsNull() {
		p.Category.Value = trimOptional(p.Category.Value)
	}

	updated, err := s.products.Update(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}
	s.cache.Invalidate(ctx, id)
	return updated, nil
}

type StockAdjustment struct {
	Quantity  int
	Direction domain.StockDirection
	Reason    string
}

// AdjustStock is the administrative restock or write-off. It runs the same
// stock rule orders use, in its own transaction.
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, adj StockAdjustment) (*domain.Product, *domain.StockMovement, error) {
	if !adj.Direction.IsValid() {
		return nil, nil, fmt.Errorf("AdjustStock: direction %q: %w", adj.Direction, domain.ErrInvalidRequest)
	}
	if adj.Quantity <= 0 {
		return nil, nil, fmt.Errorf("AdjustStock: %w", domain.ErrInvalidQuantity)
	}
	reason := strings.TrimSpace(adj.Reason)
	if reason == "" {
		reason = "manual " + string(adj.Direction)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("AdjustStock: begin tx: %w", err)
	}
	defer tx.Rollback()

	m, err := s.ledger.Adjust(ctx, tx, stock.Adjustment{
		ProductID: id,
		Direction: adj.Direction,
		Quantity:  adj.Quantity,
		Reason:    reason,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("AdjustStock: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("AdjustStock: commit: %w", err)
	}
	s.cache.Invalidate(ctx, id)

	logging.FromContext(ctx).Info("stock adjusted",
		"product_id", id,
		"direction", adj.Direction,
		"quantity", adj.Quantity,
		"stock_quantity", m.QuantityAfter,
		"status", m.StatusAfter,
	)

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("AdjustStock: %w", err)
	}
	return p, m, nil
}

// Discontinue retires a product for good. Pending or confirmed orders still
// need the product, so they block it.
func (s *ProductService) Discontinue(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Discontinue: begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := s.products.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Discontinue: %w", err)
	}
	if current.Status == domain.ProductStatusDiscontinued {
		return current, nil
	}

	open, err := s.orders.CountByProduct(ctx, tx, id,
		[]domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusConfirmed})
	if err != nil {
		return nil, fmt.Errorf("Discontinue: %w", err)
	}
	if open > 0 {
		return nil, fmt.Errorf("Discontinue: %w",
			domain.WithReason(domain.ErrProductHasOpenOrders, fmt.Sprintf("%d pending or confirmed orders", open)))
	}

	p, err := s.products.SetStatus(ctx, tx, id, domain.ProductStatusDiscontinued)
	if err != nil {
		return nil, fmt.Errorf("Discontinue: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Discontinue: commit: %w", err)
	}
	s.cache.Invalidate(ctx, id)

	logging.FromContext(ctx).Info("product discontinued", "product_id", id, "from", current.Status)
	return p, nil
}

func (s *ProductService) StockMovements(ctx context.Context, id uuid.UUID, page domain.Page) (*domain.PageResult[domain.StockMovement], error) {
	if _, err := s.products.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("StockMovements: %w", err)
	}
	movements, total, err := s.movements.ListByProduct(ctx, id, page)
	if err != nil {
		return nil, fmt.Errorf("StockMovements: %w", err)
	}
	return &domain.PageResult[domain.StockMovement]{Items: movements, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, sku string, self uuid.UUID) error {
	existing, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil
		}
		return fmt.Errorf("ensureSKUFree: %w", err)
	}
	if existing.ID == self {
		return nil
	}
	return domain.ErrDuplicateSKU
}
