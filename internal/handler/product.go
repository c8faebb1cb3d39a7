package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/logging"
	"github.com/josh-kwaku/order-backend/internal/service"
)

type productService interface {
	Create(ctx context.Context, req service.CreateProductRequest) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context, f domain.ProductFilter) (*domain.PageResult[domain.Product], error)
	Update(ctx context.Context, id uuid.UUID, p domain.ProductPatch) (*domain.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, adj service.StockAdjustment) (*domain.Product, *domain.StockMovement, error)
	Discontinue(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	StockMovements(ctx context.Context, id uuid.UUID, page domain.Page) (*domain.PageResult[domain.StockMovement], error)
}

type ProductHandler struct {
	products productService
	pager    Pager
}

func NewProductHandler(products productService, pager Pager) *ProductHandler {
	return &ProductHandler{products: products, pager: pager}
}

type productDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      *string         `json:"category"`
	StockQuantity int             `json:"stock_quantity"`
	SKU           *string         `json:"sku"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toProductDTO(p *domain.Product) productDTO {
	return productDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		StockQuantity: p.StockQuantity,
		SKU:           p.SKU,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type stockMovementDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	OrderID        *uuid.UUID `json:"order_id"`
	Direction      string     `json:"direction"`
	Quantity       int        `json:"quantity"`
	QuantityBefore int        `json:"quantity_before"`
	QuantityAfter  int        `json:"quantity_after"`
	StatusBefore   string     `json:"status_before"`
	StatusAfter    string     `json:"status_after"`
	Reason         string     `json:"reason"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toStockMovementDTO(m *domain.StockMovement) stockMovementDTO {
	return stockMovementDTO{
		ID:             m.ID,
		ProductID:      m.ProductID,
		OrderID:        m.OrderID,
		Direction:      string(m.Direction),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		StatusBefore:   string(m.StatusBefore),
		StatusAfter:    string(m.StatusAfter),
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
}

type createProductRequest struct {
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      *string         `json:"category"`
	StockQuantity *int            `json:"stock_quantity"`
	SKU           *string         `json:"sku"`
}

func (r createProductRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !r.Price.IsPositive() {
		errs = append(errs, FieldError{Field: "price", Message: "must be greater than 0"})
	}
	if r.StockQuantity == nil {
		errs = append(errs, FieldError{Field: "stock_quantity", Message: "required"})
	} else if *r.StockQuantity < 0 {
		errs = append(errs, FieldError{Field: "stock_quantity", Message: "must not be negative"})
	}
	return errs
}

type updateProductRequest struct {
	Name        domain.Optional[string]          `json:"name"`
	Description domain.Optional[string]          `json:"description"`
	Price       domain.Optional[decimal.Decimal] `json:"price"`
	Category    domain.Optional[string]          `json:"category"`
	SKU         domain.Optional[string]          `json:"sku"`
}

func (r updateProductRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name.IsNull() {
		errs = append(errs, FieldError{Field: "name", Message: "cannot be null"})
	}
	if r.Price.IsNull() {
		errs = append(errs, FieldError{Field: "price", Message: "cannot be null"})
	}
	return errs
}

type adjustStockRequest struct {
	Delta     int    `json:"delta"`
	Direction string `json:"direction"`
	Reason    string `json:"reason"`
}

func (r adjustStockRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Delta <= 0 {
		errs = append(errs, FieldError{Field: "delta", Message: "must be greater than 0"})
	}
	if !domain.StockDirection(r.Direction).IsValid() {
		errs = append(errs, FieldError{Field: "direction", Message: "must be add or subtract"})
	}
	return errs
}

type stockAdjustmentDTO struct {
	Product  productDTO       `json:"product"`
	Movement stockMovementDTO `json:"movement"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	p, err := h.products.Create(r.Context(), service.CreateProductRequest{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Category:      req.Category,
		StockQuantity: *req.StockQuantity,
		SKU:           req.SKU,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("product creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/products/%s", p.ID))
	RespondSuccess(w, http.StatusCreated, toProductDTO(p))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrProductNotFound, nil)
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("product lookup failed", "product_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toProductDTO(p))
}

func (h *ProductHandler) GetBySKU(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	p, err := h.products.GetBySKU(r.Context(), sku)
	if err != nil {
		logging.FromContext(r.Context()).Warn("product lookup by sku failed", "sku", sku, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toProductDTO(p))
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, errs := h.pager.parse(q)

	f := domain.ProductFilter{
		Category: optionalString(q, "category"),
		Search:   q.Get("search"),
		Page:     page,
	}
	if raw := q.Get("status"); raw != "" {
		s := domain.ProductStatus(raw)
		if !s.IsValid() {
			errs = append(errs, FieldError{Field: "status", Message: "must be available, out_of_stock or discontinued"})
		}
		f.Status = &s
	}
	f.MinPrice = optionalDecimal(q.Get("min_price"), "min_price", &errs)
	f.MaxPrice = optionalDecimal(q.Get("max_price"), "max_price", &errs)
	if len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	res, err := h.products.List(r.Context(), f)
	if err != nil {
		logging.FromContext(r.Context()).Warn("product list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPageDTO(res, toProductDTO))
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrProductNotFound, nil)
		return
	}

	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	p, err := h.products.Update(r.Context(), id, domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		SKU:         req.SKU,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("product update failed", "product_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toProductDTO(p))
}

func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrProductNotFound, nil)
		return
	}

	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	p, m, err := h.products.AdjustStock(r.Context(), id, service.StockAdjustment{
		Quantity:  req.Delta,
		Direction: domain.StockDirection(req.Direction),
		Reason:    req.Reason,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("stock adjustment failed",
			"product_id", id,
			"direction", req.Direction,
			"delta", req.Delta,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, stockAdjustmentDTO{
		Product:  toProductDTO(p),
		Movement: toStockMovementDTO(m),
	})
}

func (h *ProductHandler) Discontinue(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrProductNotFound, nil)
		return
	}

	p, err := h.products.Discontinue(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("product discontinue failed", "product_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toProductDTO(p))
}

func (h *ProductHandler) StockMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrProductNotFound, nil)
		return
	}

	page, errs := h.pager.parse(r.URL.Query())
	if len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	res, err := h.products.StockMovements(r.Context(), id, page)
	if err != nil {
		logging.FromContext(r.Context()).Warn("stock movement list failed", "product_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPageDTO(res, toStockMovementDTO))
}

func optionalDecimal(raw, field string, errs *[]FieldError) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		*errs = append(*errs, FieldError{Field: field, Message: "must be a decimal number"})
		return nil
	}
	return &d
}
