package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/logging"
	orderservice "github.com/josh-kwaku/order-backend/internal/service/order"
)

type orderService interface {
	Create(ctx context.Context, req orderservice.CreateRequest) (*domain.OrderDetails, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.OrderDetails, error)
	List(ctx context.Context, f domain.OrderFilter) (*domain.PageResult[domain.OrderDetails], error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, notes *string) (*domain.OrderDetails, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*domain.OrderDetails, error)
	Events(ctx context.Context, orderID uuid.UUID) ([]domain.OrderEvent, error)
}

type OrderHandler struct {
	orders orderService
	pager  Pager
}

func NewOrderHandler(orders orderService, pager Pager) *OrderHandler {
	return &OrderHandler{orders: orders, pager: pager}
}

type orderDTO struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Status      string          `json:"status"`
	OrderDate   time.Time       `json:"order_date"`
	Notes       *string         `json:"notes"`
	UserName    string          `json:"user_name"`
	UserEmail   string          `json:"user_email"`
	ProductName string          `json:"product_name"`
	ProductSKU  *string         `json:"product_sku"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toOrderDTO(o *domain.OrderDetails) orderDTO {
	return orderDTO{
		ID:          o.ID,
		UserID:      o.UserID,
		ProductID:   o.ProductID,
		Quantity:    o.Quantity,
		UnitPrice:   o.UnitPrice,
		TotalPrice:  o.TotalPrice,
		Status:      string(o.Status),
		OrderDate:   o.OrderDate,
		Notes:       o.Notes,
		UserName:    o.UserName,
		UserEmail:   o.UserEmail,
		ProductName: o.ProductName,
		ProductSKU:  o.ProductSKU,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

type orderEventDTO struct {
	ID         uuid.UUID       `json:"id"`
	EventType  string          `json:"event_type"`
	FromStatus *string         `json:"from_status"`
	ToStatus   string          `json:"to_status"`
	Notes      *string         `json:"notes"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
	Published  bool            `json:"published"`
}

func toOrderEventDTO(e *domain.OrderEvent) orderEventDTO {
	dto := orderEventDTO{
		ID:        e.ID,
		EventType: string(e.EventType),
		ToStatus:  string(e.ToStatus),
		Notes:     e.Notes,
		Payload:   e.Payload,
		CreatedAt: e.CreatedAt,
		Published: e.PublishedAt != nil,
	}
	if e.FromStatus != nil {
		from := string(*e.FromStatus)
		dto.FromStatus = &from
	}
	return dto
}

type createOrderRequest struct {
	UserID    string  `json:"user_id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Notes     *string `json:"notes"`
}

func (r createOrderRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.UserID); err != nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "must be a valid UUID"})
	}
	if _, err := uuid.Parse(r.ProductID); err != nil {
		errs = append(errs, FieldError{Field: "product_id", Message: "must be a valid UUID"})
	}
	if r.Quantity <= 0 {
		errs = append(errs, FieldError{Field: "quantity", Message: "must be greater than 0"})
	}
	return errs
}

type updateOrderStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (r updateOrderStatusRequest) Validate() []FieldError {
	if !domain.OrderStatus(r.Status).IsValid() {
		return []FieldError{{Field: "status", Message: "must be pending, confirmed, shipped, delivered or cancelled"}}
	}
	return nil
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	o, err := h.orders.Create(r.Context(), orderservice.CreateRequest{
		UserID:    uuid.MustParse(req.UserID),
		ProductID: uuid.MustParse(req.ProductID),
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("order creation failed",
			"user_id", req.UserID,
			"product_id", req.ProductID,
			"quantity", req.Quantity,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/orders/%s", o.ID))
	RespondSuccess(w, http.StatusCreated, toOrderDTO(o))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrOrderNotFound, nil)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order lookup failed", "order_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(o))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, errs := h.pager.parse(q)

	f := domain.OrderFilter{
		UserID:    optionalUUID(q, "user_id", &errs),
		ProductID: optionalUUID(q, "product_id", &errs),
		Page:      page,
	}
	if raw := q.Get("status"); raw != "" {
		s := domain.OrderStatus(raw)
		if !s.IsValid() {
			errs = append(errs, FieldError{Field: "status", Message: "must be pending, confirmed, shipped, delivered or cancelled"})
		}
		f.Status = &s
	}
	if len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	res, err := h.orders.List(r.Context(), f)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPageDTO(res, toOrderDTO))
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrOrderNotFound, nil)
		return
	}

	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, domain.OrderStatus(req.Status), req.Notes)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order status update failed",
			"order_id", id,
			"status", req.Status,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(o))
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrOrderNotFound, nil)
		return
	}

	// The body is optional; an empty one cancels without a reason.
	var req cancelOrderRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	o, err := h.orders.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order cancel failed", "order_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(o))
}

func (h *OrderHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrOrderNotFound, nil)
		return
	}

	events, err := h.orders.Events(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order event lookup failed", "order_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]orderEventDTO, 0, len(events))
	for i := range events {
		dtos = append(dtos, toOrderEventDTO(&events[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
