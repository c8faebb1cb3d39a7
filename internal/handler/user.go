package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/logging"
	"github.com/josh-kwaku/order-backend/internal/service"
)

type userService interface {
	Create(ctx context.Context, req service.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, f domain.UserFilter) (*domain.PageResult[domain.User], error)
	Update(ctx context.Context, id uuid.UUID, p domain.UserPatch) (*domain.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type UserHandler struct {
	users userService
	pager Pager
}

func NewUserHandler(users userService, pager Pager) *UserHandler {
	return &UserHandler{users: users, pager: pager}
}

type userDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type createUserRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (r createUserRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	return errs
}

type updateUserRequest struct {
	Name    domain.Optional[string]            `json:"name"`
	Email   domain.Optional[string]            `json:"email"`
	Phone   domain.Optional[string]            `json:"phone"`
	Address domain.Optional[string]            `json:"address"`
	Status  domain.Optional[domain.UserStatus] `json:"status"`
}

func (r updateUserRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name.IsNull() {
		errs = append(errs, FieldError{Field: "name", Message: "cannot be null"})
	}
	if r.Email.IsNull() {
		errs = append(errs, FieldError{Field: "email", Message: "cannot be null"})
	}
	if r.Status.Set && (r.Status.IsNull() || !r.Status.Value.IsValid()) {
		errs = append(errs, FieldError{Field: "status", Message: "must be active, inactive or suspended"})
	}
	return errs
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	u, err := h.users.Create(r.Context(), service.CreateUserRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("user creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/users/%s", u.ID))
	RespondSuccess(w, http.StatusCreated, toUserDTO(u))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("user lookup failed", "user_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(u))
}

func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		logging.FromContext(r.Context()).Warn("user lookup by email failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(u))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, errs := h.pager.parse(q)

	f := domain.UserFilter{Search: q.Get("search"), Page: page}
	if raw := q.Get("status"); raw != "" {
		s := domain.UserStatus(raw)
		if !s.IsValid() {
			errs = append(errs, FieldError{Field: "status", Message: "must be active, inactive or suspended"})
		}
		f.Status = &s
	}
	if len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	res, err := h.users.List(r.Context(), f)
	if err != nil {
		logging.FromContext(r.Context()).Error("user list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPageDTO(res, toUserDTO))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	u, err := h.users.Update(r.Context(), id, domain.UserPatch{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Status:  req.Status,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("user update failed", "user_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(u))
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}

	u, err := h.users.Deactivate(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("user deactivation failed", "user_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(u))
}
