package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type reasonDetails struct {
	Reason string `json:"reason"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// Sentinels are checked in order; the first match wins.
var domainErrors = []struct {
	target error
	appErr *AppError
}{
	{domain.ErrUserNotFound, ErrUserNotFound},
	{domain.ErrProductNotFound, ErrProductNotFound},
	{domain.ErrOrderNotFound, ErrOrderNotFound},
	{domain.ErrNotFound, ErrResourceNotFound},

	{domain.ErrDuplicateEmail, ErrDuplicateEmail},
	{domain.ErrDuplicateSKU, ErrDuplicateSKU},
	{domain.ErrInvalidTransition, ErrInvalidTransition},
	{domain.ErrDuplicateIdempotencyKey, ErrIdempotencyConflict},

	{domain.ErrInvalidQuantity, ErrInvalidQuantity},
	{domain.ErrInvalidEmail, ErrInvalidEmail},
	{domain.ErrInvalidName, ErrInvalidName},
	{domain.ErrInvalidPrice, ErrInvalidPrice},
	{domain.ErrInvalidStock, ErrInvalidStock},
	{domain.ErrInvalidStatus, ErrInvalidStatus},
	{domain.ErrInvalidRequest, ErrInvalidRequest},

	{domain.ErrInsufficientStock, ErrInsufficientStock},
	{domain.ErrProductUnavailable, ErrProductUnavailable},
	{domain.ErrProductDiscontinued, ErrProductDiscontinued},
	{domain.ErrUserInactive, ErrUserInactive},
	{domain.ErrOrderTerminal, ErrOrderTerminal},
	{domain.ErrUserHasOpenOrders, ErrUserHasOpenOrders},
	{domain.ErrProductHasOpenOrders, ErrProductHasOpenOrders},
}

var kindErrors = map[domain.Kind]*AppError{
	domain.KindNotFound:         ErrResourceNotFound,
	domain.KindConflict:         ErrConflict,
	domain.KindValidationFailed: ErrValidationFailed,
	domain.KindBusinessRule:     ErrBusinessRule,
}

// RespondDomainError maps a service error onto the envelope. A reason attached
// with domain.WithReason is surfaced in details.
func RespondDomainError(w http.ResponseWriter, err error) {
	RespondAppError(w, appErrorFor(err), detailsFor(err))
}

func appErrorFor(err error) *AppError {
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			return m.appErr
		}
	}
	if appErr, ok := kindErrors[domain.KindOf(err)]; ok {
		return appErr
	}
	slog.Error("unhandled domain error", "error", err)
	return ErrInternalError
}

func detailsFor(err error) any {
	if reason, ok := domain.ReasonOf(err); ok {
		return reasonDetails{Reason: reason}
	}
	return nil
}
