package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest      = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed    = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound    = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrConflict            = &AppError{http.StatusConflict, "CONFLICT", "Request conflicts with current state"}
	ErrBusinessRule        = &AppError{http.StatusUnprocessableEntity, "BUSINESS_RULE_VIOLATION", "Request violates a business rule"}
	ErrInternalError       = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}
	ErrIdempotencyConflict = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}

	ErrUserNotFound    = &AppError{http.StatusNotFound, "USER_NOT_FOUND", "User not found"}
	ErrProductNotFound = &AppError{http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found"}
	ErrOrderNotFound   = &AppError{http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found"}

	ErrDuplicateEmail    = &AppError{http.StatusConflict, "EMAIL_ALREADY_REGISTERED", "Email is already registered"}
	ErrDuplicateSKU      = &AppError{http.StatusConflict, "SKU_ALREADY_EXISTS", "SKU is already in use"}
	ErrInvalidTransition = &AppError{http.StatusConflict, "INVALID_STATUS_TRANSITION", "Order cannot move to the requested status"}

	ErrInvalidQuantity = &AppError{http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be a positive integer"}
	ErrInvalidEmail    = &AppError{http.StatusBadRequest, "INVALID_EMAIL", "Email address is invalid"}
	ErrInvalidName     = &AppError{http.StatusBadRequest, "INVALID_NAME", "Name is required"}
	ErrInvalidPrice    = &AppError{http.StatusBadRequest, "INVALID_PRICE", "Price must be positive with at most two decimal places"}
	ErrInvalidStock    = &AppError{http.StatusBadRequest, "INVALID_STOCK", "Stock quantity must not be negative"}
	ErrInvalidStatus   = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Status is not recognised"}

	ErrInsufficientStock    = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", "Insufficient stock"}
	ErrProductUnavailable   = &AppError{http.StatusUnprocessableEntity, "PRODUCT_UNAVAILABLE", "Product is not available"}
	ErrProductDiscontinued  = &AppError{http.StatusUnprocessableEntity, "PRODUCT_DISCONTINUED", "Product is discontinued"}
	ErrUserInactive         = &AppError{http.StatusUnprocessableEntity, "USER_INACTIVE", "User is not active"}
	ErrOrderTerminal        = &AppError{http.StatusUnprocessableEntity, "ORDER_TERMINAL", "Order is already delivered or cancelled"}
	ErrUserHasOpenOrders    = &AppError{http.StatusUnprocessableEntity, "USER_HAS_OPEN_ORDERS", "User has open orders"}
	ErrProductHasOpenOrders = &AppError{http.StatusUnprocessableEntity, "PRODUCT_HAS_OPEN_ORDERS", "Product has pending or confirmed orders"}
)
