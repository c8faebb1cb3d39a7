package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")

	ErrDuplicateEmail          = errors.New("email already registered")
	ErrDuplicateSKU            = errors.New("sku already in use")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidPrice    = errors.New("price must be positive with at most two decimal places")
	ErrInvalidStock    = errors.New("stock quantity must not be negative")
	ErrInvalidStatus   = errors.New("invalid status")

	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrUserInactive         = errors.New("user not active")
	ErrProductUnavailable   = errors.New("product unavailable")
	ErrOrderTerminal        = errors.New("order already in terminal state")
	ErrUserHasOpenOrders    = errors.New("user has open orders")
	ErrProductHasOpenOrders = errors.New("product has open orders")
	ErrProductDiscontinued  = errors.New("product discontinued")
)

// Kind is the caller-facing classification of a failure, independent of transport.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindValidationFailed Kind = "validation_failed"
	KindBusinessRule     Kind = "business_rule_violation"
	KindStorageFailure   Kind = "storage_failure"
)

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindNotFound, []error{ErrNotFound, ErrUserNotFound, ErrProductNotFound, ErrOrderNotFound}},
	{KindConflict, []error{ErrDuplicateEmail, ErrDuplicateSKU, ErrInvalidTransition, ErrDuplicateIdempotencyKey}},
	{KindValidationFailed, []error{
		ErrInvalidRequest, ErrInvalidQuantity, ErrInvalidEmail, ErrInvalidName,
		ErrInvalidPrice, ErrInvalidStock, ErrInvalidStatus,
	}},
	{KindBusinessRule, []error{
		ErrInsufficientStock, ErrUserInactive, ErrProductUnavailable, ErrOrderTerminal,
		ErrUserHasOpenOrders, ErrProductHasOpenOrders, ErrProductDiscontinued,
	}},
}

// KindOf reports the Kind of err. Anything not recognised is a storage failure.
func KindOf(err error) Kind {
	for _, k := range kinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return k.kind
			}
		}
	}
	return KindStorageFailure
}

// ReasonError carries a human-readable reason alongside a sentinel.
type ReasonError struct {
	Err    error
	Reason string
}

func (e *ReasonError) Error() string { return e.Err.Error() + ": " + e.Reason }

func (e *ReasonError) Unwrap() error { return e.Err }

func WithReason(sentinel error, reason string) error {
	return &ReasonError{Err: sentinel, Reason: reason}
}

// ReasonOf returns the innermost reason attached with WithReason, if any.
func ReasonOf(err error) (string, bool) {
	var re *ReasonError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
