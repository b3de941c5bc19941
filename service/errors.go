package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Callers classify failures with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMatchFull           = errors.New("match is full")
	ErrConflict            = errors.New("conflict")
	ErrDependency          = errors.New("dependency unavailable")
)

// Error is a classified failure with a caller-facing message
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// storeError wraps a failed repository call. Classified failures keep their kind;
// anything else came from the database and is reported as ErrDependency.
func storeError(op string, err error) error {
	var svcErr *Error
	var balanceErr *InsufficientBalanceError
	if errors.As(err, &svcErr) || errors.As(err, &balanceErr) || errors.Is(err, ErrDependency) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return dependencyError(op, err)
}

// InsufficientBalanceError reports how much was needed and how much was available
type InsufficientBalanceError struct {
	Required decimal.Decimal
	Current  decimal.Decimal
}

// NewInsufficientBalanceError creates an InsufficientBalanceError
func NewInsufficientBalanceError(required, current decimal.Decimal) *InsufficientBalanceError {
	return &InsufficientBalanceError{Required: required, Current: current}
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: need %s, have %s", e.Required.StringFixed(2), e.Current.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// ErrorMessage returns the caller-facing message for err, hiding internal detail
func ErrorMessage(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	var balanceErr *InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		return "Insufficient balance"
	}
	switch {
	case errors.Is(err, ErrDependency):
		return "Service temporarily unavailable"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	}
	return "Internal server error"
}
