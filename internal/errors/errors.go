package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidInput        ErrorCode = "invalid_input"
	InvalidKind         ErrorCode = "invalid_kind"
	InvalidAmount       ErrorCode = "invalid_amount"
	TransactionNotFound ErrorCode = "transaction_not_found"
	StoreUnavailable    ErrorCode = "store_unavailable"
	InternalError       ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// HTTPStatus maps the error taxonomy to transport status codes.
// Validation failures are 422, malformed input 400, unknown ids 404,
// store connectivity 503, everything else 500.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidInput:
		return http.StatusBadRequest
	case InvalidKind, InvalidAmount:
		return http.StatusUnprocessableEntity
	case TransactionNotFound:
		return http.StatusNotFound
	case StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrTransactionNotFound = NewAppError(TransactionNotFound, "transaction not found")
	ErrInvalidKind         = NewAppError(InvalidKind, "kind must be 'debit' or 'credit'")
	ErrInvalidAmount       = NewAppError(InvalidAmount, "amount must be non-negative")
)
