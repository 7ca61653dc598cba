package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the domain error taxonomy. Handlers and tests match on
// these rather than on message text.
const (
	CodeValidation        = "validation_error"
	CodeInvalidAmount     = "invalid_amount"
	CodeInvalidAmountRang = "invalid_amount_range"
	CodeInvalidDateFormat = "invalid_date_format"
	CodeInvalidDateRange  = "invalid_date_range"
	CodeInvalidCriterion  = "invalid_criterion"
	CodeInvalidPagination = "invalid_pagination"
	CodeNotFound          = "not_found"
	CodeQuoteService      = "quote_service_error"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeConflict          = "conflict"
)

// Error is a structured domain error carrying the HTTP status a handler
// should answer with. Services return these values; nothing is thrown past
// the service boundary.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrValidation reports a missing or empty required field, or a length-limit
// violation.
func ErrValidation(msg string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: msg}
}

func ErrInvalidAmount(msg string) *Error {
	return &Error{Code: CodeInvalidAmount, Status: http.StatusBadRequest, Message: msg}
}

func ErrInvalidAmountRange(msg string) *Error {
	return &Error{Code: CodeInvalidAmountRang, Status: http.StatusBadRequest, Message: msg}
}

func ErrInvalidDateFormat() *Error {
	return &Error{Code: CodeInvalidDateFormat, Status: http.StatusBadRequest, Message: "invalid date format, expected YYYY-MM-DD"}
}

func ErrInvalidDateRange() *Error {
	return &Error{Code: CodeInvalidDateRange, Status: http.StatusBadRequest, Message: "start date must be earlier than end date"}
}

func ErrInvalidCriterion(criterion string) *Error {
	return &Error{Code: CodeInvalidCriterion, Status: http.StatusBadRequest, Message: fmt.Sprintf("invalid value in 'criterion': %q", criterion)}
}

func ErrInvalidPagination() *Error {
	return &Error{Code: CodeInvalidPagination, Status: http.StatusBadRequest, Message: "pagination fields do not admit zero or negative values"}
}

func ErrNotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: fmt.Sprintf("%s not found", what)}
}

// ErrQuoteService reports an upstream quote-service failure. The upstream
// status and body are carried in the message; the request itself answers 400
// because the conversion parameters could not be honored.
func ErrQuoteService(status int, body string) *Error {
	return &Error{
		Code:    CodeQuoteService,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("quote service call failed: status=%d body=%s", status, body),
	}
}

func ErrUnauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: msg}
}

func ErrForbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: msg}
}

func ErrConflict(msg string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: msg}
}

// AsError extracts a structured *Error from an error chain, if present.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
