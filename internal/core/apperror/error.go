// Package apperror provides structured error handling for the terminal core.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeIncompleteDraft   = "INCOMPLETE_DRAFT"
	CodeInvalidPercentage = "INVALID_PERCENTAGE"
	CodeMissingScope      = "MISSING_SCOPE_FILTER"

	// Business rule violations (422)
	CodeInsufficientStock = "INSUFFICIENT_STOCK"

	// Not found (404)
	CodeItemNotFound   = "ITEM_NOT_FOUND"
	CodeFormatNotFound = "FORMAT_NOT_FOUND"
	CodeNotFound       = "NOT_FOUND"

	// Remote catalog/sales service rejections (502)
	CodeRemoteRequest = "REMOTE_REQUEST_FAILED"
)

// AppError is the standard error type for the terminal.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewItemNotFound is returned when an item id has no match in the catalog snapshot.
func NewItemNotFound(itemID any) *AppError {
	return &AppError{
		Code:       CodeItemNotFound,
		Message:    "item not found in catalog",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"item_id": itemID},
	}
}

// NewFormatNotFound is returned when a pack format id does not belong to the item.
func NewFormatNotFound(itemID, formatID any) *AppError {
	return &AppError{
		Code:       CodeFormatNotFound,
		Message:    "sale format not found for item",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"item_id": itemID, "format_id": formatID},
	}
}

// NewInsufficientStock creates a stock shortage error.
// The item display name is part of the message so the operator sees which
// product ran out, matching the terminal's toast behavior.
func NewInsufficientStock(itemName string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    fmt.Sprintf("insufficient stock for %s", itemName),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"item":      itemName,
			"requested": requested,
			"available": available,
		},
	}
}

// NewIncompleteDraft is returned when a draft replenishment line is missing a
// required field. The field name is always included.
func NewIncompleteDraft(field string) *AppError {
	return &AppError{
		Code:       CodeIncompleteDraft,
		Message:    fmt.Sprintf("draft line is missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field},
	}
}

// NewInvalidPercentage is returned when a bulk mutation percentage does not
// parse as a finite number.
func NewInvalidPercentage(raw string) *AppError {
	return &AppError{
		Code:       CodeInvalidPercentage,
		Message:    "percentage must be a finite number",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"percentage": raw},
	}
}

// NewMissingScopeFilter is returned when a scoped bulk mutation lacks its
// brand or category filter.
func NewMissingScopeFilter(scope string) *AppError {
	return &AppError{
		Code:       CodeMissingScope,
		Message:    fmt.Sprintf("scope %q requires a filter value", scope),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"scope": scope},
	}
}

// NewRemoteRequest wraps a rejection from the remote catalog/sales service.
// The detail message is surfaced verbatim.
func NewRemoteRequest(detail string) *AppError {
	return &AppError{
		Code:       CodeRemoteRequest,
		Message:    detail,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewNotFound creates a generic not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode checks whether err carries the given machine code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsInsufficientStock checks if error is CodeInsufficientStock
func IsInsufficientStock(err error) bool {
	return HasCode(err, CodeInsufficientStock)
}
