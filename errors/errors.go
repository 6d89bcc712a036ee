// Package errors provides custom error types for the cart client.
package errors

import (
	"errors"
	"fmt"
)

// Code represents the classified type of a cart failure.
type Code string

const (
	// CodeNotAuthenticated means the operation was attempted without a credential.
	CodeNotAuthenticated Code = "NOT_AUTHENTICATED"

	// CodeSessionExpired means the credential was rejected mid-operation (HTTP 401).
	CodeSessionExpired Code = "SESSION_EXPIRED"

	// CodeForbidden means the credential was valid but the operation was not permitted (HTTP 403).
	CodeForbidden Code = "FORBIDDEN"

	// CodeNetworkFailure means the request could not complete (timeout, offline, DNS).
	CodeNetworkFailure Code = "NETWORK_FAILURE"

	// CodeServerError means any other non-2xx status or a malformed response body.
	CodeServerError Code = "SERVER_ERROR"

	// CodeCacheCorrupt means a stored snapshot could not be parsed.
	CodeCacheCorrupt Code = "CACHE_CORRUPT"

	// CodeStorageFailure means the durable cache could not be read or written.
	CodeStorageFailure Code = "STORAGE_FAILURE"

	// CodeValidationFailure means the caller supplied invalid input.
	CodeValidationFailure Code = "VALIDATION_FAILURE"
)

// Operation represents the type of cart operation during which an error occurred.
type Operation string

const (
	OpFetch       Operation = "fetch"
	OpCount       Operation = "count"
	OpAdd         Operation = "add"
	OpRemove      Operation = "remove"
	OpSetQuantity Operation = "set_quantity"
	OpClear       Operation = "clear"
	OpRefresh     Operation = "refresh"
	OpCacheRead   Operation = "cache_read"
	OpCacheWrite  Operation = "cache_write"
	OpCacheClear  Operation = "cache_clear"
	OpClose       Operation = "close"
)

// CartError represents a classified error from a cart operation.
type CartError struct {
	// Operation during which the error occurred
	Op Operation

	// Component that generated the error (e.g., "gateway", "cache", "engine")
	Component string

	// Error code for the failure class
	Code Code

	// Underlying error
	Err error

	// Whether the operation can be retried
	Retryable bool

	// Metadata for additional context
	Metadata map[string]interface{}
}

func (e *CartError) Error() string {
	var msg string
	if e.Component != "" {
		msg = fmt.Sprintf("%s operation failed in %s component", e.Op, e.Component)
	} else {
		msg = fmt.Sprintf("%s operation failed", e.Op)
	}

	if e.Code != "" {
		msg += fmt.Sprintf(" [%s]", e.Code)
	}

	if e.Err != nil {
		return msg + fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *CartError) Unwrap() error {
	return e.Err
}

// New creates a new CartError.
func New(op Operation, err error) *CartError {
	return &CartError{
		Op:  op,
		Err: err,
	}
}

// NewWithComponent creates a new CartError with component information.
func NewWithComponent(op Operation, component string, err error) *CartError {
	return &CartError{
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// NewNotAuthenticated creates the precondition error for anonymous mutation attempts.
func NewNotAuthenticated(op Operation) *CartError {
	return &CartError{
		Code:      CodeNotAuthenticated,
		Op:        op,
		Component: "engine",
		Err:       errors.New("no credential available"),
		Retryable: false,
	}
}

// NewSessionExpired creates the error for a credential rejected mid-operation.
func NewSessionExpired(op Operation, cause error) *CartError {
	return &CartError{
		Code:      CodeSessionExpired,
		Op:        op,
		Component: "gateway",
		Err:       cause,
		Retryable: false,
	}
}

// NewForbidden creates the error for a valid credential denied an operation.
func NewForbidden(op Operation, cause error) *CartError {
	return &CartError{
		Code:      CodeForbidden,
		Op:        op,
		Component: "gateway",
		Err:       cause,
		Retryable: false,
	}
}

// NewNetworkError creates a transport-level CartError. Network failures are retryable.
func NewNetworkError(op Operation, cause error) *CartError {
	return &CartError{
		Code:      CodeNetworkFailure,
		Op:        op,
		Component: "gateway",
		Err:       cause,
		Retryable: true,
	}
}

// NewServerError creates the error for an unexpected status or malformed body.
func NewServerError(op Operation, cause error) *CartError {
	return &CartError{
		Code:      CodeServerError,
		Op:        op,
		Component: "gateway",
		Err:       cause,
		Retryable: true,
	}
}

// NewCacheCorrupt creates the error for an unparsable stored snapshot.
func NewCacheCorrupt(op Operation, cause error) *CartError {
	return &CartError{
		Code:      CodeCacheCorrupt,
		Op:        op,
		Component: "cache",
		Err:       cause,
		Retryable: false,
	}
}

// NewStorageError creates a cache I/O CartError.
func NewStorageError(op Operation, cause error) *CartError {
	return &CartError{
		Code:      CodeStorageFailure,
		Op:        op,
		Component: "cache",
		Err:       cause,
		Retryable: true,
	}
}

// NewValidationError creates the error for invalid caller input.
func NewValidationError(op Operation, cause error) *CartError {
	return &CartError{
		Code:      CodeValidationFailure,
		Op:        op,
		Err:       cause,
		Retryable: false,
	}
}

// IsRetryable checks if an error is a retryable CartError.
func IsRetryable(err error) bool {
	var cartErr *CartError
	if errors.As(err, &cartErr) {
		return cartErr.Retryable
	}
	return false
}

// CodeOf extracts the Code from an error, or "" if it is not a CartError.
func CodeOf(err error) Code {
	var cartErr *CartError
	if errors.As(err, &cartErr) {
		return cartErr.Code
	}
	return ""
}

// IsAuthFailure reports whether the error stems from a missing or rejected credential.
func IsAuthFailure(err error) bool {
	switch CodeOf(err) {
	case CodeNotAuthenticated, CodeSessionExpired, CodeForbidden:
		return true
	}
	return false
}
