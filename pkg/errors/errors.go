package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeScopeResolution   = "SCOPE_RESOLUTION_ERROR"
	CodeSubscription      = "SUBSCRIPTION_ERROR"
	CodeChunkFetch        = "CHUNK_FETCH_ERROR"
	CodeMalformedDocument = "MALFORMED_DOCUMENT"
	CodeWriteFailed       = "WRITE_FAILED"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// Read-path errors. These are logged and absorbed by the sync layer, the
// status only matters if one ever reaches a transport.

func ScopeResolution(userID string, err error) *AppError {
	return &AppError{
		Code:    CodeScopeResolution,
		Message: fmt.Sprintf("could not resolve scope for user %s", userID),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Subscription(collection string, err error) *AppError {
	return &AppError{
		Code:    CodeSubscription,
		Message: fmt.Sprintf("subscription on %s failed", collection),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func ChunkFetch(collection string, chunk int, err error) *AppError {
	return &AppError{
		Code:    CodeChunkFetch,
		Message: fmt.Sprintf("chunk %d of %s failed", chunk, collection),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func MalformedDocument(collection, id, reason string) *AppError {
	return &AppError{
		Code:    CodeMalformedDocument,
		Message: fmt.Sprintf("%s/%s: %s", collection, id, reason),
		Status:  http.StatusUnprocessableEntity,
	}
}

// WriteFailed wraps a store write that did not take effect.
func WriteFailed(op, collection string, err error) *AppError {
	return &AppError{
		Code:    CodeWriteFailed,
		Message: fmt.Sprintf("%s on %s did not take effect", op, collection),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As is errors.As, re-exported so callers importing this package under the
// name errors keep access to it.
func As(err error, target any) bool {
	return errors.As(err, target)
}

func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
