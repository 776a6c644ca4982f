package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of application error. It is also the
// error_code field of HTTP error responses.
type ErrorCode string

const (
	// General errors
	ErrCodeUnknown        ErrorCode = "UNKNOWN"
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"

	// Employee errors
	ErrCodeEmployeeNotFound ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodeDuplicateID      ErrorCode = "DUPLICATE_ID"
	ErrCodeIDMismatch       ErrorCode = "ID_MISMATCH"
	ErrCodeNoFields         ErrorCode = "NO_FIELDS"
	ErrCodeIDExhausted      ErrorCode = "ID_EXHAUSTED"

	// Storage errors
	ErrCodeMalformedFile ErrorCode = "MALFORMED_FILE"
	ErrCodeStorageFailed ErrorCode = "STORAGE_FAILED"
)

// AppError represents a structured error with code and context
type AppError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error code to an HTTP status code
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidRequest, ErrCodeDuplicateID, ErrCodeIDMismatch, ErrCodeNoFields:
		return http.StatusBadRequest
	case ErrCodeEmployeeNotFound:
		return http.StatusNotFound
	case ErrCodeIDExhausted:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	e.Details[key] = value
	return e
}

// Convenience constructors for common errors

func InvalidRequest(message string, cause error) *AppError {
	return NewAppError(ErrCodeInvalidRequest, message, cause)
}

func EmployeeNotFound(id int) *AppError {
	return NewAppError(ErrCodeEmployeeNotFound, "employee not found", nil).
		WithDetail("id", id)
}

func DuplicateID(id int) *AppError {
	return NewAppError(ErrCodeDuplicateID, fmt.Sprintf("ID %d already exists", id), nil).
		WithDetail("id", id)
}

func IDMismatch(pathID, payloadID int) *AppError {
	return NewAppError(ErrCodeIDMismatch, "ID in payload must match the ID in the path", nil).
		WithDetail("path_id", pathID).
		WithDetail("payload_id", payloadID)
}

func IDExhausted(cause error) *AppError {
	return NewAppError(ErrCodeIDExhausted, "no ID can be assigned; pass an explicit ID", cause)
}

func NoFields() *AppError {
	return NewAppError(ErrCodeNoFields, "no fields to update", nil)
}

func MalformedFile(path string, cause error) *AppError {
	return NewAppError(ErrCodeMalformedFile, fmt.Sprintf("malformed spreadsheet %s", path), cause).
		WithDetail("path", path)
}

func StorageFailed(message string, cause error) *AppError {
	return NewAppError(ErrCodeStorageFailed, message, cause)
}

func InternalError(message string, cause error) *AppError {
	return NewAppError(ErrCodeInternal, message, cause)
}

// IsAppError checks if an error is, or wraps, an AppError
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code
func Is(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}
