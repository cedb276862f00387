package services

import (
	"errors"
	"fmt"

	"github.com/upb/recipe-hub/utils"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context.
// Message is safe to show to clients; Err is for logs only.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  map[string]string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError of the same type and message
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// Wrap returns a copy of e carrying cause. Sentinels stay untouched.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{Type: e.Type, Message: e.Message, Err: cause, Fields: e.Fields}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error carrying field-level messages
func NewValidationError(message string, fields map[string]string) *DomainError {
	if message == "" {
		message = "Validation failed"
	}
	return &DomainError{
		Type:    ErrorTypeValidation,
		Message: message,
		Fields:  fields,
	}
}

// NewForbiddenError creates a forbidden error with a client-visible reason
func NewForbiddenError(reason string) *DomainError {
	return NewDomainError(ErrorTypeForbidden, reason, nil)
}

// Domain error variables

var (
	// Not Found Errors
	ErrAccountNotFound = NewDomainError(ErrorTypeNotFound, "account not found", nil)
	ErrRecipeNotFound  = NewDomainError(ErrorTypeNotFound, "recipe not found", nil)

	// Validation Errors
	ErrInvalidInput     = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrUnsupportedImage = NewDomainError(ErrorTypeValidation, "unsupported image type", nil)
	ErrImageTooLarge    = NewDomainError(ErrorTypeValidation, "image exceeds maximum size", nil)
	ErrStorageDisabled  = NewDomainError(ErrorTypeValidation, "image uploads are not configured", nil)
	ErrCannotDeleteSelf = NewDomainError(ErrorTypeValidation, "administrators cannot delete their own account", nil)

	// Authorization Errors
	ErrUnauthorized       = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid credentials", nil)

	// Permission Errors
	ErrForbidden = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)

	// Conflict Errors
	ErrDuplicateEmail = NewDomainError(ErrorTypeConflict, "email already registered", nil)
	ErrDuplicatePhone = NewDomainError(ErrorTypeConflict, "phone already registered", nil)

	// Internal Errors
	ErrInternal          = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrTransactionFailed = NewDomainError(ErrorTypeInternal, "transaction failed", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the client-visible message of a domain error
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// GetErrorFields returns the field-level messages of a domain error, or nil
func GetErrorFields(err error) map[string]string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Fields
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// validate runs struct validation and converts failures into a validation DomainError
func validate(input interface{}) error {
	if err := utils.ValidateStruct(input); err != nil {
		if fields := utils.GetValidationFields(err); fields != nil {
			return NewValidationError("Validation failed", fields)
		}
		return NewDomainError(ErrorTypeValidation, "Validation failed", err)
	}
	return nil
}
