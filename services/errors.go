package services

import (
	"errors"
	"fmt"

	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context.
// Code optionally narrows the Type so callers can tell apart errors that map
// to the same HTTP status (e.g. an expired token and a deleted user).
type DomainError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
	Details map[string]interface{}
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

// Is matches on Type, and also on Code when the target carries one
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Type != t.Type {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Wrap returns a copy of e carrying cause. Sentinels stay untouched.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Err:     cause,
		Details: make(map[string]interface{}),
	}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

func newCodedError(errType ErrorType, code, message string) *DomainError {
	e := NewDomainError(errType, message, nil)
	e.Code = code
	return e
}

// Domain error variables

var (
	// Authentication errors. All surface as 401 except ErrServerMisconfigured.
	ErrUnauthenticated     = newCodedError(ErrorTypeUnauthorized, "unauthenticated", "authentication required")
	ErrInvalidToken        = newCodedError(ErrorTypeUnauthorized, "invalid_token", "invalid or expired token")
	ErrUserNotFound        = newCodedError(ErrorTypeUnauthorized, "user_not_found", "user no longer exists")
	ErrInvalidCredentials  = newCodedError(ErrorTypeUnauthorized, "invalid_credentials", "invalid email or password")
	ErrServerMisconfigured = newCodedError(ErrorTypeInternal, "server_misconfigured", "authentication is not configured")

	// Permission Errors
	ErrForbidden = newCodedError(ErrorTypeForbidden, "forbidden", "admin access required")

	// Not Found Errors
	ErrAccountNotFound     = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrPatientNotFound     = NewDomainError(ErrorTypeNotFound, "patient not found", nil)
	ErrDoctorNotFound      = NewDomainError(ErrorTypeNotFound, "doctor not found", nil)
	ErrAppointmentNotFound = NewDomainError(ErrorTypeNotFound, "appointment not found", nil)
	ErrApplicationNotFound = NewDomainError(ErrorTypeNotFound, "application not found", nil)
	ErrSettingNotFound     = NewDomainError(ErrorTypeNotFound, "setting not found", nil)

	// Validation Errors
	ErrInvalidInput      = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidRole       = NewDomainError(ErrorTypeValidation, "invalid role", nil)
	ErrInvalidStatus     = NewDomainError(ErrorTypeValidation, "invalid status", nil)
	ErrInvalidResetToken = NewDomainError(ErrorTypeValidation, "reset token is invalid or has expired", nil)
	ErrSelfDemotion      = NewDomainError(ErrorTypeValidation, "admins cannot remove their own admin role", nil)
	ErrSelfDeletion      = NewDomainError(ErrorTypeValidation, "admins cannot delete their own account", nil)

	// Rate Limit Errors
	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "rate limit exceeded", nil)

	// Conflict Errors
	ErrDuplicateEmail = NewDomainError(ErrorTypeConflict, "email already exists", nil)

	// Internal Errors
	ErrInternal          = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError     = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrTransactionFailed = NewDomainError(ErrorTypeInternal, "transaction failed", nil)

	// External Provider Errors
	ErrProviderUnavailable = NewDomainError(ErrorTypeExternal, "notification provider unavailable", nil)
)

// Error type checking helper functions

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return hasType(err, ErrorTypeValidation) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return hasType(err, ErrorTypeUnauthorized) }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return hasType(err, ErrorTypeForbidden) }

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool { return hasType(err, ErrorTypeRateLimit) }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return hasType(err, ErrorTypeConflict) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return hasType(err, ErrorTypeInternal) }

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool { return hasType(err, ErrorTypeExternal) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorCode returns the Code of a domain error, or empty string
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// GetErrorMessage returns the public message of a domain error, or empty string
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external provider error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// ValidationFailed turns a request validation error into a validation DomainError.
// Per-field messages from utils.ValidateStruct become Details.
func ValidationFailed(err error) error {
	if err == nil {
		return nil
	}
	domainErr := NewDomainError(ErrorTypeValidation, err.Error(), err)
	for field, msg := range utils.GetValidationFields(err) {
		domainErr.WithDetail(field, msg)
	}
	return domainErr
}

// FromRepository translates repository sentinels. ErrNotFound becomes notFound
// (when given) and anything else is a database error.
func FromRepository(err error, notFound *DomainError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound) && notFound != nil:
		return notFound.Wrap(err)
	default:
		return ErrDatabaseError.Wrap(err)
	}
}
