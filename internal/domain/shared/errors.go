package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, ErrGate) matches any gate failure regardless of its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeGate         = "TIMER_GATE"
	CodeInvalidState = "INVALID_STATE"
	CodeExpired      = "TIMER_EXPIRED"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConflict            = NewDomainError(CodeConflict, "Resource conflicts with current state")
	ErrGate                = NewDomainError(CodeGate, "An active timer on this stage is required")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrExpired             = NewDomainError(CodeExpired, "Timer session expired")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewValidationError creates a VALIDATION_ERROR
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewConflictError creates a CONFLICT error
func NewConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeConflict, fmt.Sprintf(format, args...))
}

// NewGateError creates a TIMER_GATE error
func NewGateError(format string, args ...any) *DomainError {
	return NewDomainError(CodeGate, fmt.Sprintf(format, args...))
}

// NewStateError creates an INVALID_STATE error
func NewStateError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidState, fmt.Sprintf(format, args...))
}

// NewExpiredError creates a TIMER_EXPIRED error
func NewExpiredError(format string, args ...any) *DomainError {
	return NewDomainError(CodeExpired, fmt.Sprintf(format, args...))
}
