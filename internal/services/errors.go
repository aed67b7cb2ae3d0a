// Package services provides the business logic layer between handlers and the
// detection engine: request validation, synchronous searches and sweep jobs.
package services

import "fmt"

// Error codes returned to API clients
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeJobNotFound    = "JOB_NOT_FOUND"
	CodeJobNotReady    = "JOB_NOT_READY"
	CodeTooLarge       = "TOO_LARGE"
	CodeInternal       = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func invalid(format string, args ...interface{}) *ServiceError {
	return NewServiceError(CodeInvalidRequest, fmt.Sprintf(format, args...))
}
