// Package core provides shared types and error handling for the chat service.
package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeValidation indicates malformed caller input (400)
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypeNotFound indicates a referenced record is absent (404)
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeUnsupportedModel indicates an unknown model identifier (400)
	ErrorTypeUnsupportedModel ErrorType = "unsupported_model"
	// ErrorTypeProviderUnavailable indicates the provider kind has no
	// configured client, usually a missing credential at startup (503)
	ErrorTypeProviderUnavailable ErrorType = "provider_unavailable"
	// ErrorTypeProvider indicates the upstream provider call failed (502)
	ErrorTypeProvider ErrorType = "provider_error"
)

// ServiceError is the base error type for all service errors
type ServiceError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Provider   string    `json:"provider,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *ServiceError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeUnsupportedModel:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeProviderUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *ServiceError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewUnsupportedModelError creates an error for an unrecognized model identifier
func NewUnsupportedModelError(model string) *ServiceError {
	return &ServiceError{
		Type:       ErrorTypeUnsupportedModel,
		Message:    "unsupported model: " + model,
		StatusCode: http.StatusBadRequest,
	}
}

// NewProviderUnavailableError creates an error for a provider kind that has
// no configured client
func NewProviderUnavailableError(provider string) *ServiceError {
	return &ServiceError{
		Type:       ErrorTypeProviderUnavailable,
		Message:    provider + " API key not configured",
		StatusCode: http.StatusServiceUnavailable,
		Provider:   provider,
	}
}

// NewProviderError creates a new provider error (upstream failure)
func NewProviderError(provider string, message string, err error) *ServiceError {
	return &ServiceError{
		Type:       ErrorTypeProvider,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Provider:   provider,
		Err:        err,
	}
}

// IsErrorType reports whether err is a ServiceError of the given type
func IsErrorType(err error, t ErrorType) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Type == t
}
