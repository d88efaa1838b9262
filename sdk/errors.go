package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors returned by the SDK. These can be used with errors.Is()
// to check for specific error conditions.
//
// Example:
//
//	course, err := client.Courses.GetCourse(ctx, 7)
//	if errors.Is(err, sdk.ErrUnauthorized) {
//	    // Session was torn down, the navigator already sent the user to /login
//	} else if errors.Is(err, sdk.ErrNotFound) {
//	    // No such course
//	}
var (
	// ErrInvalidConfig is returned when the configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnauthorized is returned for 401 responses
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned for 403 responses
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a resource or record does not exist
	ErrNotFound = errors.New("not found")

	// ErrServerError is returned for 5xx server errors
	ErrServerError = errors.New("server error")

	// ErrFixtureNotFound is returned when a fixture document cannot be loaded
	ErrFixtureNotFound = errors.New("fixture not found")

	// ErrInvalidResponse is returned when a response or fixture cannot be parsed
	ErrInvalidResponse = errors.New("invalid response")

	// ErrUnsupportedMethod is returned for verbs other than GET, POST, PUT and DELETE
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrClientClosed is returned when the client has been closed
	ErrClientClosed = errors.New("client is closed")

	// ErrNoSession is returned by operations that need a logged-in user
	ErrNoSession = errors.New("no active session")
)

// ErrorType represents the type of error for categorization and handling.
type ErrorType int

const (
	// ErrorTypeUnknown represents an unknown or unclassified error
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork represents network-related errors (connection refused, DNS, etc.)
	ErrorTypeNetwork
	// ErrorTypeTimeout represents timeout errors (request timeout, context deadline)
	ErrorTypeTimeout
	// ErrorTypeServer represents server errors (5xx HTTP status codes)
	ErrorTypeServer
	// ErrorTypeClient represents client errors (4xx HTTP status codes other than 401/403)
	ErrorTypeClient
	// ErrorTypeUnauthorized represents 401 responses
	ErrorTypeUnauthorized
	// ErrorTypeForbidden represents 403 responses
	ErrorTypeForbidden
	// ErrorTypeValidation represents validation errors (invalid input, config, etc.)
	ErrorTypeValidation
	// ErrorTypeFixture represents fixture load or parse failures in mock mode
	ErrorTypeFixture
)

// String returns the string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeServer:
		return "server"
	case ErrorTypeClient:
		return "client"
	case ErrorTypeUnauthorized:
		return "unauthorized"
	case ErrorTypeForbidden:
		return "forbidden"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeFixture:
		return "fixture"
	default:
		return "unknown"
	}
}

// Error represents an enhanced error with additional context and metadata.
// It supports error wrapping via errors.Is() and errors.As().
//
// Example:
//
//	var sdkErr *sdk.Error
//	if errors.As(err, &sdkErr) {
//	    fmt.Printf("Error Type: %s\n", sdkErr.Type)
//	    if sdkErr.Context != nil {
//	        fmt.Printf("Failed URL: %s\n", sdkErr.Context.URL)
//	    }
//	}
type Error struct {
	// Type categorizes the error for handling decisions
	Type ErrorType `json:"type"`
	// Code is an optional error code from the server
	Code string `json:"code,omitempty"`
	// Message is a human-readable error description
	Message string `json:"message"`
	// Details contains additional error metadata
	Details map[string]interface{} `json:"details,omitempty"`
	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`
	// Timestamp is when the error occurred
	Timestamp time.Time `json:"timestamp"`
	// Context provides additional context about the failed operation
	Context *ErrorContext `json:"context,omitempty"`
	// wrapped is the underlying error, if any
	wrapped error
}

// ErrorContext provides additional context about the operation that failed.
type ErrorContext struct {
	// URL is the full URL of the failed request
	URL string `json:"url,omitempty"`
	// Method is the HTTP method used (GET, POST, PUT, DELETE)
	Method string `json:"method,omitempty"`
	// Endpoint is the logical endpoint that was dispatched
	Endpoint string `json:"endpoint,omitempty"`
	// Duration is how long the operation took before failing
	Duration time.Duration `json:"duration,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Context != nil && e.Context.URL != "" {
		return fmt.Sprintf("%s error: %s (%s %s)", e.Type, e.Message, e.Context.Method, e.Context.URL)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is implements errors.Is
func (e *Error) Is(target error) bool {
	switch e.Type {
	case ErrorTypeUnauthorized:
		return target == ErrUnauthorized
	case ErrorTypeForbidden:
		return target == ErrForbidden
	case ErrorTypeServer:
		return target == ErrServerError
	case ErrorTypeValidation:
		return target == ErrInvalidConfig && e.Code == "INVALID_CONFIG"
	}
	return false
}

// WithContext adds error context
func (e *Error) WithContext(ctx *ErrorContext) *Error {
	e.Context = ctx
	return e
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewError creates a new enhanced error
func NewError(errType ErrorType, message string, wrapped error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		wrapped:   wrapped,
	}
}

// NewErrorWithCode creates a new enhanced error with a code
func NewErrorWithCode(errType ErrorType, code, message string, wrapped error) *Error {
	err := NewError(errType, message, wrapped)
	err.Code = code
	return err
}

// APIError represents an error response from the course platform API.
// It contains the HTTP status code and error details from the server.
//
// Example:
//
//	var apiErr *sdk.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.IsNotFound() {
//	        // Handle 404
//	    } else if apiErr.StatusCode == http.StatusPaymentRequired {
//	        // Payment processor rejected the request, Message is verbatim
//	    }
//	}
type APIError struct {
	// StatusCode is the HTTP status code from the response
	StatusCode int `json:"-"`
	// Message is the error message from the server
	Message string `json:"error"`
	// Code is an optional error code for programmatic handling
	Code string `json:"code,omitempty"`
	// Details provides additional error information
	Details string `json:"details,omitempty"`
	// Body is the raw response body
	Body json.RawMessage `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("API error (status %d): %s - %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.Code == "NOT_FOUND"
}

// IsUnauthorized returns true for 401 responses
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden returns true for 403 responses
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsServerError returns true if the error is a server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsClientError returns true if the error is a client error
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ToError converts APIError to the enhanced Error type
func (e *APIError) ToError() *Error {
	errType := ErrorTypeClient
	switch {
	case e.IsUnauthorized():
		errType = ErrorTypeUnauthorized
	case e.IsForbidden():
		errType = ErrorTypeForbidden
	case e.IsServerError():
		errType = ErrorTypeServer
	case e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusGatewayTimeout:
		errType = ErrorTypeTimeout
	}

	err := NewErrorWithCode(errType, e.Code, e.Message, e)
	if e.Details != "" {
		err.WithDetail("api_details", e.Details)
	}
	err.WithDetail("status_code", e.StatusCode)
	return err
}

// parseAPIError builds an APIError from a non-2xx response body. Bodies that are
// not the {error, code, details} envelope keep the raw text as the message.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: body}
	if len(body) > 0 && json.Valid(body) {
		var envelope struct {
			Error   string `json:"error"`
			Message string `json:"message"`
			Code    string `json:"code"`
			Details string `json:"details"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil {
			apiErr.Message = envelope.Error
			if apiErr.Message == "" {
				apiErr.Message = envelope.Message
			}
			apiErr.Code = envelope.Code
			apiErr.Details = envelope.Details
		}
	} else if len(body) > 0 {
		apiErr.Message = string(body)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

// NetworkError represents a network-related error such as connection
// refused, DNS resolution failure, or connection timeout.
type NetworkError struct {
	// Op is the operation that failed (e.g., "GET /courses", "reading response")
	Op string
	// Err is the underlying network error
	Err error
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ToError converts NetworkError to the enhanced Error type
func (e *NetworkError) ToError() *Error {
	err := NewError(ErrorTypeNetwork, e.Error(), e)
	err.WithDetail("operation", e.Op)
	return err
}

// FixtureError is returned when a fixture document cannot be fetched or parsed.
type FixtureError struct {
	// Name is the fixture name (e.g. "courses")
	Name string
	// Err is the underlying loader error
	Err error
}

// Error implements the error interface
func (e *FixtureError) Error() string {
	return fmt.Sprintf("fixture %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error
func (e *FixtureError) Unwrap() error {
	return e.Err
}

// ToError converts FixtureError to the enhanced Error type
func (e *FixtureError) ToError() *Error {
	err := NewError(ErrorTypeFixture, e.Error(), e)
	err.WithDetail("fixture", e.Name)
	return err
}

// IsNotFound checks if the error represents a "not found" condition.
// This includes ErrNotFound, 404 status codes, and "NOT_FOUND" error codes.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsNotFound()
	}
	return false
}

// IsUnauthorized reports whether err came from a 401 response.
func IsUnauthorized(err error) bool {
	return err != nil && errors.Is(err, ErrUnauthorized)
}

// IsForbidden reports whether err came from a 403 response.
func IsForbidden(err error) bool {
	return err != nil && errors.Is(err, ErrForbidden)
}

// validationError creates a validation error for bad caller input.
func validationError(format string, args ...interface{}) *Error {
	return NewErrorWithCode(ErrorTypeValidation, "INVALID_REQUEST", fmt.Sprintf(format, args...), nil)
}
