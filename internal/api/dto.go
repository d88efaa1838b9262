package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/birb-academy/internal/database"
)

// LoginRequest accepts a username or an email address in Username.
type LoginRequest struct {
	Username string `json:"username" validate:"notblank,max=254"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest represents the request body for /auth/signup
type SignupRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"max=64"`
	LastName  string `json:"lastName" validate:"max=64"`
}

// ForgotPasswordRequest represents the request body for /auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ProfileUpdateRequest is a partial update; absent fields are kept.
type ProfileUpdateRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,max=64"`
	LastName  *string `json:"lastName" validate:"omitempty,max=64"`
	Avatar    *string `json:"avatar" validate:"omitempty,max=512"`
	Bio       *string `json:"bio" validate:"omitempty,max=2000"`
}

// EnrollRequest represents the request body for POST /enrollments
type EnrollRequest struct {
	CourseID int64 `json:"courseId" validate:"required,gt=0"`
}

// ProgressRequest represents the request body for PUT /enrollments/:id/progress
type ProgressRequest struct {
	Progress int    `json:"progress" validate:"min=0,max=100"`
	ModuleID string `json:"moduleId" validate:"max=64"`
	LessonID string `json:"lessonId" validate:"max=64"`
}

// CreateConversationRequest represents the request body for POST /conversations
type CreateConversationRequest struct {
	InstructorID int64  `json:"instructorId" validate:"required,gt=0"`
	CourseID     int64  `json:"courseId" validate:"min=0"`
	Subject      string `json:"subject" validate:"notblank,max=200"`
	Message      string `json:"message" validate:"notblank,max=5000"`
}

// SendMessageRequest represents the request body for POST /conversations/:id/messages
type SendMessageRequest struct {
	Content string `json:"content" validate:"notblank,max=5000"`
}

// PaymentIntentRequest represents the request body for /payments/create-intent.
// Amounts are checked by the processor so its message reaches the user.
type PaymentIntentRequest struct {
	CourseID int64   `json:"courseId" validate:"min=0"`
	Amount   float64 `json:"amount"`
	PlanType string  `json:"planType" validate:"required"`
}

// CreateSubscriptionRequest represents the request body for /payments/create-subscription
type CreateSubscriptionRequest struct {
	CourseID        int64  `json:"courseId" validate:"min=0"`
	PlanType        string `json:"planType" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId"`
	CustomerID      string `json:"customerId"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}

// Error codes
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodePaymentFailed  = "PAYMENT_FAILED"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// NewErrorResponse creates a new error response
func NewErrorResponse(err string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: err,
		Code:  code,
	}
}

// NewErrorResponseWithDetails creates a new error response with details
func NewErrorResponseWithDetails(err string, code string, details string) *ErrorResponse {
	return &ErrorResponse{
		Error:   err,
		Code:    code,
		Details: details,
	}
}

// Error is returned by handlers and rendered by the error middleware.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func badRequest(message string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Code: ErrCodeInvalidRequest, Message: message}
}

func unauthorized(message string) *Error {
	return &Error{Status: fiber.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: message}
}

func forbidden(message string) *Error {
	return &Error{Status: fiber.StatusForbidden, Code: ErrCodeForbidden, Message: message}
}

func notFound(message string) *Error {
	return &Error{Status: fiber.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

func conflict(message string) *Error {
	return &Error{Status: fiber.StatusConflict, Code: ErrCodeConflict, Message: message}
}

func paymentFailed(message string) *Error {
	return &Error{Status: fiber.StatusPaymentRequired, Code: ErrCodePaymentFailed, Message: message}
}

func internal(message string, err error) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Code: ErrCodeInternalError, Message: message, Err: err}
}

// storeError maps store sentinels onto HTTP errors. what names the record
// for the not-found message.
func storeError(err error, what string) *Error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return notFound(what + " not found")
	case errors.Is(err, database.ErrConflict):
		return conflict(what + " already exists")
	default:
		return internal("Failed to access "+strings.ToLower(what), err)
	}
}
