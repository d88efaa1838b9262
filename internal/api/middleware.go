package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/birbparty/birb-academy/internal/auth"
	"github.com/birbparty/birb-academy/internal/cache"
	"github.com/birbparty/birb-academy/internal/telemetry"
)

const claimsKey = "claims"

// SetupMiddleware configures all middleware for the application. The error
// handler sits inside the logging and metrics middleware so they see the
// final status, and outside recover so panics render as JSON.
func SetupMiddleware(app *fiber.App, cfg *Config) {
	app.Use(requestid.New())

	app.Use(telemetry.FiberMetricsMiddleware())

	if cfg.LogFormat == "text" {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path} ${error}\n",
			TimeFormat: "2006-01-02 15:04:05",
			TimeZone:   "UTC",
			Output:     telemetry.L().Writer(),
		}))
	} else {
		app.Use(telemetry.FiberLoggingMiddleware())
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Use(errorHandler())

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(timingMiddleware())
}

// errorHandler renders handler errors as ErrorResponse JSON
func errorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		resp, status := renderError(err)
		if status >= fiber.StatusInternalServerError {
			telemetry.WithContext(c.UserContext()).WithError(err).WithFields(map[string]interface{}{
				"path":   c.Path(),
				"method": c.Method(),
			}).Error("Request error")
		}
		return c.Status(status).JSON(resp)
	}
}

// ErrorHandler is the fiber.Config ErrorHandler for errors raised outside
// the middleware chain.
func ErrorHandler(c *fiber.Ctx, err error) error {
	resp, status := renderError(err)
	return c.Status(status).JSON(resp)
}

func renderError(err error) (*ErrorResponse, int) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Status >= fiber.StatusInternalServerError {
			return NewErrorResponse(apiErr.Message, apiErr.Code), apiErr.Status
		}
		return NewErrorResponseWithDetails(apiErr.Message, apiErr.Code, apiErr.Details), apiErr.Status
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := ErrCodeInternalError
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = ErrCodeNotFound
		case fe.Code == fiber.StatusUnauthorized:
			code = ErrCodeUnauthorized
		case fe.Code == fiber.StatusForbidden:
			code = ErrCodeForbidden
		case fe.Code < fiber.StatusInternalServerError:
			code = ErrCodeInvalidRequest
		}
		return NewErrorResponse(fe.Message, code), fe.Code
	}

	return NewErrorResponse("Internal Server Error", ErrCodeInternalError), fiber.StatusInternalServerError
}

// timingMiddleware adds request timing headers
func timingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		c.Set("X-Response-Time", fmt.Sprintf("%d ms", time.Since(start).Milliseconds()))
		return err
	}
}

// RequireAuth validates the bearer token and rejects revoked tokens. The
// verified claims are stored in the request locals.
func RequireAuth(tokens *auth.TokenManager, revocations cache.RevocationList) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			RecordTokenRejection("missing")
			return unauthorized("Missing bearer token")
		}

		claims, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				RecordTokenRejection("expired")
				return unauthorized("Token has expired")
			}
			RecordTokenRejection("invalid")
			return unauthorized("Invalid token")
		}

		revoked, err := revocations.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			return internal("Failed to check token", err)
		}
		if revoked {
			RecordTokenRejection("revoked")
			return unauthorized("Token has been revoked")
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// currentClaims returns the claims stored by RequireAuth.
func currentClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsKey).(*auth.Claims)
	return claims
}
