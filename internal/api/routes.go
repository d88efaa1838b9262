package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/birb-academy/internal/telemetry"
)

// NewApp builds the fiber app with middleware and routes installed.
func NewApp(cfg *Config, handler *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Birb Academy API",
		ErrorHandler:          ErrorHandler,
		ReadTimeout:           time.Duration(cfg.RequestTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.RequestTimeout) * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})

	SetupMiddleware(app, cfg)
	SetupRoutes(app, handler)
	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, handler *Handler) {
	authed := RequireAuth(handler.tokens, handler.revocations)

	// Auth endpoints
	authGroup := app.Group("/auth")
	authGroup.Post("/login", handler.Login)
	authGroup.Post("/signup", handler.Signup)
	authGroup.Post("/forgot-password", handler.ForgotPassword)
	authGroup.Post("/logout", authed, handler.Logout)

	// User endpoints
	users := app.Group("/users", authed)
	users.Get("/profile", handler.GetProfile)
	users.Put("/profile", handler.UpdateProfile)
	users.Get("/activity", handler.GetActivity)

	// Catalog endpoints (public)
	app.Get("/courses", handler.ListCourses)
	app.Get("/courses/:id", handler.GetCourse)

	// Enrollment endpoints
	enrollments := app.Group("/enrollments", authed)
	enrollments.Get("/", handler.ListEnrollments)
	enrollments.Post("/", handler.Enroll)
	enrollments.Put("/:id/progress", handler.UpdateProgress)

	// Helpdesk endpoints
	conversations := app.Group("/conversations", authed)
	conversations.Get("/", handler.ListConversations)
	conversations.Post("/", handler.CreateConversation)
	conversations.Get("/:id", handler.GetConversation)
	conversations.Post("/:id/messages", handler.SendMessage)

	// Subscription and payment endpoints
	subscriptions := app.Group("/subscriptions", authed)
	subscriptions.Get("/me", handler.GetMySubscription)
	subscriptions.Post("/:id/cancel", handler.CancelSubscription)

	paymentsGroup := app.Group("/payments", authed)
	paymentsGroup.Post("/create-intent", handler.CreatePaymentIntent)
	paymentsGroup.Post("/create-subscription", handler.CreateSubscription)

	// Fixture documents for HTTP fixture loaders
	app.Get("/mock-data/:file", handler.MockData)

	// Health and metrics endpoints (no auth required)
	app.Get("/health", handler.Health)
	app.Get("/metrics", telemetry.PrometheusHandler())

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": serviceName,
			"version": serviceVersion,
			"status":  "running",
			"endpoints": fiber.Map{
				"auth":          "POST /auth/{login,signup,forgot-password,logout}",
				"profile":       "GET|PUT /users/profile",
				"activity":      "GET /users/activity",
				"courses":       "GET /courses, GET /courses/:id",
				"enrollments":   "GET|POST /enrollments, PUT /enrollments/:id/progress",
				"conversations": "GET|POST /conversations, GET /conversations/:id, POST /conversations/:id/messages",
				"subscriptions": "GET /subscriptions/me, POST /subscriptions/:id/cancel",
				"payments":      "POST /payments/{create-intent,create-subscription}",
				"fixtures":      "GET /mock-data/:name.json",
				"health":        "GET /health",
				"metrics":       "GET /metrics",
			},
		})
	})

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(
			NewErrorResponse("Endpoint not found", ErrCodeNotFound),
		)
	})
}
