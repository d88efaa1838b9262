package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/birb-academy/internal/auth"
	"github.com/birbparty/birb-academy/internal/cache"
	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/payments"
	"github.com/birbparty/birb-academy/internal/queue"
	"github.com/birbparty/birb-academy/internal/telemetry"
	"github.com/birbparty/birb-academy/sdk"
)

const (
	serviceName    = "birb-academy-api"
	serviceVersion = "1.0.0"
)

// Deps are the collaborators a Handler needs.
type Deps struct {
	Store       database.Store
	Tokens      *auth.TokenManager
	Revocations cache.RevocationList
	Events      queue.Publisher
	Payments    payments.Processor
	Fixtures    sdk.FixtureLoader
	Catalog     *Catalog
	Activity    database.ActivityLog
}

// Handler holds all dependencies for API handlers
type Handler struct {
	store       database.Store
	tokens      *auth.TokenManager
	revocations cache.RevocationList
	events      queue.Publisher
	payments    payments.Processor
	fixtures    sdk.FixtureLoader
	catalog     *Catalog
	activity    database.ActivityLog
	startTime   time.Time
}

// NewHandler creates a new handler instance. Events, Payments and Activity
// default to a noop publisher, the development processor and an empty
// in-memory log.
func NewHandler(deps Deps) (*Handler, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("handler requires a store")
	case deps.Tokens == nil:
		return nil, fmt.Errorf("handler requires a token manager")
	case deps.Revocations == nil:
		return nil, fmt.Errorf("handler requires a revocation list")
	case deps.Fixtures == nil:
		return nil, fmt.Errorf("handler requires a fixture loader")
	case deps.Catalog == nil:
		return nil, fmt.Errorf("handler requires a course catalog")
	}

	if deps.Events == nil {
		deps.Events = queue.NoopPublisher{}
	}
	if deps.Payments == nil {
		deps.Payments = payments.NewDevProcessor()
	}
	if deps.Activity == nil {
		deps.Activity = database.NewMemoryActivityLog()
	}

	return &Handler{
		store:       deps.Store,
		tokens:      deps.Tokens,
		revocations: deps.Revocations,
		events:      deps.Events,
		payments:    deps.Payments,
		fixtures:    deps.Fixtures,
		catalog:     deps.Catalog,
		activity:    deps.Activity,
		startTime:   time.Now(),
	}, nil
}

// publish sends a domain event. Failures are logged and never fail the request.
func (h *Handler) publish(ctx context.Context, ev queue.Event) {
	if err := h.events.Publish(ctx, ev); err != nil {
		RecordEventPublished(ev.Subject(), "error")
		telemetry.WithContext(ctx).WithError(err).WithField("subject", ev.Subject()).Warn("Failed to publish event")
		return
	}
	RecordEventPublished(ev.Subject(), "success")
}

// idParam parses a positive integer path parameter.
func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}

// Health handles GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()

	checks := make(map[string]string)
	check := func(name string, err error) {
		if err != nil {
			checks[name] = "unhealthy: " + err.Error()
		} else {
			checks[name] = "healthy"
		}
	}

	check("store", h.store.Health(ctx))
	check("revocations", h.revocations.Ping(ctx))
	check("events", h.events.Health())

	status := "healthy"
	for _, result := range checks {
		if result != "healthy" {
			status = "unhealthy"
			break
		}
	}
	UpdateHealthMetric(status == "healthy")

	statusCode := fiber.StatusOK
	if status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(&HealthResponse{
		Status:  status,
		Service: serviceName,
		Version: serviceVersion,
		Uptime:  time.Since(h.startTime).String(),
		Checks:  checks,
	})
}

// MockData handles GET /mock-data/:file and serves fixture documents to
// clients that load fixtures over HTTP.
func (h *Handler) MockData(c *fiber.Ctx) error {
	name, ok := strings.CutSuffix(c.Params("file"), ".json")
	if !ok || name == "" {
		return notFound("Fixture not found")
	}

	data, err := h.fixtures.Load(c.UserContext(), name)
	if err != nil {
		if errors.Is(err, sdk.ErrFixtureNotFound) {
			return notFound("Fixture not found")
		}
		return internal("Failed to load fixture", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.Send(data)
}
