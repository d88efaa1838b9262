// Package telemetry wires logging, Prometheus metrics and OpenTelemetry
// tracing for the academy backend.
package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Init initializes all telemetry components
func Init(cfg *Config) error {
	if err := InitLogger(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := InitMetrics(cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := InitTracing(cfg); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	L().WithFields(logrus.Fields{
		"service":      cfg.ServiceName,
		"version":      cfg.ServiceVersion,
		"environment":  cfg.Environment,
		"exportToFile": cfg.ExportToFile,
		"tracing":      cfg.EnableTracing,
		"metrics":      cfg.EnableMetrics,
	}).Info("Telemetry initialized")

	return nil
}

// Shutdown gracefully shuts down all telemetry components
func Shutdown(ctx context.Context) error {
	if err := CloseTracing(ctx); err != nil {
		L().WithError(err).Error("Failed to close tracing")
	}

	if err := CloseMetrics(ctx); err != nil {
		L().WithError(err).Error("Failed to close metrics")
	}

	if err := CloseLogger(); err != nil {
		L().WithError(err).Error("Failed to close logger")
	}

	return nil
}

// PrometheusHandler serves the default Prometheus registry on a fiber route
func PrometheusHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// routeOf returns the matched route template so path ids do not explode
// label cardinality.
func routeOf(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}

// FiberMetricsMiddleware returns a Fiber middleware for recording HTTP metrics
// and a server span per request.
func FiberMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		ctx, span := StartSpan(c.UserContext(), c.Method()+" "+c.Path())
		defer span.End()
		c.SetUserContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		RecordHTTPRequest(c.Method(), routeOf(c), strconv.Itoa(status), time.Since(start))

		span.SetAttributes(
			semconv.HTTPMethodKey.String(c.Method()),
			semconv.HTTPTargetKey.String(c.Path()),
			semconv.HTTPRouteKey.String(routeOf(c)),
			semconv.HTTPStatusCodeKey.Int(status),
		)

		switch {
		case err != nil:
			RecordError(ctx, err)
			SetErrorStatus(ctx, err.Error())
		case status >= 500:
			SetErrorStatus(ctx, fmt.Sprintf("HTTP %d", status))
		default:
			SetOKStatus(ctx)
		}

		return err
	}
}

// FiberLoggingMiddleware returns a Fiber middleware for structured logging
func FiberLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		entry := WithContext(c.UserContext()).WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.IP(),
			"user_agent": c.Get(fiber.HeaderUserAgent),
		})
		if rid, ok := c.Locals("requestid").(string); ok {
			entry = entry.WithField("request_id", rid)
		}

		switch {
		case err != nil:
			entry.WithError(err).Error("Request failed")
		case c.Response().StatusCode() >= 500:
			entry.Error("Request completed with server error")
		case c.Response().StatusCode() >= 400:
			entry.Warn("Request completed with error status")
		default:
			entry.Info("Request completed")
		}

		return err
	}
}

// TimeOperation starts a span for operation and returns a func that ends it,
// recording the duration under status.
func TimeOperation(ctx context.Context, operation string) (context.Context, func(status string)) {
	start := time.Now()
	ctx, span := StartSpan(ctx, operation)

	return ctx, func(status string) {
		duration := time.Since(start)
		RecordOperation(operation, status, duration)

		if status == "error" {
			SetErrorStatus(ctx, "Operation failed")
		} else {
			SetOKStatus(ctx)
		}
		span.End()

		WithContext(ctx).WithFields(logrus.Fields{
			"operation": operation,
			"status":    status,
			"duration":  time.Since(start).Milliseconds(),
		}).Debug("Operation completed")
	}
}
