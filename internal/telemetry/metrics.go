package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

var (
	metricsOnce   sync.Once
	meterProvider *sdkmetric.MeterProvider

	// API metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "academy_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "academy_operation_duration_seconds",
		Help:    "Duration of backend operations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	// System metrics
	serviceUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "academy_service_up",
		Help: "Whether the service is up (1) or down (0)",
	})

	databaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "academy_database_connections_active",
		Help: "Number of acquired database connections",
	})
)

// InitMetrics marks the service up and, when enabled, installs the OTLP
// meter provider.
func InitMetrics(cfg *Config) error {
	var err error
	metricsOnce.Do(func() {
		if cfg.EnableMetrics && !cfg.ExportToFile {
			err = initOTELMetrics(cfg)
		}
		serviceUp.Set(1)
	})
	return err
}

func initOTELMetrics(cfg *Config) error {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(cfg.MetricsInterval),
			),
		),
	)
	otel.SetMeterProvider(meterProvider)
	return nil
}

// CloseMetrics flushes the OTLP meter provider if one was installed.
func CloseMetrics(ctx context.Context) error {
	serviceUp.Set(0)
	if meterProvider == nil {
		return nil
	}
	return meterProvider.Shutdown(ctx)
}

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOperation records the duration of a named backend operation
func RecordOperation(operation, status string, duration time.Duration) {
	operationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// UpdateDatabaseConnections updates the database connections metric
func UpdateDatabaseConnections(count int) {
	databaseConnectionsActive.Set(float64(count))
}
