package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Auth metrics
	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_auth_attempts_total",
		Help: "Total number of login, signup and logout attempts",
	}, []string{"operation", "result"})

	tokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_token_rejections_total",
		Help: "Total number of bearer tokens rejected by the auth middleware",
	}, []string{"reason"})

	// Domain event metrics
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_events_published_total",
		Help: "Total number of domain events published",
	}, []string{"subject", "result"})

	// Payment metrics
	paymentRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_payment_requests_total",
		Help: "Total number of payment processor requests",
	}, []string{"operation", "result"})

	// System health
	healthStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "academy_health_status",
		Help: "Health status (1=healthy, 0=unhealthy)",
	})
)

// RecordAuthAttempt records an auth operation outcome
func RecordAuthAttempt(operation, result string) {
	authAttempts.WithLabelValues(operation, result).Inc()
}

// RecordTokenRejection records why a bearer token was refused
func RecordTokenRejection(reason string) {
	tokenRejections.WithLabelValues(reason).Inc()
}

// RecordEventPublished records a domain event publish outcome
func RecordEventPublished(subject, result string) {
	eventsPublished.WithLabelValues(subject, result).Inc()
}

// RecordPaymentRequest records a payment processor outcome
func RecordPaymentRequest(operation, result string) {
	paymentRequests.WithLabelValues(operation, result).Inc()
}

// UpdateHealthMetric updates the health status metric
func UpdateHealthMetric(healthy bool) {
	if healthy {
		healthStatus.Set(1)
		return
	}
	healthStatus.Set(0)
}
