package worker

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_worker_events_total",
		Help: "Events handled by the activity worker by result",
	}, []string{"result"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "academy_worker_batch_duration_seconds",
		Help:    "Time spent recording one batch of events",
		Buckets: prometheus.DefBuckets,
	})

	workerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "academy_worker_errors_total",
		Help: "Activity worker errors by kind",
	}, []string{"kind"})
)

// Metrics holds worker metrics
type Metrics struct {
	mu sync.RWMutex

	// Event metrics
	eventsReceived int64
	eventsStored   int64
	duplicates     int64
	eventsFailed   int64

	// Batch metrics
	batchesProcessed    int64
	batchProcessingTime time.Duration

	// Error metrics
	errorCounts map[string]int64

	// Worker status
	startTime       time.Time
	lastProcessedAt time.Time
	isHealthy       bool
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		errorCounts: make(map[string]int64),
		startTime:   time.Now(),
		isHealthy:   true,
	}
}

// RecordError records an error
func (m *Metrics) RecordError(kind string) {
	workerErrors.WithLabelValues(kind).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCounts[kind]++
}

// RecordBatch records one handled batch. Events that were neither stored nor
// failed were duplicates.
func (m *Metrics) RecordBatch(size, stored, failed int, duration time.Duration) {
	duplicates := size - stored - failed
	if duplicates < 0 {
		duplicates = 0
	}

	eventsTotal.WithLabelValues("stored").Add(float64(stored))
	eventsTotal.WithLabelValues("duplicate").Add(float64(duplicates))
	eventsTotal.WithLabelValues("failed").Add(float64(failed))
	batchDuration.Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.eventsReceived += int64(size)
	m.eventsStored += int64(stored)
	m.duplicates += int64(duplicates)
	m.eventsFailed += int64(failed)
	m.batchesProcessed++
	m.batchProcessingTime += duration
	m.lastProcessedAt = time.Now()
}

// GetStats returns current metrics
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avgBatchSize, avgBatchMs float64
	if m.batchesProcessed > 0 {
		avgBatchSize = float64(m.eventsReceived) / float64(m.batchesProcessed)
		avgBatchMs = float64(m.batchProcessingTime.Milliseconds()) / float64(m.batchesProcessed)
	}

	timeSinceLastProcessed := time.Duration(0)
	if !m.lastProcessedAt.IsZero() {
		timeSinceLastProcessed = time.Since(m.lastProcessedAt)
	}

	errorCounts := make(map[string]int64, len(m.errorCounts))
	for k, v := range m.errorCounts {
		errorCounts[k] = v
	}

	return map[string]interface{}{
		"uptime_seconds":        time.Since(m.startTime).Seconds(),
		"events_received":       m.eventsReceived,
		"events_stored":         m.eventsStored,
		"events_duplicate":      m.duplicates,
		"events_failed":         m.eventsFailed,
		"batches_processed":     m.batchesProcessed,
		"avg_batch_size":        avgBatchSize,
		"avg_batch_time_ms":     avgBatchMs,
		"error_counts":          errorCounts,
		"last_processed_ago_ms": timeSinceLastProcessed.Milliseconds(),
		"is_healthy":            m.isHealthy,
	}
}

// SetHealthy sets the health status
func (m *Metrics) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isHealthy = healthy
}

// IsHealthy returns the health status
func (m *Metrics) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isHealthy
}
