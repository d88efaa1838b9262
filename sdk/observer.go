package sdk

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Observer provides hooks for monitoring dispatcher operations.
// Observer methods should be fast and non-blocking; they run on the caller's goroutine.
//
// Example implementation:
//
//	type PrintObserver struct{}
//
//	func (PrintObserver) OnRequestStart(method, endpoint string) {
//	    fmt.Printf("[START] %s %s\n", method, endpoint)
//	}
//
//	func (PrintObserver) OnRequestEnd(method, endpoint string, d time.Duration, err error) {
//	    fmt.Printf("[END] %s %s %v err=%v\n", method, endpoint, d, err)
//	}
//	...
type Observer interface {
	// OnRequestStart is called when a dispatch starts, in either mode.
	OnRequestStart(method, endpoint string)

	// OnRequestEnd is called when a dispatch completes.
	// err is nil on success.
	OnRequestEnd(method, endpoint string, duration time.Duration, err error)

	// OnFixtureResolved is called for every mock-mode GET after the endpoint
	// has been normalized. mapped is false when the error fixture was chosen.
	OnFixtureResolved(endpoint, pattern, fixture string, mapped bool)

	// OnSessionCleared is called after a 401 has torn the session down.
	OnSessionCleared(endpoint string, status int)
}

// NoopObserver is a no-op implementation of Observer that does nothing.
// This is the default observer used when none is configured.
type NoopObserver struct{}

// OnRequestStart does nothing
func (n *NoopObserver) OnRequestStart(method, endpoint string) {}

// OnRequestEnd does nothing
func (n *NoopObserver) OnRequestEnd(method, endpoint string, duration time.Duration, err error) {}

// OnFixtureResolved does nothing
func (n *NoopObserver) OnFixtureResolved(endpoint, pattern, fixture string, mapped bool) {}

// OnSessionCleared does nothing
func (n *NoopObserver) OnSessionCleared(endpoint string, status int) {}

// MetricsCollector is a simple in-memory metrics implementation.
// It counts requests, latencies and errors per "METHOD endpoint", fixture
// resolutions per fixture name, and session tear-downs.
//
// Example:
//
//	metrics := sdk.NewMetricsCollector()
//	client, _ := sdk.NewClient(sdk.DefaultConfig().WithMock(true).WithObserver(metrics))
//	// Use client...
//
//	snapshot := metrics.GetMetrics()
//	fmt.Printf("Unmapped lookups: %v\n", snapshot["fixture_misses"])
type MetricsCollector struct {
	mu              sync.RWMutex
	requestCount    map[string]int64
	latencies       map[string][]time.Duration
	errorCount      map[string]int64
	fixtureCount    map[string]int64
	fixtureMisses   int64
	sessionsCleared int64
}

// NewMetricsCollector creates a new metrics collector.
// The collector is thread-safe and can be used concurrently.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		requestCount: make(map[string]int64),
		latencies:    make(map[string][]time.Duration),
		errorCount:   make(map[string]int64),
		fixtureCount: make(map[string]int64),
	}
}

// OnRequestStart increments request count
func (m *MetricsCollector) OnRequestStart(method, endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[method+" "+endpoint]++
}

// OnRequestEnd records request duration and errors
func (m *MetricsCollector) OnRequestEnd(method, endpoint string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := method + " " + endpoint
	m.latencies[key] = append(m.latencies[key], duration)
	if err != nil {
		m.errorCount[key]++
	}
}

// OnFixtureResolved counts fixture lookups
func (m *MetricsCollector) OnFixtureResolved(endpoint, pattern, fixture string, mapped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixtureCount[fixture]++
	if !mapped {
		m.fixtureMisses++
	}
}

// OnSessionCleared counts session tear-downs
func (m *MetricsCollector) OnSessionCleared(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsCleared++
}

// GetMetrics returns a snapshot of current metrics.
// The returned map is a copy and safe to read without locks.
//
// The metrics include:
//   - "requests": Map of "METHOD endpoint" to request count
//   - "latencies": Map of "METHOD endpoint" to latency measurements
//   - "errors": Map of "METHOD endpoint" to error count
//   - "fixtures": Map of fixture name to lookup count
//   - "fixture_misses": Lookups that fell through to the error fixture
//   - "sessions_cleared": Session tear-downs caused by 401 responses
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	requestsCopy := make(map[string]int64, len(m.requestCount))
	for k, v := range m.requestCount {
		requestsCopy[k] = v
	}

	latenciesCopy := make(map[string][]time.Duration, len(m.latencies))
	for k, v := range m.latencies {
		latenciesCopy[k] = append([]time.Duration(nil), v...)
	}

	errorsCopy := make(map[string]int64, len(m.errorCount))
	for k, v := range m.errorCount {
		errorsCopy[k] = v
	}

	fixturesCopy := make(map[string]int64, len(m.fixtureCount))
	for k, v := range m.fixtureCount {
		fixturesCopy[k] = v
	}

	return map[string]interface{}{
		"requests":         requestsCopy,
		"latencies":        latenciesCopy,
		"errors":           errorsCopy,
		"fixtures":         fixturesCopy,
		"fixture_misses":   m.fixtureMisses,
		"sessions_cleared": m.sessionsCleared,
	}
}

// LogObserver writes dispatcher events to a logrus logger at debug level.
type LogObserver struct {
	Logger logrus.FieldLogger
}

// OnRequestStart logs the dispatch
func (o *LogObserver) OnRequestStart(method, endpoint string) {
	o.Logger.WithFields(logrus.Fields{"method": method, "endpoint": endpoint}).Debug("Request started")
}

// OnRequestEnd logs the outcome
func (o *LogObserver) OnRequestEnd(method, endpoint string, duration time.Duration, err error) {
	entry := o.Logger.WithFields(logrus.Fields{
		"method":      method,
		"endpoint":    endpoint,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Debug("Request failed")
		return
	}
	entry.Debug("Request completed")
}

// OnFixtureResolved logs the fixture choice
func (o *LogObserver) OnFixtureResolved(endpoint, pattern, fixture string, mapped bool) {
	o.Logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"pattern":  pattern,
		"fixture":  fixture,
		"mapped":   mapped,
	}).Debug("Fixture resolved")
}

// OnSessionCleared logs the tear-down
func (o *LogObserver) OnSessionCleared(endpoint string, status int) {
	o.Logger.WithFields(logrus.Fields{"endpoint": endpoint, "status": status}).Debug("Session cleared")
}

// CompositeObserver allows multiple observers to be combined into one.
// All observer methods are called on each child observer in order.
// If an observer panics, it's caught to prevent affecting other observers.
//
// Example:
//
//	observer := sdk.NewCompositeObserver(
//	    &sdk.LogObserver{Logger: logger},
//	    sdk.NewMetricsCollector(),
//	)
//	config := sdk.DefaultConfig().WithObserver(observer)
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an observer that delegates to multiple observers.
func NewCompositeObserver(observers ...Observer) Observer {
	return &CompositeObserver{observers: observers}
}

func (c *CompositeObserver) each(fn func(Observer)) {
	for _, obs := range c.observers {
		func() {
			defer func() {
				// Observer panicked, ignore
				_ = recover()
			}()
			fn(obs)
		}()
	}
}

// OnRequestStart notifies all observers of request start.
func (c *CompositeObserver) OnRequestStart(method, endpoint string) {
	c.each(func(o Observer) { o.OnRequestStart(method, endpoint) })
}

// OnRequestEnd notifies all observers of request completion.
func (c *CompositeObserver) OnRequestEnd(method, endpoint string, duration time.Duration, err error) {
	c.each(func(o Observer) { o.OnRequestEnd(method, endpoint, duration, err) })
}

// OnFixtureResolved notifies all observers
func (c *CompositeObserver) OnFixtureResolved(endpoint, pattern, fixture string, mapped bool) {
	c.each(func(o Observer) { o.OnFixtureResolved(endpoint, pattern, fixture, mapped) })
}

// OnSessionCleared notifies all observers
func (c *CompositeObserver) OnSessionCleared(endpoint string, status int) {
	c.each(func(o Observer) { o.OnSessionCleared(endpoint, status) })
}
