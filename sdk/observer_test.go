package sdk

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopObserver(t *testing.T) {
	var obs Observer = &NoopObserver{}
	// Must not panic.
	obs.OnRequestStart("GET", "/courses")
	obs.OnRequestEnd("GET", "/courses", time.Millisecond, errors.New("x"))
	obs.OnFixtureResolved("/courses", "/courses", "courses", true)
	obs.OnSessionCleared("/users/profile", 401)
}

func TestMetricsCollector(t *testing.T) {
	m := NewMetricsCollector()

	m.OnRequestStart("GET", "/courses")
	m.OnRequestEnd("GET", "/courses", 5*time.Millisecond, nil)
	m.OnRequestStart("GET", "/courses")
	m.OnRequestEnd("GET", "/courses", 7*time.Millisecond, errors.New("boom"))
	m.OnFixtureResolved("/courses", "/courses", "courses", true)
	m.OnFixtureResolved("/nope", "/nope", ErrorFixture, false)
	m.OnSessionCleared("/users/profile", 401)

	snapshot := m.GetMetrics()
	assert.Equal(t, int64(2), snapshot["requests"].(map[string]int64)["GET /courses"])
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 7 * time.Millisecond},
		snapshot["latencies"].(map[string][]time.Duration)["GET /courses"])
	assert.Equal(t, int64(1), snapshot["errors"].(map[string]int64)["GET /courses"])
	assert.Equal(t, int64(1), snapshot["fixtures"].(map[string]int64)["courses"])
	assert.Equal(t, int64(1), snapshot["fixture_misses"])
	assert.Equal(t, int64(1), snapshot["sessions_cleared"])
}

func TestMetricsCollector_SnapshotIsCopy(t *testing.T) {
	m := NewMetricsCollector()
	m.OnRequestStart("GET", "/courses")
	m.OnRequestEnd("GET", "/courses", time.Millisecond, nil)

	snapshot := m.GetMetrics()
	snapshot["requests"].(map[string]int64)["GET /courses"] = 100
	snapshot["latencies"].(map[string][]time.Duration)["GET /courses"][0] = time.Hour

	fresh := m.GetMetrics()
	assert.Equal(t, int64(1), fresh["requests"].(map[string]int64)["GET /courses"])
	assert.Equal(t, time.Millisecond, fresh["latencies"].(map[string][]time.Duration)["GET /courses"][0])
}

func TestMetricsCollector_Concurrent(t *testing.T) {
	m := NewMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.OnRequestStart("GET", "/courses")
				m.OnRequestEnd("GET", "/courses", time.Microsecond, nil)
				_ = m.GetMetrics()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), m.GetMetrics()["requests"].(map[string]int64)["GET /courses"])
}

func TestLogObserver(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	obs := &LogObserver{Logger: logger}

	obs.OnRequestStart("GET", "/courses")
	obs.OnRequestEnd("GET", "/courses", 3*time.Millisecond, nil)
	obs.OnRequestEnd("GET", "/courses", 3*time.Millisecond, errors.New("boom"))
	obs.OnFixtureResolved("/courses/1", "/courses/:id", "courses", true)
	obs.OnSessionCleared("/users/profile", 401)

	entries := hook.AllEntries()
	require.Len(t, entries, 5)
	assert.Equal(t, "Request started", entries[0].Message)
	assert.Equal(t, "Request completed", entries[1].Message)
	assert.Equal(t, int64(3), entries[1].Data["duration_ms"])
	assert.Equal(t, "Request failed", entries[2].Message)
	assert.Equal(t, "/courses/:id", entries[3].Data["pattern"])
	assert.Equal(t, 401, entries[4].Data["status"])
	for _, e := range entries {
		assert.Equal(t, logrus.DebugLevel, e.Level)
	}
}

type panicObserver struct{ NoopObserver }

func (panicObserver) OnRequestStart(method, endpoint string) { panic("observer bug") }

func TestCompositeObserver(t *testing.T) {
	first := NewMetricsCollector()
	second := NewMetricsCollector()
	obs := NewCompositeObserver(first, &panicObserver{}, second)

	assert.NotPanics(t, func() {
		obs.OnRequestStart("GET", "/courses")
		obs.OnRequestEnd("GET", "/courses", time.Millisecond, nil)
		obs.OnFixtureResolved("/courses", "/courses", "courses", true)
		obs.OnSessionCleared("/courses", 401)
	})

	for _, m := range []*MetricsCollector{first, second} {
		snapshot := m.GetMetrics()
		assert.Equal(t, int64(1), snapshot["requests"].(map[string]int64)["GET /courses"])
		assert.Equal(t, int64(1), snapshot["fixtures"].(map[string]int64)["courses"])
		assert.Equal(t, int64(1), snapshot["sessions_cleared"])
	}
}
