package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/queue"
)

type fakeMessage struct {
	data    []byte
	subject string

	mu    sync.Mutex
	acked bool
	naked bool
	termd bool
}

func newFakeMessage(t testing.TB, ev queue.Event) *fakeMessage {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return &fakeMessage{data: data, subject: ev.Subject()}
}

func (m *fakeMessage) Data() []byte    { return m.data }
func (m *fakeMessage) Subject() string { return m.subject }

func (m *fakeMessage) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = true
	return nil
}

func (m *fakeMessage) Nak() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.naked = true
	return nil
}

func (m *fakeMessage) Term() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.termd = true
	return nil
}

func (m *fakeMessage) state() (acked, naked, termd bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked, m.naked, m.termd
}

// fakeSource hands out queued results in order, then behaves like an idle
// stream.
type fakeSource struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

type fetchResult struct {
	msgs []Message
	err  error
}

func (s *fakeSource) push(msgs []Message, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, fetchResult{msgs: msgs, err: err})
}

func (s *fakeSource) Fetch(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	s.mu.Lock()
	s.calls++
	if len(s.results) > 0 {
		r := s.results[0]
		s.results = s.results[1:]
		s.mu.Unlock()
		if len(r.msgs) > max {
			r.msgs = r.msgs[:max]
		}
		return r.msgs, r.err
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(wait):
		return nil, nil
	}
}

var errSinkDown = errors.New("sink down")

// failingSink fails every write.
type failingSink struct{}

func (failingSink) RecordActivity(context.Context, []database.ActivityEntry) (int, error) {
	return 0, errSinkDown
}

func (failingSink) RecentActivity(context.Context, int64, int) ([]database.ActivityEntry, error) {
	return nil, errSinkDown
}

func testConfig() *Config {
	return &Config{
		WorkerID:        "test",
		WorkerName:      "test-worker",
		Durable:         "test",
		BatchSize:       10,
		BatchTimeout:    10 * time.Millisecond,
		BatchDeadline:   time.Second,
		RetryBackoff:    time.Millisecond,
		RetryMultiplier: 2,
		MaxRetryBackoff: 5 * time.Millisecond,
		MetricsInterval: time.Hour,
		HealthCheckPort: 0,
	}
}

func testLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}
