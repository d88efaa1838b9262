// Package queue publishes the backend's domain events to NATS JetStream.
package queue

import (
	"context"
	"sync"
)

// Publisher sends domain events
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Health() error
	Close() error
}

// NoopPublisher drops every event. Used when NATS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Health() error                        { return nil }
func (NoopPublisher) Close() error                         { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

// NewRecordingPublisher creates an empty recorder.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// FailWith makes every later Publish return err.
func (r *RecordingPublisher) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *RecordingPublisher) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (r *RecordingPublisher) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *RecordingPublisher) Health() error { return nil }
func (r *RecordingPublisher) Close() error  { return nil }
