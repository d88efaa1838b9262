package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Source hands out batches of messages.
type Source interface {
	// Fetch waits up to wait for at most max messages. An empty result with
	// a nil error means nothing arrived in time.
	Fetch(ctx context.Context, max int, wait time.Duration) ([]Message, error)
}

// JetStreamSource reads from a durable pull subscription
type JetStreamSource struct {
	sub *nats.Subscription
}

// NewJetStreamSource wraps a pull subscription
func NewJetStreamSource(sub *nats.Subscription) *JetStreamSource {
	return &JetStreamSource{sub: sub}
}

// Fetch implements Source
func (s *JetStreamSource) Fetch(ctx context.Context, max int, wait time.Duration) ([]Message, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	msgs, err := s.sub.Fetch(max, nats.Context(fetchCtx))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = natsMessage{msg: m}
	}
	return out, nil
}

// Close drains the subscription
func (s *JetStreamSource) Close() error {
	return s.sub.Drain()
}

type natsMessage struct {
	msg *nats.Msg
}

func (m natsMessage) Data() []byte    { return m.msg.Data }
func (m natsMessage) Subject() string { return m.msg.Subject }
func (m natsMessage) Ack() error      { return m.msg.Ack() }
func (m natsMessage) Nak() error      { return m.msg.Nak() }
func (m natsMessage) Term() error     { return m.msg.Term() }
