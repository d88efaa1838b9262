package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Client represents a NATS JetStream client
type Client struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	config *Config
	log    logrus.FieldLogger
}

// NewClient creates a new NATS JetStream client and makes sure the event
// stream exists.
func NewClient(config *Config, log logrus.FieldLogger) (*Client, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.WithError(err).Error("NATS error")
		}),
	}

	if config.User != "" && config.Password != "" {
		opts = append(opts, nats.UserInfo(config.User, config.Password))
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{
		nc:     nc,
		js:     js,
		config: config,
		log:    log,
	}

	if err := client.initializeStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to initialize streams: %w", err)
	}

	return client, nil
}

// initializeStream creates or updates the event stream
func (c *Client) initializeStream() error {
	streamConfig := &nats.StreamConfig{
		Name:        c.config.StreamName,
		Description: "Birb Academy domain events",
		Subjects:    []string{SubjectRoot},
		Retention:   nats.LimitsPolicy,
		MaxAge:      c.config.StreamMaxAge,
		MaxBytes:    c.config.StreamMaxBytes,
		MaxMsgs:     c.config.StreamMaxMsgs,
		MaxMsgSize:  c.config.StreamMaxMsgSize,
		Replicas:    c.config.StreamReplicas,
		Duplicates:  2 * time.Minute,
		Storage:     nats.FileStorage,
	}

	if _, err := c.js.AddStream(streamConfig); err != nil {
		if _, err = c.js.UpdateStream(streamConfig); err != nil {
			return fmt.Errorf("failed to create/update event stream: %w", err)
		}
	}
	return nil
}

// Publish sends an event and waits for the JetStream ack
func (c *Client) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Message ID for deduplication
	pubAck, err := c.js.PublishAsync(ev.Subject(), data, nats.MsgId(ev.EventID()))
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	timeout := c.config.PublishTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-pubAck.Ok():
		return nil
	case err := <-pubAck.Err():
		return fmt.Errorf("event publish failed: %w", err)
	case <-timer.C:
		return fmt.Errorf("event publish timed out after %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health checks the NATS connection health
func (c *Client) Health() error {
	if !c.nc.IsConnected() {
		return fmt.Errorf("NATS is not connected")
	}

	if _, err := c.js.AccountInfo(); err != nil {
		return fmt.Errorf("JetStream health check failed: %w", err)
	}
	return nil
}

// Close drains pending publishes and closes the connection
func (c *Client) Close() error {
	if c.nc == nil {
		return nil
	}
	select {
	case <-c.js.PublishAsyncComplete():
	case <-time.After(c.config.PublishTimeout + time.Second):
		c.log.Warn("Closing NATS with unacknowledged publishes")
	}
	c.nc.Close()
	return nil
}

// PullSubscribe binds a durable pull consumer to every academy subject. Each
// message must be acked explicitly.
func (c *Client) PullSubscribe(durable string) (*nats.Subscription, error) {
	sub, err := c.js.PullSubscribe(SubjectRoot, durable,
		nats.BindStream(c.config.StreamName),
		nats.AckExplicit(),
		nats.MaxDeliver(c.config.MaxDeliver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull consumer %s: %w", durable, err)
	}
	return sub, nil
}

// StreamInfo returns information about the event stream
func (c *Client) StreamInfo() (*nats.StreamInfo, error) {
	return c.js.StreamInfo(c.config.StreamName)
}

// GetMessage retrieves an event from the stream by sequence number
func (c *Client) GetMessage(seq uint64) (*nats.RawStreamMsg, error) {
	return c.js.GetMsg(c.config.StreamName, seq)
}
