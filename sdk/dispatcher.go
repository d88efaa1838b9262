package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Requester is the single entry point the domain services call.
// *Dispatcher implements it; tests can substitute their own.
type Requester interface {
	Request(ctx context.Context, endpoint, method string, body interface{}, opts ...RequestOption) (json.RawMessage, error)
}

// Dispatcher chooses between the real transport and fixture resolution for
// every logical endpoint.
//
// In real mode requests go to the backend unchanged and any transport error is
// returned as-is. In mock mode nothing leaves the process except the fixture
// loader:
//
//   - GET endpoints are normalized (numeric segments become ":id") and looked
//     up in the FixtureMap. The whole fixture document is returned, not the
//     single record. Unmapped endpoints return the "error" fixture instead of
//     failing.
//   - Other verbs are acknowledged by the ResponderTable and discarded, so a
//     mock write never changes what a later read returns.
//
// A Dispatcher is safe for concurrent use by multiple goroutines.
type Dispatcher struct {
	config    *Config
	transport *httpTransport
	mu        sync.RWMutex
	closed    bool
}

// NewDispatcher creates a dispatcher. If config is nil, default values are used.
//
// Example:
//
//	d, err := sdk.NewDispatcher(sdk.DefaultConfig().WithMock(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	raw, err := d.Request(ctx, "/courses/7", http.MethodGet, nil)
//	// raw is the full courses fixture
func NewDispatcher(config *Config) (*Dispatcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	d := &Dispatcher{config: config}
	if !config.Mock {
		transport, err := newHTTPTransport(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create transport: %w", err)
		}
		d.transport = transport
	}
	return d, nil
}

// Config returns the validated configuration.
func (d *Dispatcher) Config() *Config {
	return d.config
}

// Mock reports whether the dispatcher answers from fixtures.
func (d *Dispatcher) Mock() bool {
	return d.config.Mock
}

// Request dispatches one call. An empty method means GET. body may be any JSON
// encodable value, a json.RawMessage or nil.
func (d *Dispatcher) Request(ctx context.Context, endpoint, method string, body interface{}, opts ...RequestOption) (json.RawMessage, error) {
	if err := d.checkClosed(); err != nil {
		return nil, err
	}

	method, err := normalizeMethod(method)
	if err != nil {
		return nil, err
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	observer := d.config.Observer
	observer.OnRequestStart(method, endpoint)
	start := time.Now()

	var result json.RawMessage
	switch {
	case !d.config.Mock:
		result, err = d.transport.do(ctx, method, endpoint, payload, opts...)
	case method == http.MethodGet:
		result, err = d.resolveFixture(ctx, endpoint)
	default:
		result, err = d.acknowledge(endpoint, payload)
	}

	observer.OnRequestEnd(method, endpoint, time.Since(start), err)
	return result, err
}

// resolveFixture answers a mock-mode GET.
func (d *Dispatcher) resolveFixture(ctx context.Context, endpoint string) (json.RawMessage, error) {
	pattern, fixture, mapped := d.config.FixtureMap.Resolve(endpoint)
	d.config.Observer.OnFixtureResolved(endpoint, pattern, fixture, mapped)

	data, err := d.config.FixtureLoader.Load(ctx, fixture)
	if err != nil {
		var fixtureErr *FixtureError
		if !errors.As(err, &fixtureErr) {
			fixtureErr = &FixtureError{Name: fixture, Err: err}
		}
		return nil, fixtureErr.ToError().WithContext(&ErrorContext{
			Method:   http.MethodGet,
			Endpoint: endpoint,
		})
	}
	return json.RawMessage(data), nil
}

// acknowledge answers a mock-mode write without touching any state.
func (d *Dispatcher) acknowledge(endpoint string, payload json.RawMessage) (json.RawMessage, error) {
	pattern := NormalizeEndpoint(endpoint)
	out, kind, err := d.config.Responders.Respond(pattern, payload)
	if err != nil {
		return nil, err
	}
	d.config.Logger.WithField("endpoint", endpoint).WithField("responder", string(kind)).Debug("Mock write acknowledged")
	return out, nil
}

// Close releases idle connections. Further requests fail with ErrClientClosed.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if d.transport != nil {
		return d.transport.close()
	}
	return nil
}

func (d *Dispatcher) checkClosed() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClientClosed
	}
	return nil
}

func normalizeMethod(method string) (string, error) {
	if method == "" {
		return http.MethodGet, nil
	}
	m := strings.ToUpper(method)
	switch m {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return m, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
}
