package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RequestOption customizes a single real-mode request. Options are ignored in mock mode.
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers map[string]string
	query   url.Values
}

// WithRequestHeader sets a header on one request.
func WithRequestHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithQueryParam adds a query parameter to one request. Empty values are skipped.
func WithQueryParam(key, value string) RequestOption {
	return func(o *requestOptions) {
		if value == "" {
			return
		}
		if o.query == nil {
			o.query = url.Values{}
		}
		o.query.Add(key, value)
	}
}

func collectOptions(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// httpTransport handles HTTP communication with the course platform API.
// It attaches the bearer token from the session store to every request and
// reacts to authentication failures:
//
//   - 401: the session is cleared, the navigator is sent to the login path and
//     the error is still returned to the caller
//   - 403: the denial is logged, nothing else changes
//
// Requests are never retried or queued.
type httpTransport struct {
	// client is the underlying HTTP client
	client *http.Client
	// config holds the SDK configuration
	config *Config
	// baseURL is the parsed base URL for the API
	baseURL *url.URL
	// session holds the bearer token
	session SessionStore
	// navigator receives the forced login redirect
	navigator Navigator
	// observer for monitoring operations
	observer Observer
	logger   logrus.FieldLogger
}

// newHTTPTransport creates the real-mode transport. config must already be validated.
func newHTTPTransport(config *Config) (*httpTransport, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	baseURL, err := url.Parse(strings.TrimSuffix(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("base URL must have a scheme and host")
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.TransportConfig.MaxIdleConns,
		MaxConnsPerHost:     config.TransportConfig.MaxConnsPerHost,
		IdleConnTimeout:     config.TransportConfig.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &httpTransport{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		config:    config,
		baseURL:   baseURL,
		session:   config.SessionStore,
		navigator: config.Navigator,
		observer:  config.Observer,
		logger:    config.Logger,
	}, nil
}

// do performs a single HTTP request and returns the raw response body.
// An empty 2xx body is returned as JSON null.
func (t *httpTransport) do(ctx context.Context, method, endpoint string, body json.RawMessage, opts ...RequestOption) (json.RawMessage, error) {
	o := collectOptions(opts)

	fullURL, err := t.resolve(endpoint, o.query)
	if err != nil {
		return nil, validationError("invalid endpoint %q: %v", endpoint, err)
	}

	// DELETE carries its body too.
	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "birb-academy-go-sdk/1.0.0")
	for key, value := range t.config.Headers {
		req.Header.Set(key, value)
	}
	for key, value := range o.headers {
		req.Header.Set(key, value)
	}

	token, err := t.session.Token(ctx)
	if err != nil {
		t.logger.WithError(err).Warn("Failed to read session token, sending unauthenticated")
	} else if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		netErr := (&NetworkError{Op: method + " " + endpoint, Err: err}).ToError()
		if errors.Is(err, context.DeadlineExceeded) {
			netErr.Type = ErrorTypeTimeout
		}
		return nil, netErr.WithContext(&ErrorContext{URL: fullURL.String(), Method: method, Endpoint: endpoint})
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		netErr := &NetworkError{Op: "reading response", Err: err}
		return nil, netErr.ToError()
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if len(bytes.TrimSpace(respBody)) == 0 {
			return json.RawMessage("null"), nil
		}
		return respBody, nil
	}

	apiErr := parseAPIError(resp.StatusCode, respBody)
	enhancedErr := apiErr.ToError()
	enhancedErr.WithContext(&ErrorContext{
		URL:      fullURL.String(),
		Method:   method,
		Endpoint: endpoint,
	})
	if reqID := resp.Header.Get("X-Request-ID"); reqID != "" {
		enhancedErr.RequestID = reqID
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		t.teardownSession(ctx, endpoint)
	case http.StatusForbidden:
		t.logger.WithFields(logrus.Fields{
			"method":   method,
			"endpoint": endpoint,
			"status":   resp.StatusCode,
		}).Warn("Access denied")
	}

	return nil, enhancedErr
}

// teardownSession clears the persisted token and user and forces navigation to
// the login path. Safe to run for every concurrent 401.
func (t *httpTransport) teardownSession(ctx context.Context, endpoint string) {
	// The caller may already be cancelling; the tear-down still has to happen.
	ctx = context.WithoutCancel(ctx)

	if err := t.session.Clear(ctx); err != nil {
		t.logger.WithError(err).WithField("endpoint", endpoint).Error("Failed to clear session")
	}
	t.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"status":   http.StatusUnauthorized,
	}).Info("Session expired, redirecting to login")

	t.navigator.Navigate(ctx, t.config.LoginPath)
	t.observer.OnSessionCleared(endpoint, http.StatusUnauthorized)
}

func (t *httpTransport) resolve(endpoint string, query url.Values) (*url.URL, error) {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	u, err := url.Parse(t.baseURL.String() + endpoint)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// close closes the transport
func (t *httpTransport) close() error {
	t.client.CloseIdleConnections()
	return nil
}
