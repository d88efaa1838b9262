package sdk

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvMock        = "ACADEMY_MOCK"
	EnvAPIURL      = "ACADEMY_API_URL"
	EnvFixturePath = "ACADEMY_FIXTURE_PATH"
	EnvTimeout     = "ACADEMY_TIMEOUT"
)

// Config holds the configuration for the academy client.
// All fields are optional and have sensible defaults.
//
// Configuration can be built using the fluent builder pattern:
//
//	config := sdk.DefaultConfig().
//	    WithMock(false).
//	    WithBaseURL("https://api.academy.example.com").
//	    WithTimeout(5 * time.Second).
//	    WithSessionStore(sdk.NewFileSessionStore("/tmp/academy-session.json"))
//
//	client, err := sdk.NewClient(config)
type Config struct {
	// Mock switches the dispatcher between the real backend and bundled fixtures.
	// Default: false
	Mock bool

	// BaseURL is the base URL of the course platform API.
	// Required in real mode. In mock mode it is only used by HTTPFixtureLoader.
	// Default: "http://localhost:5000"
	BaseURL string

	// FixtureBasePath is the path under which fixture documents are served.
	// Default: "/mock-data"
	FixtureBasePath string

	// LoginPath is the navigation target after a 401 tears the session down.
	// Default: "/login"
	LoginPath string

	// Timeout is the HTTP request timeout. Applies to real mode only.
	// Default: 10s
	Timeout time.Duration

	// TransportConfig holds HTTP transport settings.
	TransportConfig TransportConfig

	// Headers are custom headers to include in all requests.
	Headers map[string]string

	// Endpoints is the logical endpoint surface.
	// If nil, DefaultEndpoints() is used.
	Endpoints *Endpoints

	// FixtureMap maps normalized endpoint patterns to fixture names.
	// If nil, DefaultFixtureMap() is used.
	FixtureMap FixtureMap

	// Responders answers non-GET requests in mock mode.
	// If nil, DefaultResponders() is used.
	Responders *ResponderTable

	// SessionStore persists the bearer token and cached user.
	// If nil, an in-memory store is used.
	SessionStore SessionStore

	// FixtureLoader resolves fixture names to JSON documents.
	// If nil, the fixtures embedded in this package are used.
	FixtureLoader FixtureLoader

	// Navigator receives the forced navigation after a 401.
	// If nil, NoopNavigator is used.
	Navigator Navigator

	// Observer for monitoring operations.
	// If nil, NoopObserver is used.
	Observer Observer

	// Logger receives 403 denials and session tear-downs.
	// If nil, a logrus logger at warn level is used.
	Logger logrus.FieldLogger
}

// TransportConfig holds HTTP transport configuration for connection pooling.
//
// Example:
//
//	config.TransportConfig = sdk.TransportConfig{
//	    MaxIdleConns:    50,
//	    MaxConnsPerHost: 10,
//	    IdleConnTimeout: 60 * time.Second,
//	}
type TransportConfig struct {
	// MaxIdleConns controls the maximum number of idle connections
	// across all hosts. Zero means no limit.
	// Default: 100
	MaxIdleConns int

	// MaxConnsPerHost controls the maximum connections per host.
	// Default: 10
	MaxConnsPerHost int

	// IdleConnTimeout is the maximum time an idle connection will remain idle
	// before closing itself.
	// Default: 90s
	IdleConnTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults suitable for most use cases.
// The default configuration includes:
//   - Real mode against http://localhost:5000
//   - Timeout: 10 seconds
//   - Fixtures served from /mock-data, login screen at /login
//   - Connection pooling: 100 idle connections, 10 per host
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "http://localhost:5000",
		FixtureBasePath: "/mock-data",
		LoginPath:       "/login",
		Timeout:         10 * time.Second,
		TransportConfig: TransportConfig{
			MaxIdleConns:    100,
			MaxConnsPerHost: 10,
			IdleConnTimeout: 90 * time.Second,
		},
		Headers:  make(map[string]string),
		Observer: &NoopObserver{},
	}
}

// ConfigFromEnv returns DefaultConfig overlaid with ACADEMY_* environment variables.
// Malformed values are reported as ErrInvalidConfig.
func ConfigFromEnv() (*Config, error) {
	config := DefaultConfig()

	if v := os.Getenv(EnvMock); v != "" {
		mock, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvMock, v)
		}
		config.Mock = mock
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		config.BaseURL = v
	}
	if v := os.Getenv(EnvFixturePath); v != "" {
		config.FixtureBasePath = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvTimeout, v)
		}
		config.Timeout = timeout
	}
	return config, nil
}

// WithMock toggles mock mode.
//
// Example:
//
//	config := sdk.DefaultConfig().WithMock(true)
func (c *Config) WithMock(mock bool) *Config {
	c.Mock = mock
	return c
}

// WithBaseURL sets the base URL for the course platform API.
// The URL should include the protocol (http/https) but not trailing slashes.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout for real-mode requests.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithHeader adds a custom header to be sent with all requests.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithHeader("X-Client", "academy-mobile")
func (c *Config) WithHeader(key, value string) *Config {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	c.Headers[key] = value
	return c
}

// WithFixtureBasePath sets where HTTPFixtureLoader fetches fixtures from.
func (c *Config) WithFixtureBasePath(path string) *Config {
	c.FixtureBasePath = path
	return c
}

// WithLoginPath sets the navigation target used after a 401.
func (c *Config) WithLoginPath(path string) *Config {
	c.LoginPath = path
	return c
}

// WithEndpoints replaces the logical endpoint surface.
func (c *Config) WithEndpoints(endpoints *Endpoints) *Config {
	c.Endpoints = endpoints
	return c
}

// WithFixtureMap replaces the endpoint-to-fixture map used in mock mode.
func (c *Config) WithFixtureMap(m FixtureMap) *Config {
	c.FixtureMap = m
	return c
}

// WithResponders replaces the mock responder table.
func (c *Config) WithResponders(table *ResponderTable) *Config {
	c.Responders = table
	return c
}

// WithSessionStore sets where the token and user are persisted.
//
// Example:
//
//	// Browser storage analogue
//	config := sdk.DefaultConfig().
//	    WithSessionStore(sdk.NewFileSessionStore("session.json"))
//
//	// Async key-value store analogue
//	config.WithSessionStore(sdk.NewRedisSessionStore(rdb, "academy:session:"))
func (c *Config) WithSessionStore(store SessionStore) *Config {
	c.SessionStore = store
	return c
}

// WithFixtureLoader sets how fixture documents are loaded in mock mode.
//
// Example:
//
//	config := sdk.DefaultConfig().
//	    WithMock(true).
//	    WithFixtureLoader(sdk.DirFixtures("./public/mock-data"))
func (c *Config) WithFixtureLoader(loader FixtureLoader) *Config {
	c.FixtureLoader = loader
	return c
}

// WithNavigator sets the navigator that receives forced login redirects.
func (c *Config) WithNavigator(nav Navigator) *Config {
	c.Navigator = nav
	return c
}

// WithObserver sets a custom observer for monitoring SDK operations.
//
// Example:
//
//	metrics := sdk.NewMetricsCollector()
//	config := sdk.DefaultConfig().WithObserver(metrics)
func (c *Config) WithObserver(observer Observer) *Config {
	c.Observer = observer
	return c
}

// WithLogger sets the logger used for 403 denials and session tear-downs.
func (c *Config) WithLogger(logger logrus.FieldLogger) *Config {
	c.Logger = logger
	return c
}

// Validate validates the configuration and sets defaults for missing values.
// This is called automatically by NewClient and NewDispatcher.
//
// Returns an error if the configuration is invalid (e.g., missing base URL in real mode).
func (c *Config) Validate() error {
	if !c.Mock {
		if c.BaseURL == "" {
			return ErrInvalidConfig
		}
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: base URL must have a scheme and host", ErrInvalidConfig)
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.FixtureBasePath == "" {
		c.FixtureBasePath = "/mock-data"
	}
	if c.LoginPath == "" {
		c.LoginPath = "/login"
	}
	if c.Endpoints == nil {
		c.Endpoints = DefaultEndpoints()
	}
	if c.FixtureMap == nil {
		c.FixtureMap = DefaultFixtureMap()
	}
	if c.Responders == nil {
		c.Responders = DefaultResponders()
	}
	if c.SessionStore == nil {
		c.SessionStore = NewMemorySessionStore()
	}
	if c.FixtureLoader == nil {
		c.FixtureLoader = EmbeddedFixtures()
	}
	if c.Navigator == nil {
		c.Navigator = NoopNavigator{}
	}
	if c.Observer == nil {
		c.Observer = &NoopObserver{}
	}
	if c.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		c.Logger = logger
	}
	return nil
}
