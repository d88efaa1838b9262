package sdk

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

//go:embed fixtures/*.json
var bundledFixtures embed.FS

// FixtureLoader resolves a fixture name (e.g. "courses") to its JSON document.
// Implementations must be safe for concurrent use.
type FixtureLoader interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// FixtureLoaderFunc adapts a function to the FixtureLoader interface.
type FixtureLoaderFunc func(ctx context.Context, name string) ([]byte, error)

// Load implements FixtureLoader.
func (f FixtureLoaderFunc) Load(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}

// FSFixtureLoader reads <name>.json documents from a file system.
type FSFixtureLoader struct {
	fsys fs.FS
}

// NewFSFixtureLoader creates a loader over fsys.
func NewFSFixtureLoader(fsys fs.FS) *FSFixtureLoader {
	return &FSFixtureLoader{fsys: fsys}
}

// EmbeddedFixtures returns a loader over the fixtures compiled into this package.
func EmbeddedFixtures() *FSFixtureLoader {
	sub, err := fs.Sub(bundledFixtures, "fixtures")
	if err != nil {
		// fs.Sub only fails on an invalid path literal
		panic(err)
	}
	return NewFSFixtureLoader(sub)
}

// DirFixtures returns a loader over a directory on disk.
func DirFixtures(dir string) *FSFixtureLoader {
	return NewFSFixtureLoader(os.DirFS(dir))
}

// Load implements FixtureLoader.
func (l *FSFixtureLoader) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FixtureError{Name: name, Err: err}
	}
	if !fs.ValidPath(name) || strings.Contains(name, "/") {
		return nil, &FixtureError{Name: name, Err: ErrFixtureNotFound}
	}

	data, err := fs.ReadFile(l.fsys, name+".json")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrFixtureNotFound
		}
		return nil, &FixtureError{Name: name, Err: err}
	}
	return validateFixture(name, data)
}

// HTTPFixtureLoader fetches fixtures from <BaseURL><FixtureBasePath>/<name>.json,
// the way a browser build pulls static assets from its own origin.
type HTTPFixtureLoader struct {
	client   *http.Client
	baseURL  string
	basePath string
}

// NewHTTPFixtureLoader creates a loader against a static asset host.
// A nil client gets a default one with a 10s timeout.
func NewHTTPFixtureLoader(baseURL, basePath string, client *http.Client) *HTTPFixtureLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if basePath == "" {
		basePath = "/mock-data"
	}
	return &HTTPFixtureLoader{
		client:   client,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		basePath: "/" + strings.Trim(basePath, "/"),
	}
}

// Load implements FixtureLoader.
func (l *HTTPFixtureLoader) Load(ctx context.Context, name string) ([]byte, error) {
	fixtureURL := l.baseURL + path.Join(l.basePath, buildPath("{id}", name)+".json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fixtureURL, nil)
	if err != nil {
		return nil, &FixtureError{Name: name, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &FixtureError{Name: name, Err: &NetworkError{Op: "GET " + fixtureURL, Err: err}}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FixtureError{Name: name, Err: &NetworkError{Op: "reading fixture", Err: err}}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &FixtureError{Name: name, Err: ErrFixtureNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FixtureError{Name: name, Err: parseAPIError(resp.StatusCode, data)}
	}
	return validateFixture(name, data)
}

func validateFixture(name string, data []byte) ([]byte, error) {
	if !json.Valid(data) {
		return nil, &FixtureError{Name: name, Err: fmt.Errorf("%w: not a JSON document", ErrInvalidResponse)}
	}
	return data, nil
}

// IsErrorFixture reports whether a mock-mode payload is the not-found document
// returned for unmapped endpoints.
func IsErrorFixture(raw []byte) bool {
	if !gjson.ValidBytes(raw) {
		return false
	}
	res := gjson.ParseBytes(raw)
	return res.Get("code").String() == "NOT_FOUND" && res.Get("error").Exists()
}
