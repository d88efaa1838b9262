// Package sdk is the Go client for the Birb Academy course platform. Every call
// goes through a single dispatcher that either talks to the real backend or
// answers from bundled JSON fixtures, so an application can be developed and
// demoed without any backend running.
//
// # Features
//
// The SDK provides:
//   - One switch between the real backend and mock fixtures
//   - Bearer token handling with automatic session tear-down on 401
//   - Pluggable session storage (memory, file, Redis)
//   - Typed services for users, courses, conversations and subscriptions
//   - Thread-safe operations with connection pooling
//   - Observer hooks for logging and metrics
//
// # Basic Usage
//
// Create a mock-mode client and browse the catalog:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/birbparty/birb-academy/sdk"
//	)
//
//	func main() {
//	    client, err := sdk.NewClient(sdk.DefaultConfig().WithMock(true))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer client.Close()
//
//	    ctx := context.Background()
//	    if _, err := client.Users.Login(ctx, sdk.Credentials{Username: "johndoe", Password: "x"}); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    courses, err := client.Courses.GetAllCourses(ctx, nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, c := range courses {
//	        fmt.Println(c.Title)
//	    }
//	}
//
// # Configuration
//
// The SDK can be configured using a fluent builder pattern:
//
//	config := sdk.DefaultConfig().
//	    WithBaseURL("https://api.academy.example.com").
//	    WithTimeout(5 * time.Second).
//	    WithSessionStore(sdk.NewFileSessionStore("session.json")).
//	    WithNavigator(sdk.NavigatorFunc(func(ctx context.Context, path string) {
//	        router.Push(path)
//	    }))
//
// or from ACADEMY_MOCK, ACADEMY_API_URL, ACADEMY_FIXTURE_PATH and
// ACADEMY_TIMEOUT with ConfigFromEnv.
//
// # Mock Mode
//
// In mock mode GET endpoints are normalized by replacing every all-digit path
// segment with ":id" and looked up in a FixtureMap:
//
//	/courses/7               -> /courses/:id               -> courses.json
//	/enrollments/3/progress  -> /enrollments/:id/progress  -> enrollments.json
//
// The whole fixture is returned; the typed services pick the record they need.
// Endpoints missing from the map get the "error" fixture, which the typed
// services report as ErrNotFound. Writes (POST, PUT, DELETE) are acknowledged
// with {"success": true, "data": <request body>} plus whatever the matching
// responder adds, such as the token and user for /auth/login. Nothing written
// in mock mode is ever read back.
//
// Fixtures come from the copy embedded in this package unless a FixtureLoader
// is configured: DirFixtures for a directory, NewHTTPFixtureLoader for a
// static asset host.
//
// # Error Handling
//
// Real-mode failures are returned without retries. Use errors.Is with the
// sentinels or errors.As with the richer types:
//
//	_, err := client.Users.GetProfile(ctx)
//	switch {
//	case errors.Is(err, sdk.ErrUnauthorized):
//	    // The session has already been cleared and the navigator sent to /login
//	case errors.Is(err, sdk.ErrForbidden):
//	    // Logged at warn level, nothing else changed
//	case sdk.IsNotFound(err):
//	    // No such record
//	}
//
//	var apiErr *sdk.APIError
//	if errors.As(err, &apiErr) {
//	    fmt.Println(apiErr.StatusCode, apiErr.Message)
//	}
//
// # Untyped Access
//
// Endpoints not covered by a service can be called through the dispatcher or
// the generic helpers:
//
//	raw, err := client.Request(ctx, "/courses/7", http.MethodGet, nil)
//	courses, err := sdk.Call[[]sdk.Course](ctx, client, "/courses", "", nil)
//
// # Monitoring
//
// Attach an Observer to watch dispatches, fixture lookups and session
// tear-downs:
//
//	metrics := sdk.NewMetricsCollector()
//	config := sdk.DefaultConfig().WithObserver(sdk.NewCompositeObserver(
//	    metrics,
//	    &sdk.LogObserver{Logger: logger},
//	))
//
// # Thread Safety
//
// Client, Dispatcher and the bundled session stores are safe for concurrent
// use. Concurrent 401s each clear the session; clearing is idempotent.
package sdk
