package sdk

import (
	"context"
	"sync"
)

// Navigator performs the forced navigation to the login entry point after the
// session has been torn down. Navigating to the page already shown must be a no-op
// for the user.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(ctx context.Context, path string) {
	f(ctx, path)
}

// NoopNavigator ignores navigation requests. Headless callers inspect the
// returned error instead.
type NoopNavigator struct{}

// Navigate implements Navigator.
func (NoopNavigator) Navigate(context.Context, string) {}

// RecordingNavigator remembers every navigation target, useful in tests and CLIs.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

// Navigate implements Navigator.
func (n *RecordingNavigator) Navigate(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns the recorded navigation targets in order.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// Last returns the most recent navigation target, or "" if none.
func (n *RecordingNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}
