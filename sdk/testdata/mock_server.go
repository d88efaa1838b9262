package testdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MockServer is a configurable stand-in for the academy backend.
type MockServer struct {
	*httptest.Server
	mu           sync.RWMutex
	handlers     map[string]HandlerFunc
	requestCount atomic.Int32
	requests     []RecordedRequest
}

// HandlerFunc is a custom handler function type
type HandlerFunc func(w http.ResponseWriter, r *http.Request) (int, interface{})

// RecordedRequest stores information about a received request
type RecordedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
	Time    time.Time
}

// NewMockServer creates a new mock server with the default academy handlers.
func NewMockServer() *MockServer {
	ms := &MockServer{
		handlers: make(map[string]HandlerFunc),
		requests: make([]RecordedRequest, 0),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", ms.handleRequest)

	ms.Server = httptest.NewServer(mux)
	ms.setupDefaultHandlers()

	return ms
}

// setupDefaultHandlers sets up common handlers
func (ms *MockServer) setupDefaultHandlers() {
	ms.RegisterHandler("GET /health", func(w http.ResponseWriter, r *http.Request) (int, interface{}) {
		return http.StatusOK, map[string]interface{}{"status": "healthy", "service": "academy-api"}
	})

	ms.RegisterHandler("POST /auth/login", func(w http.ResponseWriter, r *http.Request) (int, interface{}) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != Student["username"] || body.Password != StudentPassword {
			return http.StatusUnauthorized, errorBody("Invalid credentials", "UNAUTHORIZED")
		}
		return http.StatusOK, map[string]interface{}{"token": StudentToken, "user": Student}
	})

	ms.RegisterHandler("GET /users/profile", ms.authorized(func(w http.ResponseWriter, r *http.Request) (int, interface{}) {
		return http.StatusOK, Student
	}))

	ms.RegisterHandler("GET /courses", func(w http.ResponseWriter, r *http.Request) (int, interface{}) {
		return http.StatusOK, Courses
	})

	ms.RegisterHandler("GET /courses/", func(w http.ResponseWriter, r *http.Request) (int, interface{}) {
		id := strings.TrimPrefix(r.URL.Path, "/courses/")
		for _, c := range Courses {
			if fmt.Sprint(c["id"]) == id {
				return http.StatusOK, c
			}
		}
		return http.StatusNotFound, errorBody("Course not found", "NOT_FOUND")
	})
}

// authorized rejects requests without the student's bearer token with a 401.
func (ms *MockServer) authorized(next HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) (int, interface{}) {
		if r.Header.Get("Authorization") != "Bearer "+StudentToken {
			return http.StatusUnauthorized, errorBody("Invalid or expired token", "UNAUTHORIZED")
		}
		return next(w, r)
	}
}

// RegisterHandler registers a custom handler for a specific method and path pattern.
// Patterns ending in "/" match any path with that prefix.
func (ms *MockServer) RegisterHandler(pattern string, handler HandlerFunc) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers[pattern] = handler
}

// handleRequest routes requests to appropriate handlers
func (ms *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	body := make([]byte, 0)
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	ms.mu.Lock()
	ms.requests = append(ms.requests, RecordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Headers: r.Header.Clone(),
		Body:    body,
		Time:    time.Now(),
	})
	ms.mu.Unlock()

	ms.requestCount.Add(1)

	pattern := r.Method + " " + r.URL.Path
	ms.mu.RLock()
	handler, exact := ms.handlers[pattern]
	if !exact {
		// Longest prefix wins for dynamic paths
		best := ""
		for p, h := range ms.handlers {
			if strings.HasSuffix(p, "/") && strings.HasPrefix(pattern, p) && len(p) > len(best) {
				best, handler = p, h
			}
		}
	}
	ms.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", "req-"+time.Now().Format("150405.000000"))

	if handler == nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(errorBody("Not found", "NOT_FOUND"))
		return
	}

	status, response := handler(w, r)
	w.WriteHeader(status)

	if response != nil {
		json.NewEncoder(w).Encode(response)
	}
}

// GetRequestCount returns the total number of requests received
func (ms *MockServer) GetRequestCount() int {
	return int(ms.requestCount.Load())
}

// GetRequests returns all recorded requests
func (ms *MockServer) GetRequests() []RecordedRequest {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	result := make([]RecordedRequest, len(ms.requests))
	copy(result, ms.requests)
	return result
}

// LastRequest returns the most recent request, or nil if none was received.
func (ms *MockServer) LastRequest() *RecordedRequest {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if len(ms.requests) == 0 {
		return nil
	}
	req := ms.requests[len(ms.requests)-1]
	return &req
}

// Reset clears all recorded requests
func (ms *MockServer) Reset() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.requestCount.Store(0)
	ms.requests = ms.requests[:0]
}

// WithErrorResponse sets up a handler that returns an error
func (ms *MockServer) WithErrorResponse(pattern string, statusCode int, errorMsg string) {
	ms.RegisterHandler(pattern, func(w http.ResponseWriter, r *http.Request) (int, interface{}) {
		return statusCode, errorBody(errorMsg, http.StatusText(statusCode))
	})
}

// WithDelayedResponse sets up a handler that delays before responding
func (ms *MockServer) WithDelayedResponse(pattern string, delay time.Duration, handler HandlerFunc) {
	ms.RegisterHandler(pattern, func(w http.ResponseWriter, r *http.Request) (int, interface{}) {
		time.Sleep(delay)
		return handler(w, r)
	})
}

// WithStatusSequence answers successive requests with the given statuses,
// repeating the last one once the sequence is exhausted.
func (ms *MockServer) WithStatusSequence(pattern string, statuses ...int) {
	calls := atomic.Int32{}
	ms.RegisterHandler(pattern, func(w http.ResponseWriter, r *http.Request) (int, interface{}) {
		i := int(calls.Add(1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		status := statuses[i]
		if status >= 400 {
			return status, errorBody(http.StatusText(status), http.StatusText(status))
		}
		return status, map[string]string{"status": "ok"}
	})
}

// Close shuts down the mock server
func (ms *MockServer) Close() {
	if ms.Server != nil {
		ms.Server.Close()
	}
}

func errorBody(msg, code string) map[string]string {
	return map[string]string{"error": msg, "code": code}
}
