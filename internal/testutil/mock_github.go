// Package testutil provides testing utilities for the GitHub client stack.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock GitHub endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGitHub is a configurable mock GitHub API server for testing.
//
// Handlers are keyed by "METHOD /path" or by "/path" alone, the method form
// taking precedence.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	requestCount      int
	pathCounts        map[string]int
	lastRequestHeader http.Header
}

// NewMockGitHub creates a new mock GitHub server.
func NewMockGitHub() *MockGitHub {
	mock := &MockGitHub{
		handlers:   make(map[string]http.HandlerFunc),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.Method+" "+r.URL.Path]++
		mock.lastRequestHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.Method+" "+r.URL.Path]
		if !exists {
			handler, exists = mock.handlers[r.URL.Path]
		}
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))

	return mock
}

// URL returns the mock server URL with a trailing slash, usable as a client
// base URL.
func (m *MockGitHub) URL() string {
	return m.server.URL + "/"
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockGitHub) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.lastRequestHeader = nil
}

// SetHandler sets a custom handler for a route ("/path" or "METHOD /path").
func (m *MockGitHub) SetHandler(route string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[route] = handler
}

// SetResponse configures a canned response for a route.
func (m *MockGitHub) SetResponse(route string, resp MockResponse) {
	m.SetHandler(route, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetJSON configures a 200 response whose body is v encoded as JSON.
func (m *MockGitHub) SetJSON(route string, v any) {
	m.SetResponse(route, NewJSONResponse(http.StatusOK, v))
}

// RequestCount returns the number of requests made to the server.
func (m *MockGitHub) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// Calls returns the number of requests for a "METHOD /path" route.
func (m *MockGitHub) Calls(route string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[route]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockGitHub) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// NewJSONResponse creates a JSON response with healthy rate limit headers.
func NewJSONResponse(status int, v any) MockResponse {
	body, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: encode response: %v", err))
	}
	headers := RateLimitHeaders(5000, 4999, time.Now().Add(time.Hour))
	headers["Content-Type"] = "application/json; charset=utf-8"
	return MockResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    headers,
	}
}

// NewErrorResponse creates a GitHub style error response.
func NewErrorResponse(status int, message string) MockResponse {
	resp := NewJSONResponse(status, map[string]string{"message": message})
	return resp
}

// NewRateLimitResponse creates a 403 response with an exhausted budget.
func NewRateLimitResponse(resetAt time.Time) MockResponse {
	headers := RateLimitHeaders(60, 0, resetAt)
	headers["Content-Type"] = "application/json; charset=utf-8"
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"message":"API rate limit exceeded"}`,
		Headers:    headers,
	}
}

// RateLimitHeaders builds the X-RateLimit-* header set.
func RateLimitHeaders(limit, remaining int, resetAt time.Time) map[string]string {
	return map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(limit),
		"X-RateLimit-Remaining": strconv.Itoa(remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(resetAt.Unix(), 10),
		"X-RateLimit-Resource":  "core",
	}
}

// LinkHeader builds a Link header for path on base. Zero page numbers omit
// the relation.
func LinkHeader(base, path string, perPage, first, prev, next, last int) string {
	var parts []string
	add := func(rel string, page int) {
		if page <= 0 {
			return
		}
		parts = append(parts, fmt.Sprintf(`<%s%s?page=%d&per_page=%d>; rel="%s"`,
			strings.TrimSuffix(base, "/"), path, page, perPage, rel))
	}
	add("prev", prev)
	add("next", next)
	add("last", last)
	add("first", first)
	return strings.Join(parts, ", ")
}
