// Package testutil provides testing utilities for the product feed client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock upstream response.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockFeed is a configurable mock upstream category feed.
type MockFeed struct {
	server    *httptest.Server
	mu        sync.RWMutex
	handlers  map[string]http.HandlerFunc
	sequences map[string][]MockResponse
	counts    map[string]int
	total     int
}

// NewMockFeed creates a new mock upstream server. Unconfigured paths answer
// 404.
func NewMockFeed() *MockFeed {
	mock := &MockFeed{
		handlers:  make(map[string]http.HandlerFunc),
		sequences: make(map[string][]MockResponse),
		counts:    make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.EscapedPath()

		mock.mu.Lock()
		mock.total++
		mock.counts[path]++
		call := mock.counts[path]
		handler, hasHandler := mock.handlers[path]
		seq := mock.sequences[path]
		mock.mu.Unlock()

		if hasHandler {
			handler(w, r)
			return
		}

		if len(seq) == 0 {
			http.NotFound(w, r)
			return
		}

		// The last response repeats once the sequence is used up
		idx := call - 1
		if idx >= len(seq) {
			idx = len(seq) - 1
		}
		writeResponse(w, r, seq[idx])
	}))

	return mock
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp MockResponse) {
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// URL returns the mock server URL.
func (m *MockFeed) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockFeed) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockFeed) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]int)
	m.total = 0
}

// SetHandler sets a custom handler for an escaped path such as "/Shoes".
func (m *MockFeed) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockFeed) SetResponse(path string, resp MockResponse) {
	m.SetSequence(path, resp)
}

// SetSequence configures responses returned on successive calls to a path.
func (m *MockFeed) SetSequence(path string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, path)
	m.sequences[path] = responses
}

// RequestCount returns the number of requests made to a path.
func (m *MockFeed) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[path]
}

// TotalRequests returns the number of requests made to the server.
func (m *MockFeed) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

// NewProductsResponse creates a 200 OK response with records as JSON body.
func NewProductsResponse(records ...map[string]any) MockResponse {
	if records == nil {
		records = []map[string]any{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		panic(err)
	}
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "Not found"}`,
	}
}

// NewMalformedResponse creates a 200 OK response whose body is not JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>not json</html>`,
	}
}

// NewSlowResponse creates a response delayed by d.
func NewSlowResponse(d time.Duration, resp MockResponse) MockResponse {
	resp.Delay = d
	return resp
}

// Product builds a valid upstream record.
func Product(title string) map[string]any {
	return map[string]any{
		"title_clean":    title,
		"media_urls":     "https://img.example.com/" + title + ".jpg",
		"converted_link": "https://shop.example.com/" + title,
	}
}
