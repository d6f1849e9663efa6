// Package testutil provides testing utilities for the LeanKit client.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// SearchPath mirrors leankit.SearchPath without importing it.
const SearchPath = "/v1/card/search"

// MockResponse defines the behavior for a mock LeanKit endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCard is a card as served by the mock search endpoint.
type MockCard struct {
	ID           int64  `json:"Id"`
	Title        string `json:"Title"`
	LastActivity string `json:"LastActivity"`
}

// SearchRequest is a decoded card search request body.
type SearchRequest struct {
	AssignedUserIds       []int64 `json:"AssignedUserIds"`
	SearchInRecentArchive bool    `json:"SearchInRecentArchive"`
	SearchInOldArchive    bool    `json:"SearchInOldArchive"`
	SearchInBoard         bool    `json:"SearchInBoard"`
	Page                  int     `json:"Page"`
}

// MockLeanKit is a configurable mock LeanKit API server for testing.
type MockLeanKit struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	AuthCount         int
	LastRequestHeader http.Header
	RequestTimes      []time.Time
	Searches          []SearchRequest
}

// NewMockLeanKit creates a new mock LeanKit server.
func NewMockLeanKit() *MockLeanKit {
	mock := &MockLeanKit{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.RequestTimes = append(mock.RequestTimes, time.Now())
		if _, _, ok := r.BasicAuth(); ok {
			mock.AuthCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockLeanKit) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockLeanKit) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockLeanKit) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.AuthCount = 0
	m.LastRequestHeader = nil
	m.RequestTimes = nil
	m.Searches = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockLeanKit) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockLeanKit) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
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

// SetSearchPages serves pages[i] for Page i+1 of the search endpoint, each
// reply reporting total as TotalResults. Pages past the end are empty.
func (m *MockLeanKit) SetSearchPages(total int, pages ...[]MockCard) {
	m.SetHandler(SearchPath, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var req SearchRequest
		if err := json.Unmarshal(body, &req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		m.Searches = append(m.Searches, req)
		m.mu.Unlock()

		results := []MockCard{}
		if req.Page >= 1 && req.Page <= len(pages) {
			results = pages[req.Page-1]
		}

		data := []map[string]any{{
			"TotalResults": total,
			"Results":      results,
		}}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(EnvelopeBody(200, "Card search successful", data)))
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockLeanKit) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetAuthCount returns the number of requests carrying basic auth.
func (m *MockLeanKit) GetAuthCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.AuthCount
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockLeanKit) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// GetRequestTimes returns the arrival time of every request.
func (m *MockLeanKit) GetRequestTimes() []time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Time(nil), m.RequestTimes...)
}

// GetSearches returns the decoded search request bodies.
func (m *MockLeanKit) GetSearches() []SearchRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]SearchRequest(nil), m.Searches...)
}

// EnvelopeBody renders a LeanKit reply envelope.
func EnvelopeBody(code int, text string, data any) string {
	body, err := json.Marshal(map[string]any{
		"ReplyCode": code,
		"ReplyText": text,
		"ReplyData": data,
	})
	if err != nil {
		panic(fmt.Sprintf("marshal envelope: %v", err))
	}
	return string(body)
}

// NewReplyResponse creates an HTTP 200 response carrying the given reply code.
func NewReplyResponse(code int, text string, data any) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       EnvelopeBody(code, text, data),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewUnauthorizedResponse creates the reply LeanKit sends for bad credentials.
func NewUnauthorizedResponse() MockResponse {
	return NewReplyResponse(1000, "Unauthorized access", nil)
}

// NewServerErrorResponse creates a 500 Internal Server Error response whose
// body is not an envelope.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `<html>Internal server error</html>`,
		Headers: map[string]string{
			"Content-Type": "text/html",
		},
	}
}

// GenerateCards builds n cards whose activity starts at start and advances by step.
func GenerateCards(firstID int64, n int, start time.Time, step time.Duration) []MockCard {
	cards := make([]MockCard, 0, n)
	for i := 0; i < n; i++ {
		id := firstID + int64(i)
		cards = append(cards, MockCard{
			ID:           id,
			Title:        fmt.Sprintf("Card %d", id),
			LastActivity: start.Add(time.Duration(i) * step).Format("01/02/2006 03:04:05 PM"),
		})
	}
	return cards
}
