// Package testutil provides testing utilities for the redirect proxy.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// XRPC paths served by the mock.
const (
	PathResolveHandle = "/xrpc/com.atproto.identity.resolveHandle"
	PathGetProfile    = "/xrpc/app.bsky.actor.getProfile"
	PathGetPostThread = "/xrpc/app.bsky.feed.getPostThread"
	PathGetBlob       = "/xrpc/com.atproto.sync.getBlob"
)

// MockAppView is a configurable mock AppView/PDS server for testing.
type MockAppView struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	PathCounts   map[string]int
}

// NewMockAppView creates a new mock AppView server. Paths without a
// configured handler answer 404.
func NewMockAppView() *MockAppView {
	mock := &MockAppView{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "NotFound"}`))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAppView) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAppView) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAppView) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
}

// SetHandler sets a custom handler for a specific XRPC path.
func (m *MockAppView) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetJSON configures a fixed JSON response for a path.
func (m *MockAppView) SetJSON(path string, statusCode int, body string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write([]byte(body))
	})
}

// SetHandle configures handle resolution to answer with the given DID.
func (m *MockAppView) SetHandle(did string) {
	m.SetJSON(PathResolveHandle, http.StatusOK, fmt.Sprintf(`{"did": %q}`, did))
}

// SetProfile configures the profile endpoint. Empty avatar or banner
// fields are omitted, matching the upstream's optional fields.
func (m *MockAppView) SetProfile(did, avatar, banner string) {
	body := fmt.Sprintf(`{"did": %q, "handle": "test.example"`, did)
	if avatar != "" {
		body += fmt.Sprintf(`, "avatar": %q`, avatar)
	}
	if banner != "" {
		body += fmt.Sprintf(`, "banner": %q`, banner)
	}
	body += "}"
	m.SetJSON(PathGetProfile, http.StatusOK, body)
}

// SetPostEmbed configures the post-thread endpoint with the given embed
// JSON fragment (or no embed at all when empty).
func (m *MockAppView) SetPostEmbed(did, postID, embedJSON string) {
	uri := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", did, postID)
	post := fmt.Sprintf(`{"uri": %q, "cid": "bafyreimock"`, uri)
	if embedJSON != "" {
		post += `, "embed": ` + embedJSON
	}
	post += "}"
	m.SetJSON(PathGetPostThread, http.StatusOK, fmt.Sprintf(`{"thread": {"post": %s}}`, post))
}

// SetBlobRedirect configures the sync getBlob endpoint to redirect to the
// given storage URL.
func (m *MockAppView) SetBlobRedirect(location string) {
	m.SetHandler(PathGetBlob, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusFound)
	})
}

// FailWith configures a path to answer with the given status code.
func (m *MockAppView) FailWith(path string, statusCode int) {
	m.SetJSON(path, statusCode, `{"error": "InternalServerError"}`)
}

// GetRequestCount returns the total number of requests seen.
func (m *MockAppView) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests seen for one path.
func (m *MockAppView) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}
