package collector

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// mockAPIServer simulates the image search API, the content-community token
// and search endpoints, and an image host behind both.
type mockAPIServer struct {
	server *httptest.Server

	bingKey     string
	redditToken string

	mu             sync.RWMutex
	bingResults    map[string][]string
	redditResults  map[string][]string
	errorResponses map[string]int // path prefix -> status code
	images         map[string][]byte

	requestCount int32
	tokenCount   int32
}

func newMockAPIServer(t *testing.T) *mockAPIServer {
	t.Helper()
	m := &mockAPIServer{
		bingKey:        "bing-test-key",
		redditToken:    "reddit-test-token",
		bingResults:    make(map[string][]string),
		redditResults:  make(map[string][]string),
		errorResponses: make(map[string]int),
		images:         make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v7.0/images/search", m.handleBingSearch)
	mux.HandleFunc("/api/v1/access_token", m.handleToken)
	mux.HandleFunc("/r/", m.handleRedditSearch)
	mux.HandleFunc("/img/", m.handleImage)

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockAPIServer) URL() string { return m.server.URL }

// AddImage serves body at /img/<name> and returns its URL
func (m *mockAPIServer) AddImage(name string, body []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[name] = body
	return m.server.URL + "/img/" + name
}

func (m *mockAPIServer) SetBingResults(query string, urls ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bingResults[query] = urls
}

func (m *mockAPIServer) SetRedditResults(query string, urls ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redditResults[query] = urls
}

// SetErrorResponse makes every request under prefix fail with code
func (m *mockAPIServer) SetErrorResponse(prefix string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[prefix] = code
}

func (m *mockAPIServer) RequestCount() int { return int(atomic.LoadInt32(&m.requestCount)) }
func (m *mockAPIServer) TokenCount() int   { return int(atomic.LoadInt32(&m.tokenCount)) }

func (m *mockAPIServer) injectedError(w http.ResponseWriter, r *http.Request) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for prefix, code := range m.errorResponses {
		if strings.HasPrefix(r.URL.Path, prefix) {
			http.Error(w, http.StatusText(code), code)
			return true
		}
	}
	return false
}

func (m *mockAPIServer) handleBingSearch(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if m.injectedError(w, r) {
		return
	}
	if r.Header.Get("Ocp-Apim-Subscription-Key") != m.bingKey {
		http.Error(w, `{"error":{"code":"401"}}`, http.StatusUnauthorized)
		return
	}

	m.mu.RLock()
	urls := m.bingResults[r.URL.Query().Get("q")]
	m.mu.RUnlock()

	value := make([]map[string]string, 0, len(urls))
	for _, u := range urls {
		value = append(value, map[string]string{"contentUrl": u})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"value": value})
}

func (m *mockAPIServer) handleToken(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	atomic.AddInt32(&m.tokenCount, 1)
	if m.injectedError(w, r) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	id, _, ok := r.BasicAuth()
	if !ok || id == "" || r.FormValue("grant_type") != "password" || r.FormValue("password") != "hunter2" {
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": m.redditToken,
		"token_type":   "bearer",
		"expires_in":   3600,
	})
}

func (m *mockAPIServer) handleRedditSearch(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if m.injectedError(w, r) {
		return
	}
	if r.Header.Get("Authorization") != "bearer "+m.redditToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	m.mu.RLock()
	urls := m.redditResults[r.URL.Query().Get("q")]
	m.mu.RUnlock()

	children := make([]map[string]interface{}, 0, len(urls))
	for _, u := range urls {
		children = append(children, map[string]interface{}{"data": map[string]string{"url": u}})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{"children": children},
	})
}

func (m *mockAPIServer) handleImage(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if m.injectedError(w, r) {
		return
	}

	m.mu.RLock()
	body, ok := m.images[strings.TrimPrefix(r.URL.Path, "/img/")]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(body)
}
