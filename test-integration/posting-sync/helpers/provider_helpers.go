package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/stacklok/posting-sync/internal/provider"
)

// ProviderPosting is one search result served by MockProvider
type ProviderPosting struct {
	ID        string
	CompanyID string
	Title     string
	URL       string
}

// MockProvider is a recruiting provider answering keyword searches from
// an in-memory table
type MockProvider struct {
	server *httptest.Server

	mu       sync.Mutex
	postings map[string][]ProviderPosting
	failures map[string]int
	requests map[string]int
}

// NewMockProvider starts a provider server
func NewMockProvider() *MockProvider {
	p := &MockProvider{
		postings: make(map[string][]ProviderPosting),
		failures: make(map[string]int),
		requests: make(map[string]int),
	}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	return p
}

// URL returns the provider base URL
func (p *MockProvider) URL() string {
	return p.server.URL
}

// Close stops the provider server
func (p *MockProvider) Close() {
	p.server.Close()
}

// SetPostings replaces the results returned for keyword
func (p *MockProvider) SetPostings(keyword string, postings ...ProviderPosting) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.postings[keyword] = postings
}

// FailWith makes every search for keyword answer with status
func (p *MockProvider) FailWith(keyword string, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[keyword] = status
}

// Requests returns how many searches were made for keyword
func (p *MockProvider) Requests(keyword string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[keyword]
}

func (p *MockProvider) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != provider.DefaultSearchPath {
		http.NotFound(w, r)
		return
	}
	keyword := r.URL.Query().Get(provider.DefaultKeywordParam)

	p.mu.Lock()
	p.requests[keyword]++
	status := p.failures[keyword]
	postings := p.postings[keyword]
	p.mu.Unlock()

	if status != 0 {
		http.Error(w, "provider failure", status)
		return
	}

	results := make([]map[string]any, 0, len(postings))
	for _, posting := range postings {
		results = append(results, map[string]any{
			"id":      posting.ID,
			"company": map[string]string{"id": posting.CompanyID},
			"title":   posting.Title,
			"url":     posting.URL,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
}
