// Package phonics provides the phonics reference rules shown in the phonics
// window, fetched once from the backend and cached for the process lifetime.
package phonics

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/flashvoz/internal/api"
)

// RulesClient fetches phonics rules. *api.Client implements it.
type RulesClient interface {
	PhonicsRules(ctx context.Context) ([]api.PhonicsRule, error)
}

// Fetcher caches the phonics rule table after the first successful fetch.
// The table is static reference data; re-fetching it per window open would
// be wasted traffic.
type Fetcher struct {
	client RulesClient

	mu     sync.Mutex
	cached []api.PhonicsRule
}

// NewFetcher creates a Fetcher.
func NewFetcher(client RulesClient) *Fetcher {
	return &Fetcher{client: client}
}

// Rules returns the phonics rules, fetching them on first use.
func (f *Fetcher) Rules(ctx context.Context) ([]api.PhonicsRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != nil {
		return f.cached, nil
	}

	rules, err := f.client.PhonicsRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch phonics rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no phonics rules found")
	}

	f.cached = rules
	return f.cached, nil
}

// Invalidate drops the cache so the next Rules call re-fetches.
func (f *Fetcher) Invalidate() {
	f.mu.Lock()
	f.cached = nil
	f.mu.Unlock()
}
