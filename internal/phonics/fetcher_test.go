package phonics

import (
	"context"
	"errors"
	"testing"

	"github.com/example/flashvoz/internal/api"
)

type fakeRulesClient struct {
	rules []api.PhonicsRule
	err   error
	calls int
}

func (f *fakeRulesClient) PhonicsRules(ctx context.Context) ([]api.PhonicsRule, error) {
	f.calls++
	return f.rules, f.err
}

func TestRulesAreCached(t *testing.T) {
	client := &fakeRulesClient{rules: []api.PhonicsRule{{Rule: "ll", SoundsLike: "y"}}}
	f := NewFetcher(client)

	for i := 0; i < 3; i++ {
		rules, err := f.Rules(context.Background())
		if err != nil {
			t.Fatalf("Rules() error = %v", err)
		}
		if len(rules) != 1 || rules[0].Rule != "ll" {
			t.Fatalf("rules = %+v", rules)
		}
	}
	if client.calls != 1 {
		t.Errorf("backend hit %d times, want 1", client.calls)
	}
}

func TestRulesErrorIsNotCached(t *testing.T) {
	client := &fakeRulesClient{err: errors.New("backend down")}
	f := NewFetcher(client)

	if _, err := f.Rules(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	client.err = nil
	client.rules = []api.PhonicsRule{{Rule: "ch"}}
	rules, err := f.Rules(context.Background())
	if err != nil {
		t.Fatalf("Rules() after recovery error = %v", err)
	}
	if len(rules) != 1 {
		t.Errorf("rules = %+v", rules)
	}
	if client.calls != 2 {
		t.Errorf("backend hit %d times, want 2", client.calls)
	}
}

func TestEmptyRulesIsAnError(t *testing.T) {
	client := &fakeRulesClient{}
	f := NewFetcher(client)

	if _, err := f.Rules(context.Background()); err == nil {
		t.Fatal("expected error for empty rule table")
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	client := &fakeRulesClient{rules: []api.PhonicsRule{{Rule: "ll"}}}
	f := NewFetcher(client)

	f.Rules(context.Background())
	f.Invalidate()
	f.Rules(context.Background())

	if client.calls != 2 {
		t.Errorf("backend hit %d times, want 2", client.calls)
	}
}
