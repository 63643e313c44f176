package appmeta

import (
	"errors"
	"testing"
)

// countingProvider records how often the inner lookup runs.
type countingProvider struct {
	inner Provider
	calls int
}

func (p *countingProvider) Label(appID string) (string, error) {
	p.calls++
	return p.inner.Label(appID)
}

func (p *countingProvider) IsSystemApp(appID string) (bool, error) {
	p.calls++
	return p.inner.IsSystemApp(appID)
}

func TestCachedServesFromCache(t *testing.T) {
	counting := &countingProvider{inner: NewStaticProvider(map[string]Entry{
		"org.example.game": {Label: "Game"},
	})}

	cached, err := NewCached(counting, 8)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	for i := 0; i < 3; i++ {
		label, err := cached.Label("org.example.game")
		if err != nil {
			t.Fatalf("Label: %v", err)
		}
		if label != "Game" {
			t.Fatalf("expected Game, got %q", label)
		}
	}

	// One fill resolves both label and system flag from the inner
	// provider; later hits never touch it again.
	if counting.calls != 2 {
		t.Fatalf("expected 2 inner lookups for one fill, got %d", counting.calls)
	}

	// IsSystemApp for the same identifier rides the same entry.
	if _, err := cached.IsSystemApp("org.example.game"); err != nil {
		t.Fatalf("IsSystemApp: %v", err)
	}
	if counting.calls != 2 {
		t.Fatalf("expected cached entry to serve IsSystemApp, got %d inner lookups", counting.calls)
	}
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	inner := NewStaticProvider(nil)
	counting := &countingProvider{inner: inner}

	cached, err := NewCached(counting, 8)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := cached.Label("org.example.game"); !errors.Is(err, ErrUnknownApp) {
			t.Fatalf("expected ErrUnknownApp, got %v", err)
		}
	}
	if counting.calls != 2 {
		t.Fatalf("expected failures to bypass the cache, got %d inner lookups", counting.calls)
	}

	// Once the provider recovers, the lookup succeeds and caches.
	inner.Set("org.example.game", Entry{Label: "Game"})

	if _, err := cached.Label("org.example.game"); err != nil {
		t.Fatalf("Label after recovery: %v", err)
	}
	callsAfterFill := counting.calls
	if _, err := cached.Label("org.example.game"); err != nil {
		t.Fatalf("Label: %v", err)
	}
	if counting.calls != callsAfterFill {
		t.Fatalf("expected cached hit after recovery, got %d inner lookups", counting.calls)
	}
}

func TestCachedDefaultSize(t *testing.T) {
	cached, err := NewCached(NewStaticProvider(nil), 0)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	if cached == nil {
		t.Fatal("expected cache with default size")
	}
}
