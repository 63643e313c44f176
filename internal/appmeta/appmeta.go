// Package appmeta resolves application metadata: human-readable labels
// and whether an identifier belongs to a system component. The engine
// treats this as an external lookup that may fail per call.
package appmeta

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrUnknownApp is returned when no metadata exists for an identifier.
var ErrUnknownApp = errors.New("appmeta: unknown application")

// Provider looks up application metadata.
type Provider interface {
	// Label returns the display label for an app identifier.
	Label(appID string) (string, error)

	// IsSystemApp reports whether the identifier belongs to a system
	// or updated-system component.
	IsSystemApp(appID string) (bool, error)
}

// Entry is one application's metadata record.
type Entry struct {
	Label     string `json:"label"`
	System    bool   `json:"system"`
	UpdatedOS bool   `json:"updated_system"`
}

// StaticProvider serves metadata from an in-memory table, typically
// loaded from the collector's app index file.
type StaticProvider struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStaticProvider creates a provider over the given table.
func NewStaticProvider(entries map[string]Entry) *StaticProvider {
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return &StaticProvider{entries: entries}
}

// LoadStaticProvider reads a JSON app index file mapping app
// identifiers to metadata entries. A missing file yields an empty
// provider: every lookup then fails, and callers fall back per their
// own rules.
func LoadStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStaticProvider(nil), nil
		}
		return nil, fmt.Errorf("read app index: %w", err)
	}

	entries := make(map[string]Entry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse app index: %w", err)
	}
	return NewStaticProvider(entries), nil
}

// Set inserts or replaces an entry.
func (p *StaticProvider) Set(appID string, entry Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[appID] = entry
}

// Label implements Provider.
func (p *StaticProvider) Label(appID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.entries[appID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownApp, appID)
	}
	return entry.Label, nil
}

// IsSystemApp implements Provider.
func (p *StaticProvider) IsSystemApp(appID string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.entries[appID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownApp, appID)
	}
	return entry.System || entry.UpdatedOS, nil
}
