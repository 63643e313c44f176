package appmeta

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadStaticProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.json")
	index := `{
		"com.google.android.youtube": {"label": "YouTube", "system": false},
		"com.android.systemui": {"label": "System UI", "system": true},
		"com.vendor.browser": {"label": "Browser", "updated_system": true}
	}`
	if err := os.WriteFile(path, []byte(index), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}

	p, err := LoadStaticProvider(path)
	if err != nil {
		t.Fatalf("LoadStaticProvider: %v", err)
	}

	label, err := p.Label("com.google.android.youtube")
	if err != nil {
		t.Fatalf("Label: %v", err)
	}
	if label != "YouTube" {
		t.Fatalf("expected YouTube, got %q", label)
	}

	system, err := p.IsSystemApp("com.android.systemui")
	if err != nil {
		t.Fatalf("IsSystemApp: %v", err)
	}
	if !system {
		t.Fatal("expected systemui to be a system app")
	}

	// updated_system counts as system
	system, err = p.IsSystemApp("com.vendor.browser")
	if err != nil {
		t.Fatalf("IsSystemApp: %v", err)
	}
	if !system {
		t.Fatal("expected updated-system app to count as system")
	}
}

func TestLoadStaticProviderMissingFile(t *testing.T) {
	p, err := LoadStaticProvider(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("expected empty provider for missing file, got error: %v", err)
	}

	if _, err := p.Label("anything"); !errors.Is(err, ErrUnknownApp) {
		t.Fatalf("expected ErrUnknownApp, got %v", err)
	}
}

func TestLoadStaticProviderBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}

	if _, err := LoadStaticProvider(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStaticProviderUnknownApp(t *testing.T) {
	p := NewStaticProvider(nil)

	if _, err := p.Label("org.unknown"); !errors.Is(err, ErrUnknownApp) {
		t.Fatalf("expected ErrUnknownApp, got %v", err)
	}
	if _, err := p.IsSystemApp("org.unknown"); !errors.Is(err, ErrUnknownApp) {
		t.Fatalf("expected ErrUnknownApp, got %v", err)
	}
}
