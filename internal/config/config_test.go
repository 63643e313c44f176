package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
storage:
  path: `+filepath.Join(dir, "appwatch.bolt")+`
tracking:
  event_journal: `+filepath.Join(dir, "events.ndjson")+`
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.PollInterval != "5s" {
		t.Fatalf("expected default poll_interval 5s, got %s", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.HourlyLookback != "1h" {
		t.Fatalf("expected default hourly_lookback 1h, got %s", cfg.Monitor.HourlyLookback)
	}
	if cfg.Storage.Type != "bolt" {
		t.Fatalf("expected default storage type bolt, got %s", cfg.Storage.Type)
	}
	if cfg.Notify.Channel != "usage-limit" {
		t.Fatalf("expected default channel usage-limit, got %s", cfg.Notify.Channel)
	}
	if cfg.Display.RefreshInterval != "50s" {
		t.Fatalf("expected default refresh_interval 50s, got %s", cfg.Display.RefreshInterval)
	}
	if cfg.Metrics.Port != 9216 {
		t.Fatalf("expected default metrics port 9216, got %d", cfg.Metrics.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
monitor:
  poll_interval: 10s
storage:
  type: redis
tracking:
  event_journal: `+filepath.Join(dir, "events.ndjson")+`
  allow_list:
    - com.vendor.launcher
notify:
  sink: log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.PollInterval != "10s" {
		t.Fatalf("expected poll_interval 10s, got %s", cfg.Monitor.PollInterval)
	}
	if cfg.Storage.Type != "redis" {
		t.Fatalf("expected storage type redis, got %s", cfg.Storage.Type)
	}
	if len(cfg.Tracking.AllowList) != 1 || cfg.Tracking.AllowList[0] != "com.vendor.launcher" {
		t.Fatalf("unexpected allow_list: %v", cfg.Tracking.AllowList)
	}
	if cfg.Notify.Sink != "log" {
		t.Fatalf("expected sink log, got %s", cfg.Notify.Sink)
	}
}

func TestLoadRejectsBadStorageType(t *testing.T) {
	path := writeConfig(t, `
storage:
  type: cassandra
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}

func TestLoadRejectsBadSink(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
storage:
  path: `+filepath.Join(dir, "appwatch.bolt")+`
notify:
  sink: carrier-pigeon
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown notify sink")
	}
}
