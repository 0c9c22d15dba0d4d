package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Type != "bolt" {
		t.Errorf("Storage.Type = %s, want bolt", cfg.Storage.Type)
	}
	if cfg.Tracker.DefaultTitle != "Reward Tracker" {
		t.Errorf("Tracker.DefaultTitle = %q", cfg.Tracker.DefaultTitle)
	}
	if cfg.Tracker.RolloverCheckInterval != "5m" {
		t.Errorf("Tracker.RolloverCheckInterval = %s", cfg.Tracker.RolloverCheckInterval)
	}
	if cfg.Tracker.Retention != "all" {
		t.Errorf("Tracker.Retention = %s", cfg.Tracker.Retention)
	}
	if cfg.Display.Currency != "€" {
		t.Errorf("Display.Currency = %s", cfg.Display.Currency)
	}
	if cfg.Storage.Redis.KeyPrefix != "habitledger" {
		t.Errorf("Storage.Redis.KeyPrefix = %s", cfg.Storage.Redis.KeyPrefix)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  type: redis
  redis:
    host: cache.internal
    port: 6380
    key_prefix: piano
tracker:
  default_title: Piano practice
  retention: month
  rollover_check_interval: 1m
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Type != "redis" || cfg.Storage.Redis.Host != "cache.internal" || cfg.Storage.Redis.Port != 6380 {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.Redis.KeyPrefix != "piano" {
		t.Errorf("KeyPrefix = %s", cfg.Storage.Redis.KeyPrefix)
	}
	if cfg.Tracker.Retention != "month" {
		t.Errorf("Retention = %s", cfg.Tracker.Retention)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s", cfg.Logging.Level)
	}
	// unset keys keep their defaults
	if cfg.Storage.Redis.DialTimeout != "2s" {
		t.Errorf("DialTimeout = %s", cfg.Storage.Redis.DialTimeout)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HABITLEDGER_TRACKER_DEFAULT_TITLE", "Reading")
	t.Setenv("HABITLEDGER_LOGGING_LEVEL", "error")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tracker.DefaultTitle != "Reading" {
		t.Errorf("DefaultTitle = %q, want Reading", cfg.Tracker.DefaultTitle)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error", cfg.Logging.Level)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown storage",
			content: "storage:\n  type: sqlite\n",
			wantErr: "unsupported storage type",
		},
		{
			name:    "bad retention",
			content: "tracker:\n  retention: forever\n",
			wantErr: "invalid retention",
		},
		{
			name:    "bad interval",
			content: "tracker:\n  rollover_check_interval: soon\n",
			wantErr: "rollover_check_interval",
		},
		{
			name:    "negative interval",
			content: "tracker:\n  rollover_check_interval: -1m\n",
			wantErr: "must be positive",
		},
		{
			name:    "bad level",
			content: "logging:\n  level: loud\n",
			wantErr: "invalid logging level",
		},
		{
			name:    "blank title",
			content: "tracker:\n  default_title: \"  \"\n",
			wantErr: "default_title",
		},
		{
			name:    "bad redis port",
			content: "storage:\n  type: redis\n  redis:\n    port: 70000\n",
			wantErr: "invalid redis port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	if _, err := Load(writeConfig(t, "storage: [unterminated\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
