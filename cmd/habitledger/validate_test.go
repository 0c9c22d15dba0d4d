package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goodtune/habitledger/internal/config"
	"github.com/spf13/viper"
)

func TestValidKeysCoverDefaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	valid := getValidKeys()
	for _, key := range v.AllKeys() {
		if !valid[key] {
			t.Errorf("default key %s missing from valid keys", key)
		}
	}
}

func TestFindUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
storage:
  type: bolt
  pathh: /tmp/typo.db
tracker:
  retention: month
colour: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	unknown, err := findUnknownKeys(path)
	if err != nil {
		t.Fatalf("findUnknownKeys: %v", err)
	}
	if len(unknown) != 2 || unknown[0] != "colour" || unknown[1] != "storage.pathh" {
		t.Errorf("unknown = %v, want [colour storage.pathh]", unknown)
	}
}

func TestRedactPassword(t *testing.T) {
	if redactPassword("") != "" {
		t.Error("empty password must stay empty")
	}
	if redactPassword("hunter2") != "***REDACTED***" {
		t.Error("password not redacted")
	}
}
