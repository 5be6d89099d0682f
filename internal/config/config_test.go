package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadWritesDefaultOnMissing(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("config differs from defaults: %+v", cfg)
	}
}

func TestLoadReadsFileValues(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")

	content := "server_url: http://example.com:9000\nbot_enabled: false\nhttp_timeout: 5s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://example.com:9000" {
		t.Fatalf("server url = %q", cfg.ServerURL)
	}
	if cfg.BotEnabled {
		t.Fatal("bot_enabled = true, want false")
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("http timeout = %v, want 5s", cfg.HTTPTimeout)
	}
	// values absent from the file keep their defaults
	if cfg.StatePath != Default().StatePath {
		t.Fatalf("state path = %q, want default", cfg.StatePath)
	}
}

func TestUpdateFromSkipsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{ServerURL: "http://other:8080", LogLevel: ""})

	if cfg.ServerURL != "http://other:8080" {
		t.Fatalf("server url = %q", cfg.ServerURL)
	}
	if cfg.LogLevel != Default().LogLevel {
		t.Fatalf("log level changed to %q", cfg.LogLevel)
	}
}
