package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServerConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapcarta-server.toml")
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Port)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be created at %s: %v", path, err)
	}
}

func TestLoadServerConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapcarta-server.toml")
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_TOKEN", "secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090 from env", cfg.Port)
	}
	if cfg.AuthToken != "secret" {
		t.Errorf("AuthToken = %q, want %q", cfg.AuthToken, "secret")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want Debug", cfg.LogLevel)
	}
}

func TestLoadAgentConfigRejectsEmptyServerURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapcarta-agent.toml")
	if err := os.WriteFile(path, []byte("[server]\nurl = \"\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadAgentConfig(path); err == nil {
		t.Fatal("expected an error for an empty server.url")
	}
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	if _, err := parseLevel("verbose"); err == nil {
		t.Fatal("expected an error for an unknown log level")
	}
}

func TestParseLevelAcceptsFullEnum(t *testing.T) {
	trace, err := parseLevel("trace")
	if err != nil {
		t.Fatalf("parseLevel(trace): %v", err)
	}
	if trace >= slog.LevelDebug {
		t.Errorf("trace level = %v, want more verbose than Debug", trace)
	}

	fatal, err := parseLevel("fatal")
	if err != nil {
		t.Fatalf("parseLevel(fatal): %v", err)
	}
	if fatal <= slog.LevelError {
		t.Errorf("fatal level = %v, want more severe than Error", fatal)
	}
}
