package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("unexpected path %q", resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.FailoverGrace != 3*time.Second || cfg.ClientBuffer != 64 || cfg.Addr != ":8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	file := "addr: \":9000\"\nfailover_grace: 5s\ndatabase_path: audit.db\n"
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HUDDLE_ADDR", ":9100")
	t.Setenv("HUDDLE_JWT_REQUIRED", "true")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Fatalf("env should win over file, got %q", cfg.Addr)
	}
	if cfg.FailoverGrace != 5*time.Second || cfg.DatabasePath != "audit.db" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if !cfg.JWTRequired {
		t.Fatalf("env bool not applied")
	}
	if cfg.MaxTrackedMessages != 1000 {
		t.Fatalf("default lost: %d", cfg.MaxTrackedMessages)
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1234", LogLevel: "debug"})
	if cfg.Addr != ":1234" || cfg.LogLevel != "debug" || cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("unexpected merge: %+v", cfg)
	}
}
