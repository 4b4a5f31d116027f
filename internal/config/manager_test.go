package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
  "logging": { "level": "debug", "console": true },
  "storage": { "driver": "file", "path": "./posts.json" },
  "scheduler": { "enabled": true, "interval": "30s", "rate_per_sec": 3 },
  "credentials": { "env_file": ".env" },
  "platforms": { "telegram": { "enabled": true } }
}`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Scheduler.Enabled {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Scheduler.Interval != "30s" || cfg.Scheduler.RatePerSec != 3 {
		t.Fatalf("scheduler section not parsed: %+v", cfg.Scheduler)
	}
	if !cfg.Platforms.Telegram.Enabled {
		t.Fatal("telegram toggle not parsed")
	}
}

func TestParseYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
logging:
  level: info
  console: true
storage:
  driver: file
  path: ./posts.json
scheduler:
  enabled: true
  interval: 1m
credentials:
  env_prefix: POSTER
platforms:
  telegram:
    enabled: false
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scheduler.Interval != "1m" || cfg.Credentials.EnvPrefix != "POSTER" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "config.json", `{"schedular": {"enabled": true}}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	path := writeFile(t, "config.json", `{"logging": {"level": "info", "console": true}} {}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	if d, err := ParseDurationField("x", "90s"); err != nil || d != 90*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty must be zero: %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "never"); err == nil {
		t.Fatal("expected error for bad duration")
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
}
