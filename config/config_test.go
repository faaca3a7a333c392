package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "designlab.yaml")
	data := `
target: "Landing page redesign"
variants: [A, B, C]
listen: ":9000"
session:
  db_path: /tmp/designlab.db
  retention_days: 3
browser:
  attach: true
  page_url: http://localhost:3000
  stealth: true
admin:
  password_hash: "$2a$10$abcdefghijklmnopqrstuv"
log_level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Target != "Landing page redesign" {
		t.Fatalf("target: %q", cfg.Target)
	}
	if len(cfg.Variants) != 3 || cfg.Variants[2] != "C" {
		t.Fatalf("variants: %v", cfg.Variants)
	}
	if cfg.Listen != ":9000" {
		t.Fatalf("listen: %q", cfg.Listen)
	}
	if !cfg.Browser.Attach || !cfg.Browser.Stealth {
		t.Fatalf("browser: %+v", cfg.Browser)
	}
	if cfg.Session.RetentionDays != 3 {
		t.Fatalf("retention: %d", cfg.Session.RetentionDays)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level: %q", cfg.LogLevel)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "designlab.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Target != "Design review" {
		t.Fatalf("target default: %q", cfg.Target)
	}
	if cfg.Listen != ":8418" {
		t.Fatalf("listen default: %q", cfg.Listen)
	}
	if cfg.Session.RetentionDays != 7 {
		t.Fatalf("retention default: %d", cfg.Session.RetentionDays)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level default: %q", cfg.LogLevel)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("target: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
