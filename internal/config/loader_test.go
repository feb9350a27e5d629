package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "hello")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "hello"},
		{"${TEST_VAR:default}", "hello"},
		{"${UNSET_VAR:fallback}", "fallback"},
		{"${UNSET_VAR}", ""},
		{"no vars here", "no vars here"},
		{"prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
	}

	for _, tt := range tests {
		got := expandEnvVars(tt.input)
		if got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_WithEnvVars(t *testing.T) {
	t.Setenv("TEST_PORT", "7777")
	path := writeFile(t, t.TempDir(), "gateway.yaml", `
server:
  host: "${TEST_HOST:127.0.0.1}"
  port: ${TEST_PORT}
assistant:
  api_key: "${TEST_API_KEY:}"
  timeout: 5s
`)

	cfg := DefaultConfig()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1 (default), got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("expected port 7777, got %d", cfg.Server.Port)
	}
	if cfg.Assistant.Timeout != 5*time.Second {
		t.Errorf("expected assistant timeout 5s, got %s", cfg.Assistant.Timeout)
	}
	if cfg.Assistant.Model != "deepseek-chat" {
		t.Errorf("expected default model to survive partial override, got %q", cfg.Assistant.Model)
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	ext, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ext.Whitelist) != 0 || len(ext.LexicalTerms) != 0 {
		t.Errorf("expected empty extensions, got %+v", ext)
	}
}

func TestLoader_LoadsRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gateway.yaml", "server:\n  port: 8181\n")
	writeFile(t, dir, "rules.yaml", `
whitelist: [погода]
lexical_terms: [жопа]
triggers:
  drugs: [спайс]
limits:
  spam_groups: 2
  flood_ratio: 0.5
`)

	l := NewLoader(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := l.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if l.Config().Server.Port != 8181 {
		t.Errorf("expected port 8181, got %d", l.Config().Server.Port)
	}
	rules := l.Rules()
	if len(rules.Whitelist) != 1 || rules.Whitelist[0] != "погода" {
		t.Errorf("unexpected whitelist %v", rules.Whitelist)
	}
	if got := rules.Triggers["drugs"]; len(got) != 1 || got[0] != "спайс" {
		t.Errorf("unexpected drugs triggers %v", got)
	}
	if rules.Limits.SpamGroups != 2 || rules.Limits.FloodRatio != 0.5 {
		t.Errorf("unexpected limits %+v", rules.Limits)
	}
}

func TestLoader_MissingGatewayConfig(t *testing.T) {
	l := NewLoader(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := l.Load(); err == nil {
		t.Fatal("expected error for missing gateway.yaml")
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "textguard", User: "tg", Password: "p@ss"}
	want := "postgres://tg:p%40ss@db:5432/textguard?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
