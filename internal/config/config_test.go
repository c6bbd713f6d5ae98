package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8080" || cfg.Database != "evsched.db" || cfg.Suggestions.Provider != "openai" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if d, err := cfg.SuggestTimeout(); err != nil || d != 10*time.Second {
		t.Fatalf("unexpected timeout %v %v", d, err)
	}
}

func TestLoadFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evsched.yaml")
	data := "listen: \":9090\"\nlog_level: DEBUG\nsuggestions:\n  provider: Ollama\n  model: llama3\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" || cfg.LogLevel != "debug" || cfg.Database != "evsched.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Suggestions.Provider != "ollama" || cfg.Suggestions.Timeout != "10s" {
		t.Fatalf("unexpected suggestions %+v", cfg.Suggestions)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evsched.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveRoundTripAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "evsched.yaml")
	cfg := DefaultConfig()
	cfg.Suggestions.APIKey = "sk-test"
	cfg.AuditLog = "audit.jsonl"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Suggestions.APIKey != "sk-test" || got.AuditLog != "audit.jsonl" {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Suggestions.APIKey = "from-file"
	cfg.ApplyEnv(envMap(map[string]string{
		"EVSCHED_LISTEN":          ":7070",
		"EVSCHED_DATABASE":        MemoryDatabase,
		"EVSCHED_PROVIDER":        "anthropic",
		"EVSCHED_SUGGEST_TIMEOUT": "3s",
		"EVSCHED_CORS_ORIGINS":    "http://a.test, http://b.test",
		"ANTHROPIC_API_KEY":       "conventional",
	}))
	if cfg.Listen != ":7070" || cfg.Database != MemoryDatabase || cfg.Suggestions.Timeout != "3s" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Suggestions.APIKey != "from-file" {
		t.Fatalf("conventional key must not replace a configured one, got %q", cfg.Suggestions.APIKey)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestApplyEnvKeyResolution(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"prefixed wins", map[string]string{"EVSCHED_OPENAI_API_KEY": "pref", "OPENAI_API_KEY": "conv"}, "pref"},
		{"conventional fallback", map[string]string{"OPENAI_API_KEY": "conv"}, "conv"},
		{"gemini uses google key", map[string]string{"EVSCHED_PROVIDER": "gemini", "GOOGLE_API_KEY": "g"}, "g"},
		{"ollama has none", map[string]string{"EVSCHED_PROVIDER": "ollama", "OPENAI_API_KEY": "conv"}, ""},
		{"blank override ignored", map[string]string{"OPENAI_API_KEY": "conv", "EVSCHED_PROVIDER": " "}, "conv"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ApplyEnv(envMap(c.env))
			if cfg.Suggestions.APIKey != c.want {
				t.Fatalf("got key %q, want %q", cfg.Suggestions.APIKey, c.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected log level error")
	}
	cfg = DefaultConfig()
	cfg.Suggestions.Provider = "cohere"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected provider error")
	}
	cfg = DefaultConfig()
	cfg.Suggestions.Timeout = "-1s"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected timeout error")
	}
	cfg = DefaultConfig()
	cfg.Suggestions.Provider = "gemini"
	cfg.Suggestions.BaseURL = "http://proxy.local"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected base_url error for gemini")
	}
	cfg = DefaultConfig()
	cfg.Suggestions.Provider = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled suggestions should validate: %v", err)
	}
}

func TestSuggestConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Suggestions.Model = "gpt-4o-mini"
	cfg.Suggestions.Timeout = "250ms"
	sc := cfg.SuggestConfig()
	if sc.Provider != "openai" || sc.Model != "gpt-4o-mini" || sc.Timeout != 250*time.Millisecond {
		t.Fatalf("unexpected suggest config %+v", sc)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandHome("~/evsched.yaml")
	if err != nil || got != filepath.Join(home, "evsched.yaml") {
		t.Fatalf("unexpected expansion %q %v", got, err)
	}
	if got, _ := ExpandHome("/etc/evsched.yaml"); got != "/etc/evsched.yaml" {
		t.Fatalf("absolute path changed: %q", got)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output %q", out)
	}
	if !logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error level should be enabled")
	}
}
