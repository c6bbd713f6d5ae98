package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"evsched/internal/llm"
	"evsched/internal/suggest"
)

// MemoryDatabase selects the in-process store instead of SQLite.
const MemoryDatabase = "memory"

// Config is the on-disk configuration of the service.
type Config struct {
	Listen      string      `yaml:"listen"`
	Database    string      `yaml:"database"`
	AuditLog    string      `yaml:"audit_log,omitempty"`
	LogLevel    string      `yaml:"log_level"`
	CORSOrigins []string    `yaml:"cors_origins,omitempty"`
	Suggestions Suggestions `yaml:"suggestions"`
}

// Suggestions configures the alternative-venue provider. An empty
// Provider turns suggestions off.
type Suggestions struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	Timeout  string `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Listen:      ":8080",
		Database:    "evsched.db",
		LogLevel:    "info",
		CORSOrigins: []string{"http://localhost:3000"},
		Suggestions: Suggestions{
			Provider: string(llm.ProviderOpenAI),
			Timeout:  suggest.DefaultTimeout.String(),
		},
	}
}

// Normalize fills empty fields with their defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if strings.TrimSpace(c.Listen) == "" {
		c.Listen = def.Listen
	}
	if strings.TrimSpace(c.Database) == "" {
		c.Database = def.Database
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	c.Suggestions.Provider = strings.ToLower(strings.TrimSpace(c.Suggestions.Provider))
	if strings.TrimSpace(c.Suggestions.Timeout) == "" {
		c.Suggestions.Timeout = def.Suggestions.Timeout
	}
}

// Validate reports settings that would make the service misbehave.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.Suggestions.Provider != "" {
		p, err := llm.ParseProvider(c.Suggestions.Provider)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if c.Suggestions.BaseURL != "" && !p.AcceptsBaseURL() {
			return fmt.Errorf("config: suggestions.base_url is not supported for %s", p)
		}
	}
	if _, err := c.SuggestTimeout(); err != nil {
		return err
	}
	return nil
}

// SuggestTimeout parses the suggestion timeout.
func (c Config) SuggestTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Suggestions.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: suggestions.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: suggestions.timeout must be positive, got %s", d)
	}
	return d, nil
}

// SuggestConfig hands the suggestion settings to the provider factory.
func (c Config) SuggestConfig() suggest.Config {
	timeout, err := c.SuggestTimeout()
	if err != nil {
		timeout = suggest.DefaultTimeout
	}
	return suggest.Config{
		Provider: c.Suggestions.Provider,
		Model:    c.Suggestions.Model,
		BaseURL:  c.Suggestions.BaseURL,
		APIKey:   c.Suggestions.APIKey,
		Timeout:  timeout,
	}
}

// Load reads path and returns the normalized config. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path through a temp file and rename so readers never
// see a partial file. The file may hold an API key, hence 0600.
func Save(path string, cfg Config) error {
	path, err := ExpandHome(path)
	if err != nil {
		return err
	}
	cfg.Normalize()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".evsched-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}

// ApplyEnv overrides file settings with EVSCHED_* variables. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Listen, "EVSCHED_LISTEN")
	set(&c.Database, "EVSCHED_DATABASE")
	set(&c.LogLevel, "EVSCHED_LOG_LEVEL")
	set(&c.AuditLog, "EVSCHED_AUDIT_LOG")
	set(&c.Suggestions.Provider, "EVSCHED_PROVIDER")
	set(&c.Suggestions.Model, "EVSCHED_MODEL")
	set(&c.Suggestions.BaseURL, "EVSCHED_BASE_URL")
	set(&c.Suggestions.Timeout, "EVSCHED_SUGGEST_TIMEOUT")
	if v := strings.TrimSpace(getenv("EVSCHED_CORS_ORIGINS")); v != "" {
		c.CORSOrigins = splitList(v)
	}
	c.Normalize()

	if c.Suggestions.Provider == "" {
		return
	}
	key := "EVSCHED_" + strings.ToUpper(c.Suggestions.Provider) + "_API_KEY"
	if v := strings.TrimSpace(getenv(key)); v != "" {
		c.Suggestions.APIKey = v
		return
	}
	if c.Suggestions.APIKey != "" {
		return
	}
	if fallback, ok := conventionalKeys[c.Suggestions.Provider]; ok {
		c.Suggestions.APIKey = strings.TrimSpace(getenv(fallback))
	}
}

var conventionalKeys = map[string]string{
	string(llm.ProviderOpenAI):    "OPENAI_API_KEY",
	string(llm.ProviderAnthropic): "ANTHROPIC_API_KEY",
	string(llm.ProviderGemini):    "GOOGLE_API_KEY",
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
