package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"evsched/internal/llm"
	"evsched/internal/model"
)

// DefaultTimeout bounds a single suggestion call when none is configured.
const DefaultTimeout = 10 * time.Second

// LLMProvider asks a completion backend for alternatives. One attempt per
// call, bounded by the timeout.
type LLMProvider struct {
	completer llm.Completer
	timeout   time.Duration
	logger    *slog.Logger
}

func NewLLMProvider(c llm.Completer, timeout time.Duration, logger *slog.Logger) *LLMProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMProvider{completer: c, timeout: timeout, logger: logger}
}

type completion struct {
	text string
	err  error
}

func (p *LLMProvider) Suggest(ctx context.Context, location string, date model.Date, tod model.TimeOfDay) []string {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- completion{err: fmt.Errorf("completer panic: %v", r)}
			}
		}()
		text, err := p.completer.Complete(ctx, systemPrompt, Prompt(location, date, tod))
		done <- completion{text: text, err: err}
	}()

	var res completion
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			p.logger.Warn("suggestion call timed out", "timeout", p.timeout, "location", location)
		} else {
			p.logger.Warn("suggestion call failed", "err", res.err, "location", location)
		}
		return []string{}
	}

	out := Parse(res.text)
	if len(out) == 0 {
		p.logger.Warn("suggestion response had no usable lines", "location", location)
	}
	return out
}

// Config selects and configures the backend. An empty Provider disables
// suggestions.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

var defaultModels = map[llm.Provider]string{
	llm.ProviderOpenAI:    "gpt-3.5-turbo",
	llm.ProviderOllama:    "llama3",
	llm.ProviderAnthropic: "claude-3-haiku-20240307",
}

// New returns the provider described by cfg, or Noop when it cannot be
// built. The reason is logged once here.
func New(cfg Config, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Provider == "" {
		logger.Info("suggestions disabled")
		return Noop{}
	}
	provider, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		logger.Warn("suggestions disabled", "err", err)
		return Noop{}
	}
	if provider.NeedsKey() && cfg.APIKey == "" {
		logger.Warn("suggestions disabled: no API key", "provider", provider)
		return Noop{}
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModels[provider]
	}
	c, err := llm.NewCompleter(provider, llm.Options{
		Model:     modelName,
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		MaxTokens: 400,
	})
	if err != nil {
		logger.Warn("suggestions disabled", "provider", provider, "err", err)
		return Noop{}
	}
	logger.Info("suggestions enabled", "provider", provider, "model", modelName, "timeout", cfg.Timeout)
	return NewLLMProvider(c, cfg.Timeout, logger)
}
