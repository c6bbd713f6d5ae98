// Package llm wraps the langchaingo model clients behind a single-shot
// completion interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// ParseProvider normalizes a provider name from config or flags.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return p, nil
	}
	return "", fmt.Errorf("unsupported provider: %s", s)
}

// AcceptsBaseURL reports whether the provider's client can target a custom
// endpoint.
func (p Provider) AcceptsBaseURL() bool {
	return p != ProviderGemini
}

// NeedsKey reports whether the provider refuses to work without a credential.
func (p Provider) NeedsKey() bool {
	return p != ProviderOllama
}

// Completer answers one prompt with one block of text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Options tunes a completer. Zero values leave the provider defaults.
type Options struct {
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// NewCompleter builds a completer for the named provider.
func NewCompleter(provider Provider, opts Options) (Completer, error) {
	var (
		gen generator
		err error
	)
	switch provider {
	case ProviderOllama:
		gen, err = newOllama(opts)
	case ProviderOpenAI:
		gen, err = newOpenAI(opts)
	case ProviderAnthropic:
		gen, err = newAnthropic(opts)
	case ProviderGemini:
		gen, err = newGemini(opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s client: %w", provider, err)
	}
	return newModelCompleter(gen, opts), nil
}

// generator is the part of llms.Model the completer needs.
type generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

type modelCompleter struct {
	gen  generator
	opts Options
}

func newModelCompleter(gen generator, opts Options) *modelCompleter {
	return &modelCompleter{gen: gen, opts: opts}
}

func (c *modelCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	callOpts := make([]llms.CallOption, 0, 3)
	if c.opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(c.opts.Model))
	}
	if c.opts.Temperature != 0 {
		callOpts = append(callOpts, llms.WithTemperature(c.opts.Temperature))
	}
	if c.opts.MaxTokens != 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.opts.MaxTokens))
	}

	resp, err := c.gen.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
