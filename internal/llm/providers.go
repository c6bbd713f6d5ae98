package llm

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

func newOpenAI(o Options) (generator, error) {
	var opts []openai.Option
	if o.Model != "" {
		opts = append(opts, openai.WithModel(o.Model))
	}
	if o.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(o.BaseURL))
	}
	if o.APIKey != "" {
		opts = append(opts, openai.WithToken(o.APIKey))
	}
	return openai.New(opts...)
}

func newOllama(o Options) (generator, error) {
	var opts []ollama.Option
	if o.Model != "" {
		opts = append(opts, ollama.WithModel(o.Model))
	}
	if o.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(o.BaseURL))
	}
	return ollama.New(opts...)
}

func newAnthropic(o Options) (generator, error) {
	var opts []anthropic.Option
	if o.Model != "" {
		opts = append(opts, anthropic.WithModel(o.Model))
	}
	if o.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(o.BaseURL))
	}
	if o.APIKey != "" {
		opts = append(opts, anthropic.WithToken(o.APIKey))
	}
	return anthropic.New(opts...)
}

// ErrBaseURLUnsupported is returned when a base URL is set for a provider
// whose client has no endpoint override.
var ErrBaseURLUnsupported = errors.New("custom base URL is not supported")

func newGemini(o Options) (generator, error) {
	if o.BaseURL != "" {
		return nil, ErrBaseURLUnsupported
	}
	model := o.Model
	if model == "" {
		model = googleai.DefaultOptions().DefaultModel
	}
	opts := []googleai.Option{googleai.WithDefaultModel(model)}
	if o.APIKey != "" {
		opts = append(opts, googleai.WithAPIKey(o.APIKey))
	}
	return googleai.New(context.Background(), opts...)
}
