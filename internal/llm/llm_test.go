package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

type fakeGenerator struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	reply    *llms.ContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	return f.reply, f.err
}

func textReply(s string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s}}}
}

func TestCompleteSendsSystemAndPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: textReply("1. Hall B")}
	c := newModelCompleter(gen, Options{Model: "gpt-3.5-turbo", MaxTokens: 200})

	got, err := c.Complete(context.Background(), "be brief", "suggest venues")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != "1. Hall B" {
		t.Fatalf("unexpected reply %q", got)
	}
	if len(gen.messages) != 2 {
		t.Fatalf("expected system and human messages, got %d", len(gen.messages))
	}
	if gen.messages[0].Role != llms.ChatMessageTypeSystem || gen.messages[1].Role != llms.ChatMessageTypeHuman {
		t.Fatalf("unexpected roles %v %v", gen.messages[0].Role, gen.messages[1].Role)
	}
	if gen.options.Model != "gpt-3.5-turbo" || gen.options.MaxTokens != 200 {
		t.Fatalf("call options not applied: %+v", gen.options)
	}
}

func TestCompleteWithoutSystemPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: textReply("ok")}
	if _, err := newModelCompleter(gen, Options{}).Complete(context.Background(), "", "hi"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(gen.messages) != 1 {
		t.Fatalf("expected a single human message, got %d", len(gen.messages))
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	cases := []*llms.ContentResponse{nil, {}, textReply("   \n")}
	for i, reply := range cases {
		gen := &fakeGenerator{reply: reply}
		_, err := newModelCompleter(gen, Options{}).Complete(context.Background(), "", "hi")
		if !errors.Is(err, ErrEmptyResponse) {
			t.Fatalf("case %d: expected ErrEmptyResponse, got %v", i, err)
		}
	}
}

func TestCompletePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	gen := &fakeGenerator{err: boom}
	if _, err := newModelCompleter(gen, Options{}).Complete(context.Background(), "", "hi"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" OpenAI ")
	if err != nil || p != ProviderOpenAI {
		t.Fatalf("expected openai, got %q %v", p, err)
	}
	if _, err := ParseProvider("watson"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if ProviderOllama.NeedsKey() || !ProviderAnthropic.NeedsKey() {
		t.Fatalf("unexpected NeedsKey results")
	}
}

func TestNewCompleterRejectsUnknownProvider(t *testing.T) {
	if _, err := NewCompleter(Provider("watson"), Options{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewCompleterOllamaNeedsNoKey(t *testing.T) {
	c, err := NewCompleter(ProviderOllama, Options{Model: "llama3", BaseURL: "http://127.0.0.1:11434"})
	if err != nil || c == nil {
		t.Fatalf("expected ollama completer, got %v %v", c, err)
	}
}

func TestNewCompleterRejectsGeminiBaseURL(t *testing.T) {
	_, err := NewCompleter(ProviderGemini, Options{APIKey: "k", BaseURL: "http://proxy.local"})
	if !errors.Is(err, ErrBaseURLUnsupported) {
		t.Fatalf("expected ErrBaseURLUnsupported, got %v", err)
	}
	if ProviderGemini.AcceptsBaseURL() || !ProviderOllama.AcceptsBaseURL() {
		t.Fatalf("unexpected AcceptsBaseURL results")
	}
}
