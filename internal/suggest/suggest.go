// Package suggest produces alternative venues for a taken slot.
//
// A Provider never fails: a missing credential, a network error, a timeout
// or an unusable answer all come back as an empty list.
package suggest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"evsched/internal/model"
)

// MaxSuggestions caps the number of lines returned to callers.
const MaxSuggestions = 5

// Provider returns up to MaxSuggestions alternatives for a taken slot.
type Provider interface {
	Suggest(ctx context.Context, location string, date model.Date, tod model.TimeOfDay) []string
}

// Noop is the provider used when suggestions are not configured.
type Noop struct{}

func (Noop) Suggest(context.Context, string, model.Date, model.TimeOfDay) []string { return []string{} }

// Func adapts a plain function to Provider.
type Func func(ctx context.Context, location string, date model.Date, tod model.TimeOfDay) []string

func (f Func) Suggest(ctx context.Context, location string, date model.Date, tod model.TimeOfDay) []string {
	return f(ctx, location, date, tod)
}

const systemPrompt = "You are a helpful assistant that suggests nearby event venues succinctly."

// Prompt describes the taken slot to the completion backend.
func Prompt(location string, date model.Date, tod model.TimeOfDay) string {
	return fmt.Sprintf("A venue booking is already taken at %s on %s at %s. "+
		"Suggest up to %d similar available venues nearby (name, short address or neighborhood, "+
		"and 1-line reason why it's a good alternative). Return each suggestion as a single line.",
		location, date, tod, MaxSuggestions)
}

var (
	numberPrefix = regexp.MustCompile(`^\s*\d+\.\s*`)
	bulletPrefix = regexp.MustCompile(`^[-*\s]+`)
	lineBreak    = regexp.MustCompile(`\r?\n`)
)

// Parse turns a free-text answer into at most MaxSuggestions lines with
// enumeration markers removed. Order is preserved.
func Parse(text string) []string {
	out := make([]string, 0, MaxSuggestions)
	for _, line := range lineBreak.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = numberPrefix.ReplaceAllString(line, "")
		line = bulletPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
