package onboarding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"evsched/internal/config"
	"evsched/internal/llm"
)

// ErrAborted is returned when input ends before the wizard finishes.
var ErrAborted = errors.New("onboarding: input ended before setup finished")

// Wizard guides the user through the initial configuration of evsched
type Wizard struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

var providerChoices = []struct {
	key   string
	label string
	value string
}{
	{"1", "OpenAI", string(llm.ProviderOpenAI)},
	{"2", "Ollama (Local)", string(llm.ProviderOllama)},
	{"3", "Anthropic", string(llm.ProviderAnthropic)},
	{"4", "Gemini", string(llm.ProviderGemini)},
	{"0", "None (no venue suggestions)", ""},
}

var suggestedModels = map[string]string{
	string(llm.ProviderOpenAI):    "gpt-3.5-turbo",
	string(llm.ProviderOllama):    "llama3",
	string(llm.ProviderAnthropic): "claude-3-haiku-20240307",
	string(llm.ProviderGemini):    "gemini-1.5-flash",
}

// Run starts the interactive setup, starting from base.
func (w *Wizard) Run(base config.Config) (config.Config, error) {
	cfg := base
	cfg.Normalize()

	fmt.Fprintln(w.out, "\nWelcome to evsched setup")
	fmt.Fprintln(w.out, strings.Repeat("-", 40))

	fmt.Fprintln(w.out, "\n[1/2] Server")
	var err error
	if cfg.Listen, err = w.ask("Listen address", cfg.Listen); err != nil {
		return config.Config{}, err
	}
	if cfg.Database, err = w.ask(fmt.Sprintf("Database file (%q keeps data in memory)", config.MemoryDatabase), cfg.Database); err != nil {
		return config.Config{}, err
	}

	fmt.Fprintln(w.out, "\n[2/2] Venue suggestions")
	if err := w.askProvider(&cfg); err != nil {
		return config.Config{}, err
	}
	if cfg.Suggestions.Provider != "" {
		if err := w.askModel(&cfg); err != nil {
			return config.Config{}, err
		}
		if err := w.askBaseURL(&cfg); err != nil {
			return config.Config{}, err
		}
		if err := w.askAPIKey(&cfg); err != nil {
			return config.Config{}, err
		}
		if cfg.Suggestions.Timeout, err = w.ask("Suggestion timeout", cfg.Suggestions.Timeout); err != nil {
			return config.Config{}, err
		}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	w.summarize(cfg)
	return cfg, nil
}

func (w *Wizard) askProvider(cfg *config.Config) error {
	fmt.Fprintln(w.out, "Select LLM provider:")
	def := "0"
	for _, c := range providerChoices {
		fmt.Fprintf(w.out, "%s) %s\n", c.key, c.label)
		if c.value == cfg.Suggestions.Provider {
			def = c.key
		}
	}

	for {
		input, err := w.ask("Choice", def)
		if err != nil {
			return err
		}
		for _, c := range providerChoices {
			if input == c.key {
				if c.value != cfg.Suggestions.Provider {
					cfg.Suggestions.Model = ""
					cfg.Suggestions.BaseURL = ""
				}
				cfg.Suggestions.Provider = c.value
				return nil
			}
		}
		fmt.Fprintln(w.out, "Invalid choice. Please select 0-4.")
	}
}

func (w *Wizard) askModel(cfg *config.Config) error {
	def := cfg.Suggestions.Model
	if def == "" {
		def = suggestedModels[cfg.Suggestions.Provider]
	}
	model, err := w.ask("Model name", def)
	if err != nil {
		return err
	}
	cfg.Suggestions.Model = model
	return nil
}

func (w *Wizard) askBaseURL(cfg *config.Config) error {
	if p, _ := llm.ParseProvider(cfg.Suggestions.Provider); !p.AcceptsBaseURL() {
		cfg.Suggestions.BaseURL = ""
		return nil
	}
	def := cfg.Suggestions.BaseURL
	if def == "" && cfg.Suggestions.Provider == string(llm.ProviderOllama) {
		def = "http://localhost:11434"
	}
	url, err := w.ask("Base URL (empty for the provider default)", def)
	if err != nil {
		return err
	}
	cfg.Suggestions.BaseURL = url
	return nil
}

func (w *Wizard) askAPIKey(cfg *config.Config) error {
	p, _ := llm.ParseProvider(cfg.Suggestions.Provider)
	if !p.NeedsKey() {
		cfg.Suggestions.APIKey = ""
		return nil
	}
	envVar := "EVSCHED_" + strings.ToUpper(cfg.Suggestions.Provider) + "_API_KEY"
	fmt.Fprintf(w.out, "API key (leave empty if set in %s): ", envVar)
	key, err := w.line()
	if err != nil {
		return err
	}
	if key != "" {
		cfg.Suggestions.APIKey = key
	}
	return nil
}

// ask prints prompt with its default and returns the answer, or def on an
// empty line.
func (w *Wizard) ask(prompt, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(w.out, "%s (default: %s): ", prompt, def)
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}
	input, err := w.line()
	if err != nil {
		return "", err
	}
	if input == "" {
		return def, nil
	}
	return input, nil
}

func (w *Wizard) line() (string, error) {
	if !w.scanner.Scan() {
		if err := w.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrAborted
	}
	return strings.TrimSpace(w.scanner.Text()), nil
}

func (w *Wizard) summarize(cfg config.Config) {
	fmt.Fprintln(w.out, "\n"+strings.Repeat("=", 40))
	fmt.Fprintln(w.out, "Setup Summary:")
	fmt.Fprintf(w.out, "Listen:   %s\n", cfg.Listen)
	fmt.Fprintf(w.out, "Database: %s\n", cfg.Database)
	if cfg.Suggestions.Provider == "" {
		fmt.Fprintln(w.out, "Provider: none")
	} else {
		fmt.Fprintf(w.out, "Provider: %s\n", cfg.Suggestions.Provider)
		fmt.Fprintf(w.out, "Model:    %s\n", cfg.Suggestions.Model)
		if cfg.Suggestions.BaseURL != "" {
			fmt.Fprintf(w.out, "URL:      %s\n", cfg.Suggestions.BaseURL)
		}
		if cfg.Suggestions.APIKey != "" {
			fmt.Fprintln(w.out, "API key:  ***")
		}
	}
	fmt.Fprintln(w.out, strings.Repeat("=", 40))
}
