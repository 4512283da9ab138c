package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.2
)

const promptTemplate = `You label personal journal reflections with short topic names.

The author already uses these topics: %s
Prefer an existing topic when it fits. Suggest a new one only when none fits.
Use lowercase single words or short phrases. Return at most %d topics.

Answer with a JSON array of strings and nothing else, for example ["health", "learning"].

Title: %s

Reflection:
%s`

// completer is the slice of langchaingo we depend on.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type langchainCompleter struct {
	model       llms.Model
	temperature float64
}

func (c langchainCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c.model, prompt, llms.WithTemperature(c.temperature))
}

type LLMConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTopics int
}

// LLMClassifier asks an OpenAI compatible chat model for topic names.
type LLMClassifier struct {
	llm       completer
	maxTopics int
}

func NewLLM(cfg LLMConfig) (*LLMClassifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("classifier: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("classifier: create openai client: %w", err)
	}
	return newLLMClassifier(langchainCompleter{model: model, temperature: defaultTemperature}, cfg.MaxTopics), nil
}

func newLLMClassifier(c completer, maxTopics int) *LLMClassifier {
	if maxTopics <= 0 {
		maxTopics = DefaultMaxTopics
	}
	return &LLMClassifier{llm: c, maxTopics: maxTopics}
}

func (c *LLMClassifier) Suggest(ctx context.Context, title, text string, existing []string) ([]string, error) {
	out, err := c.llm.Complete(ctx, buildPrompt(title, text, existing, c.maxTopics))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	names, err := parseSuggestions(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return names, nil
}

func buildPrompt(title, text string, existing []string, maxTopics int) string {
	vocabulary := "(none yet)"
	if len(existing) > 0 {
		vocabulary = strings.Join(existing, ", ")
	}
	return fmt.Sprintf(promptTemplate, vocabulary, maxTopics, title, text)
}

// parseSuggestions reads a JSON array of strings, tolerating a markdown code
// fence around it. Anything else is split on commas and newlines.
func parseSuggestions(out string) ([]string, error) {
	s := strings.TrimSpace(out)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty completion")
	}

	if start, end := strings.Index(s, "["), strings.LastIndex(s, "]"); start >= 0 && end > start {
		var names []string
		if err := json.Unmarshal([]byte(s[start:end+1]), &names); err == nil {
			return names, nil
		}
	}

	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, " \t\r\"'-*[]")
		if f != "" {
			names = append(names, f)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no topics in completion %q", out)
	}
	return names, nil
}
