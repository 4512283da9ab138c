// Package classifier suggests topic names for a reflection.
//
// Implementations talk to an external model (LLMClassifier) or match the
// user's existing vocabulary offline (KeywordClassifier). Their output is
// untrusted free text and goes through Sanitize before anyone uses it.
package classifier

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxTopics = 5
	MaxNameLength    = 64
)

// ErrUnavailable marks every failure of the classifier collaborator:
// transport errors, timeouts, malformed output, open circuit breaker.
var ErrUnavailable = errors.New("classifier: unavailable")

type Classifier interface {
	Suggest(ctx context.Context, title, text string, existing []string) ([]string, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, title, text string, existing []string) ([]string, error)

func (f Func) Suggest(ctx context.Context, title, text string, existing []string) ([]string, error) {
	return f(ctx, title, text, existing)
}

// Sanitize turns raw suggestions into names safe to hand to the topic
// registry. Names are trimmed; empty and over-long names are dropped. A name
// matching an existing topic case-insensitively takes the existing spelling.
// The result is deduplicated, keeps first-seen order and holds at most max
// names (max <= 0 means DefaultMaxTopics).
func Sanitize(suggestions, existing []string, max int) []string {
	if max <= 0 {
		max = DefaultMaxTopics
	}

	canonical := make(map[string]string, len(existing))
	for _, name := range existing {
		key := strings.ToLower(name)
		if _, ok := canonical[key]; !ok {
			canonical[key] = name
		}
	}

	out := make([]string, 0, len(suggestions))
	seen := make(map[string]struct{}, len(suggestions))
	for _, raw := range suggestions {
		name := strings.TrimSpace(raw)
		if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
			continue
		}
		if c, ok := canonical[strings.ToLower(name)]; ok {
			name = c
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
		if len(out) == max {
			break
		}
	}
	return out
}
