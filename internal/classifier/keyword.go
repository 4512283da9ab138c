package classifier

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeywordClassifier suggests the existing topics whose name appears in the
// title or text, ignoring case. It never invents topics and never fails,
// which makes it the offline fallback.
//
// A name matches only as a whole word: where the name starts or ends with a
// letter, digit or underscore, the neighbouring character in the body must
// not be one. Edges made of punctuation match as-is, so "c++" is found in
// "learning c++ today" and "self-care!" in "some self-care!".
type KeywordClassifier struct{}

func (KeywordClassifier) Suggest(ctx context.Context, title, text string, existing []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body := strings.ToLower(title + "\n" + text)
	out := []string{}
	for _, name := range existing {
		if name == "" {
			continue
		}
		if containsWord(body, strings.ToLower(name)) {
			out = append(out, name)
		}
	}
	return out, nil
}

func containsWord(body, word string) bool {
	first, _ := utf8.DecodeRuneInString(word)
	last, _ := utf8.DecodeLastRuneInString(word)

	for from := 0; from < len(body); {
		i := strings.Index(body[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(body[:start])
		after, _ := utf8.DecodeRuneInString(body[end:])
		okStart := start == 0 || !isWordRune(first) || !isWordRune(before)
		okEnd := end == len(body) || !isWordRune(last) || !isWordRune(after)
		if okStart && okEnd {
			return true
		}

		_, size := utf8.DecodeRuneInString(body[start:])
		from = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
