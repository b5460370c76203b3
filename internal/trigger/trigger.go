// Package trigger implements the phrase matcher that summons the bot
// without an explicit command.
package trigger

import (
	"strings"
	"unicode"
)

// Matcher checks message text against a static phrase list. Matching is a
// pure case-insensitive substring test: no tokenization, no word
// boundaries, so a phrase embedded inside a longer word still matches.
type Matcher struct {
	phrases []string
}

// New creates a Matcher from the given phrases. Phrases are matched
// case-insensitively; empty entries are dropped.
func New(phrases []string) *Matcher {
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Matcher{phrases: lowered}
}

// Match reports whether any trigger phrase occurs anywhere in text.
func (m *Matcher) Match(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, p := range m.phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// Strip removes every occurrence of every trigger phrase from text,
// case-insensitively, and trims surrounding whitespace. The result is
// what remains of the user's own words.
func (m *Matcher) Strip(text string) string {
	if text == "" {
		return ""
	}
	runes := []rune(text)
	for _, p := range m.phrases {
		runes = removePhrase(runes, []rune(p))
	}
	return strings.TrimSpace(string(runes))
}

// Residual reports whether Strip left any substantive content: something
// beyond whitespace and punctuation.
func Residual(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) && !unicode.IsPunct(r) {
			return true
		}
	}
	return false
}

// removePhrase deletes each case-insensitive occurrence of phrase from
// runes. Comparison is rune-wise so Cyrillic case folding stays aligned.
func removePhrase(runes, phrase []rune) []rune {
	if len(phrase) == 0 || len(runes) < len(phrase) {
		return runes
	}
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); {
		if matchAt(runes, phrase, i) {
			i += len(phrase)
			continue
		}
		out = append(out, runes[i])
		i++
	}
	return out
}

func matchAt(runes, phrase []rune, at int) bool {
	if at+len(phrase) > len(runes) {
		return false
	}
	for j, pr := range phrase {
		if unicode.ToLower(runes[at+j]) != pr {
			return false
		}
	}
	return true
}
