// Package normalize turns raw informal chat text into structured, cleaned
// messages ready for classification.
package normalize

import (
	"strings"
	"unicode"
)

// Lexicon is the slang→formal lookup the normalizer substitutes through.
// *lexicon.Store satisfies it.
type Lexicon interface {
	Formal(token string) (string, bool)
}

type Normalizer struct {
	lexicon Lexicon
}

func NewNormalizer(lexicon Lexicon) *Normalizer {
	return &Normalizer{lexicon: lexicon}
}

// Normalize cleans a message token by token: edge punctuation stripped,
// lower-cased, character runs of 3+ collapsed, slang substituted. Tokens are
// rejoined with single spaces. Substitution is single-pass: a formal form
// that happens to be another slang term is not chased further.
func (n *Normalizer) Normalize(message string) string {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return ""
	}

	out := make([]string, 0, len(fields))
	for _, token := range fields {
		clean := strings.TrimFunc(token, func(r rune) bool { return !isWordRune(r) })
		clean = DedupeRepeatedChars(strings.ToLower(clean))

		if formal, ok := n.lexicon.Formal(clean); ok {
			out = append(out, formal)
			continue
		}
		out = append(out, clean)
	}
	return strings.Join(out, " ")
}

// DedupeRepeatedChars collapses any run of 3 or more identical runes down to
// a single occurrence. Runs of exactly 2 are kept, so "wkwkwkwk" survives
// while "haaaalloooo" becomes "hallo".
func DedupeRepeatedChars(word string) string {
	runes := []rune(word)
	out := make([]rune, 0, len(runes))

	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= 3 {
			out = append(out, runes[i])
		} else {
			out = append(out, runes[i:j]...)
		}
		i = j
	}
	return string(out)
}

// isWordRune mirrors the \w character class over Unicode: letters, digits
// and underscore. Everything else counts as edge punctuation.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
