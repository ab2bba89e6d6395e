// Package toxicity is the rule-based half of the audit: severity-tagged
// keyword matching over leet-folded text, independent of the statistical
// sentiment classifier.
package toxicity

import (
	"strings"
	"unicode"

	"chatguard/domain"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Engine classifies normalized message text against the toxic keyword
// table. It is immutable after construction and safe for concurrent use.
type Engine struct {
	keywords map[string]domain.Severity
	phrases  *goahocorasick.Machine
	severity map[string]domain.Severity // phrase → severity
	context  *contextDetector
}

// NewEngine builds the phrase automaton from the multi-word entries of the
// keyword table and compiles the positive-context patterns.
func NewEngine() (*Engine, error) {
	var patterns [][]rune
	severity := make(map[string]domain.Severity)
	for keyword, level := range toxicKeywords {
		if strings.Contains(keyword, " ") {
			patterns = append(patterns, []rune(keyword))
			severity[keyword] = level
		}
	}

	var phrases *goahocorasick.Machine
	if len(patterns) > 0 {
		phrases = new(goahocorasick.Machine)
		if err := phrases.Build(patterns); err != nil {
			return nil, err
		}
	}

	context, err := newContextDetector()
	if err != nil {
		return nil, err
	}

	return &Engine{
		keywords: toxicKeywords,
		phrases:  phrases,
		severity: severity,
		context:  context,
	}, nil
}

// Classify resolves the normalized text to a single severity with fixed
// precedence hard > crude > mild > none. Only hard is toxic; crude and mild
// are reported but never flagged, whatever the surrounding context.
func (e *Engine) Classify(normalizedText string) domain.ToxicityVerdict {
	folded := FoldLeet(strings.ToLower(normalizedText))

	level := domain.SeverityNone
	for _, token := range wordTokens(folded) {
		if found, ok := e.keywords[token]; ok && found.Outranks(level) {
			level = found
		}
	}

	if e.phrases != nil {
		for _, term := range e.phrases.MultiPatternSearch([]rune(folded), false) {
			if found, ok := e.severity[string(term.Word)]; ok && found.Outranks(level) {
				level = found
			}
		}
	}

	return domain.ToxicityVerdict{
		Level:   level,
		IsToxic: level == domain.SeverityHard,
	}
}

// HasPositiveContext inspects the original (non-folded) text for friendly
// vocabulary. The signal only softens sentiment downstream; it never
// weakens a toxicity verdict.
func (e *Engine) HasPositiveContext(originalText string) bool {
	return e.context.detect(originalText)
}

// leetTable maps common obfuscation characters back to their alphabetic
// equivalents before keyword matching.
var leetTable = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'@': 'a',
	'!': 'i',
	'$': 's',
	'+': 't',
}

// FoldLeet applies the fixed leet-speak character table over the text.
func FoldLeet(text string) string {
	return strings.Map(func(r rune) rune {
		if folded, ok := leetTable[r]; ok {
			return folded
		}
		return r
	}, text)
}

func wordTokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
