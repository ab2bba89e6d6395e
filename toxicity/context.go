package toxicity

import (
	"regexp"
	"strings"
)

// contextDetector recognizes friendly conversations: either a fixed set of
// indicator substrings or one of the friendly-slang patterns.
type contextDetector struct {
	indicators []string
	patterns   []*regexp.Regexp
}

func newContextDetector() (*contextDetector, error) {
	patterns := make([]*regexp.Regexp, 0, len(friendlyPatterns))
	for _, p := range friendlyPatterns {
		compiled, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, compiled)
	}
	return &contextDetector{indicators: positiveIndicators, patterns: patterns}, nil
}

func (d *contextDetector) detect(text string) bool {
	t := strings.ToLower(text)
	for _, indicator := range d.indicators {
		if strings.Contains(t, indicator) {
			return true
		}
	}
	for _, pattern := range d.patterns {
		if pattern.MatchString(t) {
			return true
		}
	}
	return false
}
