// Package sentiment post-processes the external classifier's output into
// the closed verdict set used by the audit.
package sentiment

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"chatguard/contract"
	"chatguard/domain"
)

// maxInputRunes bounds what is sent to the classifier; transformer models
// truncate around this length anyway.
const maxInputRunes = 512

// Adapter wraps an injected classifier. Any classifier failure — error,
// malformed output, panic or timeout — degrades to the `error` label and
// never reaches the caller.
type Adapter struct {
	classifier contract.Classifier
	timeout    time.Duration
	log        *slog.Logger
}

func NewAdapter(classifier contract.Classifier, timeout time.Duration, log *slog.Logger) *Adapter {
	return &Adapter{classifier: classifier, timeout: timeout, log: log}
}

var errorVerdict = domain.SentimentVerdict{Label: domain.SentimentError, Score: 0.0}

// Analyze classifies one message. Blank input short-circuits to neutral
// without touching the classifier. When positiveContext is set, a negative
// label is downgraded to neutral with its score halved; no other label is
// corrected.
func (a *Adapter) Analyze(ctx context.Context, text string, positiveContext bool) (verdict domain.SentimentVerdict) {
	if strings.TrimSpace(text) == "" {
		return domain.SentimentVerdict{Label: domain.SentimentNeutral, Score: 0.0}
	}

	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Classifier panicked", "panic", r)
			verdict = errorVerdict
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	predictions, err := a.classifier.Classify(ctx, truncateRunes(text, maxInputRunes))
	if err != nil {
		a.log.Warn("Classifier failed", "error", err)
		return errorVerdict
	}
	if len(predictions) == 0 {
		a.log.Warn("Classifier returned no predictions")
		return errorVerdict
	}

	top := predictions[0]
	for _, p := range predictions[1:] {
		if p.Score > top.Score {
			top = p
		}
	}

	label, ok := parseLabel(top.Label)
	if !ok {
		a.log.Warn("Classifier returned unknown label", "label", top.Label)
		return errorVerdict
	}
	score := round4(top.Score)

	if positiveContext && label == domain.SentimentNegative {
		label = domain.SentimentNeutral
		score = round4(score * 0.5)
	}

	return domain.SentimentVerdict{Label: label, Score: score}
}

func parseLabel(raw string) (domain.SentimentLabel, bool) {
	switch domain.SentimentLabel(strings.ToLower(raw)) {
	case domain.SentimentPositive:
		return domain.SentimentPositive, true
	case domain.SentimentNegative:
		return domain.SentimentNegative, true
	case domain.SentimentNeutral:
		return domain.SentimentNeutral, true
	}
	return "", false
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
