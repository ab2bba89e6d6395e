package domain

// Severity ranks toxicity findings. The zero value is SeverityNone.
type Severity string

const (
	SeverityNone  Severity = "none"
	SeverityMild  Severity = "mild"
	SeverityCrude Severity = "crude"
	SeverityHard  Severity = "hard"
)

// severityRank fixes the resolution order hard > crude > mild > none.
var severityRank = map[Severity]int{
	SeverityNone:  0,
	SeverityMild:  1,
	SeverityCrude: 2,
	SeverityHard:  3,
}

// Outranks reports whether s takes precedence over other.
func (s Severity) Outranks(other Severity) bool {
	return severityRank[s] > severityRank[other]
}

// ToxicityVerdict is the rule engine's result for one message.
// IsToxic is true only for SeverityHard; crude and mild findings are
// reported but never flagged.
type ToxicityVerdict struct {
	Level   Severity
	IsToxic bool
}

// SentimentLabel is the closed set of labels the adapter can emit.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
	// SentimentError signals classifier unavailability. It is not a
	// toxicity signal and must never be treated as one.
	SentimentError SentimentLabel = "error"
)

// SentimentVerdict is the adapter's result for one message.
type SentimentVerdict struct {
	Label SentimentLabel
	Score float64 // in [0,1]
}

// Prediction is one label/score pair as returned by the external classifier.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
