package domain

import "time"

// MessageAnalysis couples one parsed message with both of its verdicts.
type MessageAnalysis struct {
	Message   ChatMessage
	Toxicity  ToxicityVerdict
	Sentiment SentimentVerdict
}

// AuditResult is the outcome of one audit request. It is computed once and
// never mutated; persistence receives it as a whole.
type AuditResult struct {
	Messages      []MessageAnalysis
	TotalMessages int
	ToxicMessages int
	SafetyScore   int // 0..100, 100 for an empty audit
}

// Session summarizes one archived audit.
type Session struct {
	ID             string
	Source         Source
	CreatedAt      time.Time
	TotalMessages  int
	ToxicMessages  int
	SafetyScore    int
	ElapsedSeconds float64
}

// SessionDetail is a Session together with its messages, ordered by
// ChatMessage.Order.
type SessionDetail struct {
	Session
	Messages []MessageAnalysis
}
