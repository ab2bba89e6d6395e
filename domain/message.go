// Package domain contains the core concepts of the chat audit system.
package domain

// UnknownSender is assigned when a chat line carries no sender marker.
const UnknownSender = "Unknown"

// Source tags where the raw chat text of an audit came from.
type Source string

const (
	SourceText  Source = "text"
	SourceImage Source = "image"
)

// ChatMessage is a single parsed chat line. Immutable once produced by the
// parser; the rule engine and the sentiment adapter only read it.
type ChatMessage struct {
	Order          int    // 1-based, strictly increasing, gap-free per parse
	Timestamp      string // raw matched substring, empty when absent
	Sender         string
	RawText        string
	NormalizedText string
}
