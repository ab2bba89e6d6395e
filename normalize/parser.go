package normalize

import (
	"regexp"
	"strings"

	"chatguard/domain"
)

// senderMessageLine captures the common timestamped export format:
// "H:MM[(:|.)SS] [-] sender : message". Chat exports disagree on separators,
// so both ':' and '.' are accepted inside the timestamp.
var senderMessageLine = regexp.MustCompile(`^(\d{1,2}[:.]\d{2}(?:[:.]\d{2})?)\s*-?\s*(.*?)\s*:\s*(.*)$`)

// Parser splits a raw multi-line chat log into ordered messages, running
// each body through the normalizer.
type Parser struct {
	normalizer *Normalizer
}

func NewParser(normalizer *Normalizer) *Parser {
	return &Parser{normalizer: normalizer}
}

// Parse processes the log line by line. Every non-blank line becomes exactly
// one message through a three-tier fallback:
//  1. full timestamped line,
//  2. "sender: message" split on the first colon,
//  3. whole line as message from an unknown sender.
//
// Order is 1-based and gap-free regardless of skipped blank lines.
func (p *Parser) Parse(rawText string) []domain.ChatMessage {
	if strings.TrimSpace(rawText) == "" {
		return nil
	}

	var messages []domain.ChatMessage
	order := 1

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var timestamp, sender, body string
		switch {
		case senderMessageLine.MatchString(line):
			groups := senderMessageLine.FindStringSubmatch(line)
			timestamp, sender, body = groups[1], groups[2], groups[3]
		case strings.Contains(line, ":"):
			parts := strings.SplitN(line, ":", 2)
			sender, body = parts[0], parts[1]
		default:
			sender, body = domain.UnknownSender, line
		}

		body = strings.TrimSpace(body)
		messages = append(messages, domain.ChatMessage{
			Order:          order,
			Timestamp:      timestamp,
			Sender:         strings.TrimSpace(sender),
			RawText:        body,
			NormalizedText: p.normalizer.Normalize(body),
		})
		order++
	}
	return messages
}
