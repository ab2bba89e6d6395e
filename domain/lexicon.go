package domain

// LexiconEntry is one row of the colloquial lexicon: an informal token and
// the formal word it normalizes to, plus optional tagging metadata.
// Entries are immutable after load.
type LexiconEntry struct {
	Slang      string // lowercase, unique within one load
	Formal     string
	Categories []string
	Context    string
}
