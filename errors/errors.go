package errors

import "fmt"

var (
	ErrLexiconMissing   = fmt.Errorf("lexicon resource not found")
	ErrNoMessages       = fmt.Errorf("no messages could be parsed")
	ErrEmptyText        = fmt.Errorf("no readable text")
	ErrUnsupportedImage = fmt.Errorf("unsupported or undecodable image")
	ErrSessionNotFound  = fmt.Errorf("audit session not found")
)
