//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chatguard/domain"
	"context"
)

// Worker is a long-running background task driven by a context.
type Worker interface {
	Run(ctx context.Context) error
}

// Classifier is the external sentiment model. Implementations may be remote
// and slow; callers bound every invocation with a context deadline.
// A failure is returned as an error, never as a panic.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]domain.Prediction, error)
}

// TextExtractor turns image bytes into raw text (OCR collaborator).
// It fails when the bytes are not a decodable image.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// AuditStore archives finished audits. Save is all-or-nothing: either the
// session and all its messages are recorded, or none are.
type AuditStore interface {
	Save(result domain.AuditResult, source domain.Source, elapsedSeconds float64) (string, error)
	Fetch(sessionID string) (domain.SessionDetail, error)
	List(skip, limit int) ([]domain.Session, error)
	Search(ctx context.Context, query string, skip, limit int) ([]domain.Session, uint64, error)
	Delete(sessionID string) error
}
