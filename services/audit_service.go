package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"chatguard/contract"
	"chatguard/domain"
	cgerrors "chatguard/errors"
	"chatguard/normalize"
	"chatguard/observability"
	"chatguard/sentiment"
	"chatguard/toxicity"

	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
)

// HealthGate reports whether the classifier collaborator is believed to be
// alive. A nil gate means "always healthy".
type HealthGate interface {
	Healthy() bool
}

type IAuditService interface {
	AuditText(ctx context.Context, text string) (AuditOutcome, error)
	AuditImage(ctx context.Context, image []byte) (AuditOutcome, error)
	History(skip, limit int) ([]domain.Session, error)
	SearchHistory(ctx context.Context, query string, skip, limit int) ([]domain.Session, uint64, error)
	Detail(sessionID string) (domain.SessionDetail, error)
	Delete(sessionID string) error
}

// AuditOutcome is one finished, archived audit.
type AuditOutcome struct {
	SessionID      string
	Result         domain.AuditResult
	ElapsedSeconds float64
}

// AuditService runs the full pipeline: parse, per-message classification on
// a bounded pool, aggregation, then an all-or-nothing archive write.
type AuditService struct {
	parser        *normalize.Parser
	engine        *toxicity.Engine
	adapter       *sentiment.Adapter
	extractor     contract.TextExtractor
	store         contract.AuditStore
	gate          HealthGate
	metrics       *observability.PipelineMetrics
	pool          *ants.MultiPool
	validate      *validator.Validate
	textRule      string
	maxImageBytes int64
	log           *slog.Logger
}

func NewAuditService(
	parser *normalize.Parser,
	engine *toxicity.Engine,
	adapter *sentiment.Adapter,
	extractor contract.TextExtractor,
	store contract.AuditStore,
	gate HealthGate,
	metrics *observability.PipelineMetrics,
	concurrentPools, sizePerPool int,
	maxTextLength int, maxImageBytes int64,
	log *slog.Logger,
) (*AuditService, error) {
	// The classifier call is the expensive step; a bounded multi-pool keeps
	// one slow audit from starving concurrent ones.
	pool, err := ants.NewMultiPool(concurrentPools, sizePerPool, ants.RoundRobin)
	if err != nil {
		return nil, fmt.Errorf("classifier pool: %w", err)
	}

	return &AuditService{
		parser:        parser,
		engine:        engine,
		adapter:       adapter,
		extractor:     extractor,
		store:         store,
		gate:          gate,
		metrics:       metrics,
		pool:          pool,
		validate:      validator.New(),
		textRule:      fmt.Sprintf("required,max=%d", maxTextLength),
		maxImageBytes: maxImageBytes,
		log:           log,
	}, nil
}

// Close drains the worker pool.
func (s *AuditService) Close() error {
	return s.pool.ReleaseTimeout(5 * time.Second)
}

// AuditText audits a raw chat log and archives the result.
func (s *AuditService) AuditText(ctx context.Context, text string) (AuditOutcome, error) {
	if err := s.validate.Var(text, s.textRule); err != nil {
		return AuditOutcome{}, fmt.Errorf("invalid audit text: %w", err)
	}
	return s.audit(ctx, text, domain.SourceText)
}

// AuditImage extracts text from a chat screenshot, then audits it.
func (s *AuditService) AuditImage(ctx context.Context, image []byte) (AuditOutcome, error) {
	if int64(len(image)) > s.maxImageBytes {
		return AuditOutcome{}, fmt.Errorf("%w: image exceeds %d bytes", cgerrors.ErrUnsupportedImage, s.maxImageBytes)
	}

	text, err := s.extractor.ExtractText(ctx, image)
	if err != nil {
		return AuditOutcome{}, fmt.Errorf("text extraction: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return AuditOutcome{}, cgerrors.ErrEmptyText
	}
	if s.metrics != nil {
		s.metrics.IncrImagesExtracted()
	}
	return s.audit(ctx, text, domain.SourceImage)
}

func (s *AuditService) audit(ctx context.Context, text string, source domain.Source) (AuditOutcome, error) {
	start := time.Now()

	messages := s.parser.Parse(text)
	if len(messages) == 0 {
		return AuditOutcome{}, cgerrors.ErrNoMessages
	}

	analyses := make([]domain.MessageAnalysis, len(messages))
	var wg sync.WaitGroup
	for i, message := range messages {
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			analyses[i] = s.analyzeMessage(ctx, message)
		}); err != nil {
			wg.Done()
			return AuditOutcome{}, fmt.Errorf("submit message %d: %w", message.Order, err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		// Partial results are simply discarded; nothing was persisted yet.
		return AuditOutcome{}, err
	}

	result := Aggregate(analyses)
	elapsed := round2(time.Since(start).Seconds())

	sessionID, err := s.store.Save(result, source, elapsed)
	if err != nil {
		return AuditOutcome{}, fmt.Errorf("archive audit: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncrAuditsCompleted()
		s.metrics.IncrMessagesAnalyzed(uint64(result.TotalMessages))
		s.metrics.IncrToxicFound(uint64(result.ToxicMessages))
	}

	s.log.Info("Audit archived",
		"session", sessionID,
		"source", source,
		"messages", result.TotalMessages,
		"toxic", result.ToxicMessages,
		"safety_score", result.SafetyScore,
		"elapsed_s", elapsed)

	return AuditOutcome{SessionID: sessionID, Result: result, ElapsedSeconds: elapsed}, nil
}

// analyzeMessage runs the rule engine and the sentiment adapter for one
// message. The two verdicts are independent: a classifier outage never
// touches the toxicity result.
func (s *AuditService) analyzeMessage(ctx context.Context, message domain.ChatMessage) domain.MessageAnalysis {
	verdict := s.engine.Classify(message.NormalizedText)
	positiveContext := s.engine.HasPositiveContext(message.NormalizedText)

	var sentimentVerdict domain.SentimentVerdict
	if s.gate != nil && !s.gate.Healthy() {
		s.log.Warn("Classifier sidecar unhealthy, skipping inference", "order", message.Order)
		sentimentVerdict = domain.SentimentVerdict{Label: domain.SentimentError, Score: 0.0}
	} else {
		sentimentVerdict = s.adapter.Analyze(ctx, message.NormalizedText, positiveContext)
	}
	if s.metrics != nil && sentimentVerdict.Label == domain.SentimentError {
		s.metrics.IncrClassifierFailures()
	}

	return domain.MessageAnalysis{
		Message:   message,
		Toxicity:  verdict,
		Sentiment: sentimentVerdict,
	}
}

// History lists archived sessions, newest first.
func (s *AuditService) History(skip, limit int) ([]domain.Session, error) {
	return s.store.List(skip, limit)
}

// SearchHistory runs a full-text query over the archived chat text.
func (s *AuditService) SearchHistory(ctx context.Context, query string, skip, limit int) ([]domain.Session, uint64, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, fmt.Errorf("empty search query")
	}
	return s.store.Search(ctx, query, skip, limit)
}

// Detail returns one archived session with its messages in parse order.
func (s *AuditService) Detail(sessionID string) (domain.SessionDetail, error) {
	return s.store.Fetch(sessionID)
}

// Delete removes one archived session and all its messages.
func (s *AuditService) Delete(sessionID string) error {
	return s.store.Delete(sessionID)
}

// Aggregate folds per-message verdicts into the summary. The safety score
// is the truncated percentage of non-toxic messages; an empty audit scores
// a full 100.
func Aggregate(analyses []domain.MessageAnalysis) domain.AuditResult {
	total := len(analyses)
	toxic := lo.CountBy(analyses, func(a domain.MessageAnalysis) bool {
		return a.Toxicity.IsToxic
	})

	score := 100
	if total > 0 {
		score = int(100 - (float64(toxic)/float64(total))*100)
	}

	return domain.AuditResult{
		Messages:      analyses,
		TotalMessages: total,
		ToxicMessages: toxic,
		SafetyScore:   score,
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
