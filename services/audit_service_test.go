package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"chatguard/domain"
	cgerrors "chatguard/errors"
	"chatguard/lexicon"
	"chatguard/mocks"
	"chatguard/normalize"
	"chatguard/observability"
	"chatguard/sentiment"
	"chatguard/toxicity"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type staticGate bool

func (g staticGate) Healthy() bool { return bool(g) }

type serviceFixture struct {
	service    *AuditService
	classifier *mocks.MockClassifier
	extractor  *mocks.MockTextExtractor
	store      *mocks.MockAuditStore
	metrics    *observability.PipelineMetrics
}

func newFixture(t *testing.T, gate HealthGate) serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	classifier := mocks.NewMockClassifier(ctrl)
	extractor := mocks.NewMockTextExtractor(ctrl)
	store := mocks.NewMockAuditStore(ctrl)

	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	lex := lexicon.NewStore("testdata/lexicon.csv", log)
	require.NoError(t, lex.Load())

	engine, err := toxicity.NewEngine()
	require.NoError(t, err)

	metrics := observability.NewPipelineMetrics(log)
	service, err := NewAuditService(
		normalize.NewParser(normalize.NewNormalizer(lex)),
		engine,
		sentiment.NewAdapter(classifier, 200*time.Millisecond, log),
		extractor,
		store,
		gate,
		metrics,
		2, 4,
		50000, 1024*1024,
		log,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Close() })

	return serviceFixture{service: service, classifier: classifier, extractor: extractor, store: store, metrics: metrics}
}

func neutralClassifier(c *mocks.MockClassifier) {
	c.EXPECT().Classify(gomock.Any(), gomock.Any()).
		Return([]domain.Prediction{{Label: "neutral", Score: 0.9}}, nil).
		AnyTimes()
}

func TestAuditService_AuditText(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	neutralClassifier(f.classifier)

	var saved domain.AuditResult
	f.store.EXPECT().
		Save(gomock.Any(), domain.SourceText, gomock.Any()).
		DoAndReturn(func(result domain.AuditResult, _ domain.Source, elapsed float64) (string, error) {
			saved = result
			require.GreaterOrEqual(t, elapsed, 0.0)
			return "session-1", nil
		})

	log := "10:30 - Andi: gmn kabar lu?\n10:31 - Budi: anjing lu\n10:32 - Andi: tai lah\n10:33 - Budi: oke deh"
	outcome, err := f.service.AuditText(context.Background(), log)
	req.NoError(err)

	req.Equal("session-1", outcome.SessionID)
	req.Equal(4, outcome.Result.TotalMessages)
	req.Equal(1, outcome.Result.ToxicMessages)
	req.Equal(75, outcome.Result.SafetyScore)
	req.Equal(saved, outcome.Result)

	// Parse order survives the concurrent fan-out.
	for i, analysis := range outcome.Result.Messages {
		req.Equal(i+1, analysis.Message.Order)
	}
	req.Equal("Budi", outcome.Result.Messages[1].Message.Sender)
	req.Equal(domain.SeverityHard, outcome.Result.Messages[1].Toxicity.Level)
	req.Equal(domain.SeverityCrude, outcome.Result.Messages[2].Toxicity.Level)
	req.False(outcome.Result.Messages[2].Toxicity.IsToxic)
}

func TestAuditService_AuditText_Validation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	_, err := f.service.AuditText(context.Background(), "")
	req.Error(err)

	_, err = f.service.AuditText(context.Background(), strings.Repeat("a", 50001))
	req.Error(err)
}

func TestAuditService_AuditText_NoMessages(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	_, err := f.service.AuditText(context.Background(), "   \n  \n ")
	req.ErrorIs(err, cgerrors.ErrNoMessages)
}

func TestAuditService_AuditText_StoreFailure(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	neutralClassifier(f.classifier)

	f.store.EXPECT().
		Save(gomock.Any(), domain.SourceText, gomock.Any()).
		Return("", fmt.Errorf("disk full"))

	_, err := f.service.AuditText(context.Background(), "halo semua")
	req.ErrorContains(err, "archive audit")
}

func TestAuditService_AuditText_Cancellation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	f.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(c context.Context, _ string) ([]domain.Prediction, error) {
			cancel()
			<-c.Done()
			return nil, c.Err()
		}).
		AnyTimes()

	// Save must never run on a cancelled audit.
	_, err := f.service.AuditText(ctx, "halo\napa kabar")
	req.ErrorIs(err, context.Canceled)
}

func TestAuditService_AuditImage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	neutralClassifier(f.classifier)

	image := []byte{0x89, 'P', 'N', 'G'}
	f.extractor.EXPECT().ExtractText(gomock.Any(), image).
		Return("11:00 - Citra: mantap banget bro", nil)
	f.store.EXPECT().
		Save(gomock.Any(), domain.SourceImage, gomock.Any()).
		Return("session-img", nil)

	outcome, err := f.service.AuditImage(context.Background(), image)
	req.NoError(err)
	req.Equal("session-img", outcome.SessionID)
	req.Equal(1, outcome.Result.TotalMessages)
	req.Equal(100, outcome.Result.SafetyScore)
	req.Equal("Citra", outcome.Result.Messages[0].Message.Sender)
}

func TestAuditService_AuditImage_Failures(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	t.Run("Oversized image", func(t *testing.T) {
		_, err := f.service.AuditImage(context.Background(), make([]byte, 2*1024*1024))
		req.ErrorIs(err, cgerrors.ErrUnsupportedImage)
	})

	t.Run("Extraction error", func(t *testing.T) {
		f.extractor.EXPECT().ExtractText(gomock.Any(), gomock.Any()).
			Return("", fmt.Errorf("not an image"))
		_, err := f.service.AuditImage(context.Background(), []byte("junk"))
		req.ErrorContains(err, "text extraction")
	})

	t.Run("Blank extraction", func(t *testing.T) {
		f.extractor.EXPECT().ExtractText(gomock.Any(), gomock.Any()).
			Return("  \n ", nil)
		_, err := f.service.AuditImage(context.Background(), []byte("blank"))
		req.ErrorIs(err, cgerrors.ErrEmptyText)
	})
}

func TestAuditService_UnhealthyGateSkipsClassifier(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, staticGate(false))

	// No Classify expectation: the gate must short-circuit inference.
	f.store.EXPECT().
		Save(gomock.Any(), domain.SourceText, gomock.Any()).
		Return("session-degraded", nil)

	outcome, err := f.service.AuditText(context.Background(), "anjing lu bro")
	req.NoError(err)

	analysis := outcome.Result.Messages[0]
	req.Equal(domain.SentimentError, analysis.Sentiment.Label)
	// Toxicity verdicts never depend on the sidecar.
	req.Equal(domain.SeverityHard, analysis.Toxicity.Level)
	req.True(analysis.Toxicity.IsToxic)
}

func TestAuditService_HistoryDelegation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	sessions := []domain.Session{{ID: "a"}, {ID: "b"}}
	f.store.EXPECT().List(0, 20).Return(sessions, nil)
	f.store.EXPECT().Fetch("a").Return(domain.SessionDetail{Session: domain.Session{ID: "a"}}, nil)
	f.store.EXPECT().Delete("b").Return(nil)

	got, err := f.service.History(0, 20)
	req.NoError(err)
	req.Equal(sessions, got)

	detail, err := f.service.Detail("a")
	req.NoError(err)
	req.Equal("a", detail.ID)

	req.NoError(f.service.Delete("b"))
}

func TestAuditService_SearchHistory(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	f.store.EXPECT().Search(gomock.Any(), "goblok", 0, 20).
		Return([]domain.Session{{ID: "hit"}}, uint64(1), nil)

	sessions, total, err := f.service.SearchHistory(context.Background(), "goblok", 0, 20)
	req.NoError(err)
	req.Equal(uint64(1), total)
	req.Len(sessions, 1)

	_, _, err = f.service.SearchHistory(context.Background(), "   ", 0, 20)
	req.Error(err)
}

func TestAggregate(t *testing.T) {
	toxic := domain.MessageAnalysis{Toxicity: domain.ToxicityVerdict{Level: domain.SeverityHard, IsToxic: true}}
	clean := domain.MessageAnalysis{Toxicity: domain.ToxicityVerdict{Level: domain.SeverityNone}}
	crude := domain.MessageAnalysis{Toxicity: domain.ToxicityVerdict{Level: domain.SeverityCrude}}

	tests := []struct {
		name          string
		analyses      []domain.MessageAnalysis
		expectedToxic int
		expectedScore int
	}{
		{
			name:          "Empty audit is fully safe",
			analyses:      nil,
			expectedToxic: 0,
			expectedScore: 100,
		},
		{
			name:          "Half toxic",
			analyses:      []domain.MessageAnalysis{toxic, clean},
			expectedToxic: 1,
			expectedScore: 50,
		},
		{
			name:          "Crude does not count as toxic",
			analyses:      []domain.MessageAnalysis{crude, clean},
			expectedToxic: 0,
			expectedScore: 100,
		},
		{
			name:          "Fraction truncated not rounded",
			analyses:      []domain.MessageAnalysis{toxic, clean, clean},
			expectedToxic: 1,
			expectedScore: 66,
		},
		{
			name:          "All toxic",
			analyses:      []domain.MessageAnalysis{toxic, toxic},
			expectedToxic: 2,
			expectedScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			result := Aggregate(tt.analyses)
			req.Equal(len(tt.analyses), result.TotalMessages)
			req.Equal(tt.expectedToxic, result.ToxicMessages)
			req.Equal(tt.expectedScore, result.SafetyScore)
		})
	}
}
