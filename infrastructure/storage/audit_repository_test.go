package storage

import (
	"testing"
	"time"

	"chatguard/domain"
	cgerrors "chatguard/errors"

	db "github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *AuditRepository {
	t.Helper()
	_, log, badgerDB, blugeWriter, err := db.SetupBenchmark(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupDB(badgerDB, blugeWriter) })
	return NewAuditRepository(badgerDB, blugeWriter, log)
}

func sampleResult(texts ...string) domain.AuditResult {
	result := domain.AuditResult{TotalMessages: len(texts), SafetyScore: 100}
	for i, text := range texts {
		result.Messages = append(result.Messages, domain.MessageAnalysis{
			Message: domain.ChatMessage{
				Order:          i + 1,
				Sender:         "Andi",
				RawText:        text,
				NormalizedText: text,
			},
			Toxicity:  domain.ToxicityVerdict{Level: domain.SeverityNone},
			Sentiment: domain.SentimentVerdict{Label: domain.SentimentNeutral, Score: 0.5},
		})
	}
	return result
}

func TestAuditRepository_SaveAndFetch(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)

	result := sampleResult("halo semua", "apa kabar", "sampai nanti")
	result.ToxicMessages = 0

	id, err := repo.Save(result, domain.SourceText, 0.37)
	req.NoError(err)
	req.NotEmpty(id)

	detail, err := repo.Fetch(id)
	req.NoError(err)
	req.Equal(id, detail.ID)
	req.Equal(domain.SourceText, detail.Source)
	req.Equal(3, detail.TotalMessages)
	req.InDelta(0.37, detail.ElapsedSeconds, 1e-9)
	req.Len(detail.Messages, 3)

	// Parse order survives the round trip.
	for i, analysis := range detail.Messages {
		req.Equal(i+1, analysis.Message.Order)
	}
	req.Equal("apa kabar", detail.Messages[1].Message.RawText)
	req.Equal(domain.SentimentNeutral, detail.Messages[1].Sentiment.Label)
}

func TestAuditRepository_Fetch_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Fetch("00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, cgerrors.ErrSessionNotFound)
}

func TestAuditRepository_List_NewestFirst(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := repo.Save(sampleResult("pesan"), domain.SourceText, 0.1)
		req.NoError(err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}

	sessions, err := repo.List(0, 3)
	req.NoError(err)
	req.Len(sessions, 3)
	req.Equal(ids[4], sessions[0].ID, "Newest should be first")
	req.Equal(ids[3], sessions[1].ID)
	req.Equal(ids[2], sessions[2].ID)

	// Skip walks further back in time.
	rest, err := repo.List(3, 3)
	req.NoError(err)
	req.Len(rest, 2)
	req.Equal(ids[1], rest[0].ID)
	req.Equal(ids[0], rest[1].ID)
}

func TestAuditRepository_List_EmptyStore(t *testing.T) {
	repo := newTestRepository(t)

	sessions, err := repo.List(0, 10)
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestAuditRepository_Delete(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)

	keep, err := repo.Save(sampleResult("tetap ada"), domain.SourceText, 0.1)
	req.NoError(err)
	gone, err := repo.Save(sampleResult("akan dihapus"), domain.SourceText, 0.1)
	req.NoError(err)

	req.NoError(repo.Delete(gone))

	_, err = repo.Fetch(gone)
	req.ErrorIs(err, cgerrors.ErrSessionNotFound)

	// The other session is untouched.
	detail, err := repo.Fetch(keep)
	req.NoError(err)
	req.Len(detail.Messages, 1)

	sessions, err := repo.List(0, 10)
	req.NoError(err)
	req.Len(sessions, 1)
	req.Equal(keep, sessions[0].ID)
}

func TestAuditRepository_Delete_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.Delete("missing-session")
	require.ErrorIs(t, err, cgerrors.ErrSessionNotFound)
}

func TestAuditRepository_Search(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)

	hit, err := repo.Save(sampleResult("rapat soal migrasi database besok"), domain.SourceText, 0.1)
	req.NoError(err)
	_, err = repo.Save(sampleResult("jadi nonton bola nanti malam?"), domain.SourceText, 0.1)
	req.NoError(err)

	req.NoError(repo.Flush())
	time.Sleep(50 * time.Millisecond)

	sessions, total, err := repo.Search(t.Context(), "database", 0, 10)
	req.NoError(err)
	req.Equal(uint64(1), total)
	req.Len(sessions, 1)
	req.Equal(hit, sessions[0].ID)
}

func TestAuditRepository_Search_DeletedSessionDisappears(t *testing.T) {
	req := require.New(t)
	repo := newTestRepository(t)

	id, err := repo.Save(sampleResult("kata kunci unik sekali"), domain.SourceText, 0.1)
	req.NoError(err)
	req.NoError(repo.Flush())
	time.Sleep(50 * time.Millisecond)

	_, total, err := repo.Search(t.Context(), "unik", 0, 10)
	req.NoError(err)
	req.Equal(uint64(1), total)

	req.NoError(repo.Delete(id))
	req.NoError(repo.Flush())
	time.Sleep(50 * time.Millisecond)

	_, total, err = repo.Search(t.Context(), "unik", 0, 10)
	req.NoError(err)
	req.Equal(uint64(0), total)
}
