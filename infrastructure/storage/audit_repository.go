package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chatguard/domain"
	cgerrors "chatguard/errors"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const maxListLimit = 100

// AuditRepository archives audits in BadgerDB and mirrors each session into
// a Bluge index for full-text lookup over the raw chat text.
//
// Key layout:
//
//	session:{timestamp_padded}:{uuid}  the session summary
//	msg:{session_uuid}:{order_padded}  one analyzed message
//	idx:session:{uuid}                 uuid -> primary session key
//
// The 19-digit zero padding keeps sessions lexicographically sorted by
// creation time, so a reverse prefix scan yields newest-first. The idx entry
// exists because callers address sessions by uuid alone.
type AuditRepository struct {
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
}

func NewAuditRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) *AuditRepository {
	return &AuditRepository{db: db, index: index, log: log}
}

type sessionRecord struct {
	ID             string        `json:"id"`
	Source         domain.Source `json:"source"`
	CreatedAt      time.Time     `json:"created_at"`
	TotalMessages  int           `json:"total_messages"`
	ToxicMessages  int           `json:"toxic_messages"`
	SafetyScore    int           `json:"safety_score"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
}

func sessionKey(createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("session:%019d:%s", createdAt.UnixNano(), id))
}

func sessionIndexKey(id string) []byte {
	return []byte("idx:session:" + id)
}

func messageKey(sessionID string, order int) []byte {
	return []byte(fmt.Sprintf("msg:%s:%06d", sessionID, order))
}

func messagePrefix(sessionID string) []byte {
	return []byte("msg:" + sessionID + ":")
}

// Save archives one finished audit in a single transaction and indexes the
// session text. Returns the new session id.
func (r *AuditRepository) Save(result domain.AuditResult, source domain.Source, elapsedSeconds float64) (string, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	record := sessionRecord{
		ID:             id,
		Source:         source,
		CreatedAt:      createdAt,
		TotalMessages:  result.TotalMessages,
		ToxicMessages:  result.ToxicMessages,
		SafetyScore:    result.SafetyScore,
		ElapsedSeconds: elapsedSeconds,
	}
	sessionBytes, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	primaryKey := sessionKey(createdAt, id)
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(primaryKey, sessionBytes); err != nil {
			return err
		}
		if err := txn.Set(sessionIndexKey(id), primaryKey); err != nil {
			return err
		}
		for _, analysis := range result.Messages {
			messageBytes, err := json.Marshal(analysis)
			if err != nil {
				return err
			}
			if err := txn.Set(messageKey(id, analysis.Message.Order), messageBytes); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("badger save: %w", err)
	}

	if err := r.indexSession(record, result); err != nil {
		// The badger write already landed; a missing index entry only
		// degrades search, so log it instead of failing the audit.
		r.log.Error("Unable to index session", "session", id, "error", err)
	}
	return id, nil
}

func (r *AuditRepository) indexSession(record sessionRecord, result domain.AuditResult) error {
	var sb strings.Builder
	for _, analysis := range result.Messages {
		sb.WriteString(analysis.Message.RawText)
		sb.WriteByte('\n')
	}

	doc := bluge.NewDocument(record.ID).
		AddField(bluge.NewTextField("text", sb.String())).
		AddField(bluge.NewDateTimeField("created_at", record.CreatedAt)).
		AddField(bluge.NewNumericField("safety_score", float64(record.SafetyScore)))

	return r.index.Update(doc.ID(), doc)
}

// Fetch returns one archived session with its messages in parse order.
func (r *AuditRepository) Fetch(sessionID string) (domain.SessionDetail, error) {
	var detail domain.SessionDetail
	err := r.db.View(func(txn *badger.Txn) error {
		record, err := r.loadSession(txn, sessionID)
		if err != nil {
			return err
		}
		detail.Session = toSession(record)

		options := badger.DefaultIteratorOptions
		prefix := messagePrefix(sessionID)
		it := txn.NewIterator(options)
		defer it.Close()

		// Forward scan over the padded order keeps parse order.
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var analysis domain.MessageAnalysis
				if err := json.Unmarshal(value, &analysis); err != nil {
					return err
				}
				detail.Messages = append(detail.Messages, analysis)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.SessionDetail{}, err
	}
	return detail, nil
}

// List returns archived sessions, newest first. The limit is capped.
func (r *AuditRepository) List(skip, limit int) ([]domain.Session, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	var sessions []domain.Session
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("session:")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the last possible session key, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if skipped < skip {
				skipped++
				continue
			}
			if len(sessions) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var record sessionRecord
				if err := json.Unmarshal(value, &record); err != nil {
					return err
				}
				sessions = append(sessions, toSession(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes a session, its messages and its search document.
func (r *AuditRepository) Delete(sessionID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionIndexKey(sessionID))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", cgerrors.ErrSessionNotFound, sessionID)
		}
		if err != nil {
			return err
		}
		primaryKey, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		if err := txn.Delete(primaryKey); err != nil {
			return err
		}
		if err := txn.Delete(sessionIndexKey(sessionID)); err != nil {
			return err
		}

		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		prefix := messagePrefix(sessionID)
		it := txn.NewIterator(options)
		defer it.Close()

		var messageKeys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			messageKeys = append(messageKeys, it.Item().KeyCopy(nil))
		}
		for _, key := range messageKeys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := r.index.Delete(bluge.Identifier(sessionID)); err != nil {
		r.log.Error("Unable to remove session from index", "session", sessionID, "error", err)
	}
	return nil
}

// Search runs a full-text match over the archived chat text and hydrates the
// matching sessions from BadgerDB, most relevant first.
func (r *AuditRepository) Search(ctx context.Context, query string, skip, limit int) ([]domain.Session, uint64, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	reader, err := r.index.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("open index reader: %w", err)
	}
	defer reader.Close()

	matchQuery := bluge.NewMatchQuery(query).SetField("text")
	request := bluge.NewTopNSearch(limit, matchQuery).
		SetFrom(skip).
		WithStandardAggregations()

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, fmt.Errorf("index search: %w", err)
	}

	var ids []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, 0, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, 0, err
		}
	}
	total := iterator.Aggregations().Count()

	var sessions []domain.Session
	err = r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			record, err := r.loadSession(txn, id)
			if err != nil {
				// Index can briefly lag a deletion.
				r.log.Warn("Indexed session missing from store", "session", id)
				continue
			}
			sessions = append(sessions, toSession(record))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Flush makes pending index writes visible to searches.
func (r *AuditRepository) Flush() error {
	// Bluge has no explicit flush; a fresh batch round-trip forces a commit.
	return r.index.Batch(bluge.NewBatch())
}

func (r *AuditRepository) loadSession(txn *badger.Txn, sessionID string) (sessionRecord, error) {
	item, err := txn.Get(sessionIndexKey(sessionID))
	if err == badger.ErrKeyNotFound {
		return sessionRecord{}, fmt.Errorf("%w: %s", cgerrors.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return sessionRecord{}, err
	}
	primaryKey, err := item.ValueCopy(nil)
	if err != nil {
		return sessionRecord{}, err
	}

	sessionItem, err := txn.Get(primaryKey)
	if err != nil {
		return sessionRecord{}, err
	}
	var record sessionRecord
	err = sessionItem.Value(func(value []byte) error {
		return json.Unmarshal(value, &record)
	})
	return record, err
}

func toSession(record sessionRecord) domain.Session {
	return domain.Session{
		ID:             record.ID,
		Source:         record.Source,
		CreatedAt:      record.CreatedAt,
		TotalMessages:  record.TotalMessages,
		ToxicMessages:  record.ToxicMessages,
		SafetyScore:    record.SafetyScore,
		ElapsedSeconds: record.ElapsedSeconds,
	}
}
