// Package lexicon loads and serves the colloquial slang lexicon.
// The backing file is tabular (CSV with a header row); see the dataset
// published with the colloquial Indonesian lexicon paper.
package lexicon

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"chatguard/domain"
	cgerrors "chatguard/errors"
)

// Store holds the slang→formal mapping. Readers always observe either no
// snapshot at all or a fully built one; a reload swaps the snapshot
// atomically underneath concurrent readers.
type Store struct {
	path     string
	log      *slog.Logger
	snapshot atomic.Pointer[snapshot]
	mu       sync.Mutex // serializes Load / ForceReload
}

type snapshot struct {
	entries map[string]domain.LexiconEntry
}

func NewStore(path string, log *slog.Logger) *Store {
	return &Store{path: path, log: log}
}

// Load reads the lexicon file once per process. Subsequent calls are no-ops.
func (s *Store) Load() error {
	if s.snapshot.Load() != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Load() != nil {
		return nil
	}
	return s.reload()
}

// ForceReload rebuilds the mapping from disk regardless of current state.
// Safe to call while readers are active: they keep seeing the old snapshot
// until the new one is complete.
func (s *Store) ForceReload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload()
}

func (s *Store) reload() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", cgerrors.ErrLexiconMissing, s.path)
		}
		return fmt.Errorf("open lexicon: %w", err)
	}
	defer file.Close()

	entries, err := parse(file)
	if err != nil {
		return fmt.Errorf("parse lexicon %s: %w", s.path, err)
	}

	s.snapshot.Store(&snapshot{entries: entries})
	s.log.Info("Lexicon loaded", "path", s.path, "entries", len(entries))
	return nil
}

// Formal returns the formal substitution for a slang token.
func (s *Store) Formal(token string) (string, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return "", false
	}
	entry, ok := snap.entries[token]
	if !ok {
		return "", false
	}
	return entry.Formal, true
}

// Entry returns the full lexicon entry for a slang token.
func (s *Store) Entry(token string) (domain.LexiconEntry, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return domain.LexiconEntry{}, false
	}
	entry, ok := snap.entries[token]
	return entry, ok
}

// Size reports the number of loaded entries, 0 while unloaded.
func (s *Store) Size() int {
	snap := s.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// columns resolves header names to indexes. Names are matched
// case-insensitively; `-` and `_` are interchangeable for the
// in-dictionary flag. Optional columns resolve to -1 when absent.
type columns struct {
	slang    int
	formal   int
	inDict   int
	context  int
	category []int
}

func resolveColumns(header []string) columns {
	cols := columns{slang: 0, formal: 1, inDict: -1, context: -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case name == "slang":
			cols.slang = i
		case name == "formal":
			cols.formal = i
		case strings.ReplaceAll(name, "-", "_") == "in_dictionary":
			cols.inDict = i
		case name == "context":
			cols.context = i
		case strings.HasPrefix(name, "category"):
			cols.category = append(cols.category, i)
		}
	}
	return cols
}

func parse(r io.Reader) (map[string]domain.LexiconEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may miss optional trailing columns

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return map[string]domain.LexiconEntry{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := resolveColumns(header)

	entries := make(map[string]domain.LexiconEntry)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		slang := strings.ToLower(strings.TrimSpace(field(record, cols.slang)))
		if slang == "" {
			continue
		}
		if cols.inDict >= 0 && !truthy(field(record, cols.inDict)) {
			continue
		}

		formal := strings.ToLower(strings.TrimSpace(field(record, cols.formal)))
		if formal == "" {
			formal = slang
		}

		entry := domain.LexiconEntry{Slang: slang, Formal: formal}
		if cols.context >= 0 {
			entry.Context = strings.TrimSpace(field(record, cols.context))
		}
		for _, c := range cols.category {
			v := strings.TrimSpace(field(record, c))
			switch strings.ToLower(v) {
			case "", "0", "nan", "none":
			default:
				entry.Categories = append(entry.Categories, v)
			}
		}

		entries[slang] = entry
	}
	return entries, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// truthy accepts {1,true,yes,y,t} case-insensitively, or any nonzero
// number. Everything else, including blanks and NaN, is false.
func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "t":
		return true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(f) && f != 0
}
