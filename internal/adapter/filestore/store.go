// Package filestore persists baselines, mood history and the crisis log as JSON
// files under a data directory. It is the zero-infrastructure backend used by
// moodctl and single-node deployments.
package filestore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/crypto"
)

var (
	_ domain.BaselineStore = (*Store)(nil)
	_ domain.CrisisLog     = (*Store)(nil)
	_ domain.MoodHistory   = (*Store)(nil)
)

const crisisLogFile = "crisis.jsonl"

// Store serializes all file access through one mutex. Writes of whole documents
// go through a temp file and rename. Mood entries and crisis records are sealed
// with cipher; baselines are not.
type Store struct {
	dir    string
	clock  clockwork.Clock
	cipher crypto.Service
	mu     sync.Mutex
}

// New opens dir. A nil cipher stores payloads in plaintext.
func New(dir string, clock clockwork.Clock, cipher crypto.Service) (*Store, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cipher == nil {
		cipher = crypto.NoopService{}
	}
	for _, sub := range []string{"baselines", "history"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &Store{dir: dir, clock: clock, cipher: cipher}, nil
}

type baselineDoc struct {
	Hours     domain.HourlyBaselines `json:"hours"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// historyDoc keeps the entries sealed as one payload. The acknowledgement cursor
// carries no mood data and stays readable.
type historyDoc struct {
	Entries           string    `json:"entries,omitempty"`
	AlertAcknowledged time.Time `json:"alert_acknowledged_at,omitzero"`
}

// crisisLine is one line of the crisis log. Record holds the sealed CrisisLogRecord.
type crisisLine struct {
	UserID string `json:"user_id"`
	Record string `json:"record"`
}

func (s *Store) baselinePath(userID string) string {
	return filepath.Join(s.dir, "baselines", userID+".json")
}

func (s *Store) historyPath(userID string) string {
	return filepath.Join(s.dir, "history", userID+".json")
}

func (s *Store) LoadBaselines(_ context.Context, userID string) (domain.HourlyBaselines, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc baselineDoc
	if err := readJSON(s.baselinePath(userID), &doc); err != nil {
		return nil, err
	}
	if doc.Hours == nil {
		doc.Hours = domain.HourlyBaselines{}
	}
	return doc.Hours, nil
}

func (s *Store) SaveBaseline(_ context.Context, userID string, hour int, value float64) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.baselinePath(userID)
	var doc baselineDoc
	if err := readJSON(path, &doc); err != nil {
		if !errors.Is(err, domain.ErrStateCorruption) {
			return err
		}
		slog.Warn("Overwriting corrupt baseline file", "user_id", userID, "error", err)
		doc = baselineDoc{}
	}
	if doc.Hours == nil {
		doc.Hours = domain.HourlyBaselines{}
	}
	doc.Hours[hour] = value
	doc.UpdatedAt = s.clock.Now().UTC()
	return writeJSON(path, doc)
}

func (s *Store) ClearBaselines(_ context.Context, userID string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeIfExists(s.baselinePath(userID))
}

func (s *Store) AppendMood(_ context.Context, userID string, entry domain.MoodEntry) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.historyPath(userID)
	var doc historyDoc
	if err := readJSON(path, &doc); err != nil {
		return err
	}
	entries, err := s.openEntries(doc)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if n := len(entries); n > domain.MaxHistoryEntries {
		entries = slices.Clone(entries[n-domain.MaxHistoryEntries:])
	}
	if doc.Entries, err = crypto.Seal(s.cipher, entries); err != nil {
		return fmt.Errorf("failed to seal mood history: %w", err)
	}
	return writeJSON(path, doc)
}

func (s *Store) ListMood(_ context.Context, userID string) ([]domain.MoodEntry, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc historyDoc
	if err := readJSON(s.historyPath(userID), &doc); err != nil {
		return nil, err
	}
	return s.openEntries(doc)
}

func (s *Store) openEntries(doc historyDoc) ([]domain.MoodEntry, error) {
	if doc.Entries == "" {
		return nil, nil
	}
	entries, err := crypto.Open[[]domain.MoodEntry](s.cipher, doc.Entries)
	if err != nil {
		return nil, fmt.Errorf("%w: mood history: %w", domain.ErrStateCorruption, err)
	}
	return entries, nil
}

func (s *Store) ClearMood(_ context.Context, userID string) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeIfExists(s.historyPath(userID))
}

func (s *Store) AlertAcknowledged(_ context.Context, userID string) (time.Time, error) {
	if err := domain.ValidateUserID(userID); err != nil {
		return time.Time{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc historyDoc
	if err := readJSON(s.historyPath(userID), &doc); err != nil {
		return time.Time{}, err
	}
	return doc.AlertAcknowledged, nil
}

func (s *Store) AcknowledgeAlert(_ context.Context, userID string, at time.Time) error {
	if err := domain.ValidateUserID(userID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.historyPath(userID)
	var doc historyDoc
	if err := readJSON(path, &doc); err != nil {
		return err
	}
	doc.AlertAcknowledged = at.UTC()
	return writeJSON(path, doc)
}

// AppendCrisis writes one JSON line per record. The file is never rewritten.
func (s *Store) AppendCrisis(_ context.Context, record domain.CrisisLogRecord) error {
	sealed, err := crypto.Seal(s.cipher, record)
	if err != nil {
		return fmt.Errorf("failed to seal crisis record: %w", err)
	}
	line, err := json.Marshal(crisisLine{UserID: record.UserID, Record: sealed})
	if err != nil {
		return fmt.Errorf("failed to encode crisis record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(s.dir, crisisLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open crisis log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append crisis record: %w", err)
	}
	return f.Sync()
}

// ListCrisis returns the user's records newest first. limit <= 0 returns all.
// Malformed or undecryptable lines are skipped.
func (s *Store) ListCrisis(_ context.Context, userID string, limit int) ([]domain.CrisisLogRecord, error) {
	s.mu.Lock()
	data, err := os.ReadFile(filepath.Join(s.dir, crisisLogFile))
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read crisis log: %w", err)
	}

	var records []domain.CrisisLogRecord
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var line crisisLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			slog.Warn("Skipping malformed crisis log line", "line", lineNo, "error", err)
			continue
		}
		if line.UserID != userID {
			continue
		}
		rec, err := crypto.Open[domain.CrisisLogRecord](s.cipher, line.Record)
		if err != nil {
			slog.Warn("Skipping unreadable crisis log line", "line", lineNo, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan crisis log: %w", err)
	}

	slices.Reverse(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// readJSON leaves v untouched when the file does not exist.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrStateCorruption, filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, data, 0o600)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
