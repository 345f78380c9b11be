package sentiment

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/pscheid92/moodpulse/internal/domain"
)

// CrisisCeiling is the highest score a message containing crisis language can receive.
const CrisisCeiling = -0.7

var crisisPhrases = []string{
	"kill myself",
	"suicide",
	"suicidal",
	"want to die",
	"end my life",
	"end it all",
	"self harm",
	"hurt myself",
	"cut myself",
	"better off dead",
	"no reason to live",
	"disappear forever",
	"give up on life",
}

// CrisisKeywordScanner caps the score of high-risk messages and writes every
// detection to the crisis log. It works on raw text only and never depends on a model.
type CrisisKeywordScanner struct {
	phrases []phrase
	log     domain.CrisisLog
}

// NewCrisisKeywordScanner creates the scanner. log may be nil, in which case
// detections are only reported through structured logging.
func NewCrisisKeywordScanner(log domain.CrisisLog) *CrisisKeywordScanner {
	return &CrisisKeywordScanner{phrases: compilePhrases(crisisPhrases), log: log}
}

// Scan returns whether text contains crisis language and which phrases matched.
func (s *CrisisKeywordScanner) Scan(text string) (bool, []string) {
	matched := matchPhrases(s.phrases, normalize(text))
	return len(matched) > 0, matched
}

func (s *CrisisKeywordScanner) Apply(_ context.Context, score float64, turn *Turn) (float64, error) {
	flagged, matched := s.Scan(turn.Text)
	if !flagged {
		return score, nil
	}
	turn.crisisMatched = matched
	turn.flag("crisis")
	turn.capAt(CrisisCeiling)
	return min(score, CrisisCeiling), nil
}

// Record appends an audit record. Failures are logged, never returned: scoring must not
// depend on the log being writable.
func (s *CrisisKeywordScanner) Record(ctx context.Context, userID, text string, matched []string, score float64, ts time.Time) {
	record := domain.CrisisLogRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Timestamp: ts,
		TextRef:   TextRef(text),
		Matched:   matched,
		Score:     score,
	}
	slog.WarnContext(ctx, "Crisis language detected", "user_id", userID, "text_ref", record.TextRef, "matched", matched, "score", score)

	if s.log == nil {
		return
	}
	if err := s.log.AppendCrisis(ctx, record); err != nil {
		slog.ErrorContext(ctx, "Failed to append crisis log record", "user_id", userID, "record_id", record.ID.String(), "error", err)
	}
}

// TextRef is the stable reference under which a message appears in audit records.
func TextRef(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 16)
}
