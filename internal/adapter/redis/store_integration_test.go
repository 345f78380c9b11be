package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(setupTestClient(t), nil)
}

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func setupEncryptedStore(t *testing.T) *Store {
	t.Helper()
	cipher, err := crypto.NewAesGcmService(testKey)
	require.NoError(t, err)
	return NewStore(setupTestClient(t), cipher)
}

func TestNewClient_Connects(t *testing.T) {
	client := setupTestClient(t)
	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://nope", ClientOptions{})
	assert.Error(t, err)
}

func TestBaselines(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	empty, err := store.LoadBaselines(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.SaveBaseline(ctx, "alice", 9, 0.25))
	require.NoError(t, store.SaveBaseline(ctx, "alice", 22, -0.125))

	got, err := store.LoadBaselines(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.HourlyBaselines{9: 0.25, 22: -0.125}, got)

	require.NoError(t, store.ClearBaselines(ctx, "alice"))
	got, err = store.LoadBaselines(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBaselines_Corrupt(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.rdb.HSet(ctx, baselinesKey("alice"), "9", "not-a-number").Err())

	_, err := store.LoadBaselines(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrStateCorruption)
}

func TestMoodHistory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := range 3 {
		require.NoError(t, store.AppendMood(ctx, "alice", domain.MoodEntry{
			Timestamp: testTime.Add(time.Duration(i) * time.Hour),
			Score:     -0.1 * float64(i),
		}))
	}

	got, err := store.ListMood(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Timestamp.Equal(testTime))
	assert.InDelta(t, -0.2, got[2].Score, 1e-9)
}

func TestMoodHistory_Bounded(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	pipe := store.rdb.Pipeline()
	for range domain.MaxHistoryEntries {
		pipe.RPush(ctx, historyKey("alice"), `{"timestamp":"2026-03-02T09:30:00Z","score":0}`)
	}
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, store.AppendMood(ctx, "alice", domain.MoodEntry{Timestamp: testTime, Score: 0.5}))

	got, err := store.ListMood(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got, domain.MaxHistoryEntries)
	assert.Equal(t, 0.5, got[len(got)-1].Score)
}

func TestAlertAcknowledgement(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	at, err := store.AlertAcknowledged(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	require.NoError(t, store.AcknowledgeAlert(ctx, "alice", testTime))
	at, err = store.AlertAcknowledged(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, at.Equal(testTime))

	require.NoError(t, store.AppendMood(ctx, "alice", domain.MoodEntry{Timestamp: testTime, Score: 0.1}))
	require.NoError(t, store.ClearMood(ctx, "alice"))

	at, err = store.AlertAcknowledged(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, at.IsZero())
	entries, err := store.ListMood(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCrisisLog(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var last uuid.UUID
	for i := range 3 {
		last = uuid.New()
		require.NoError(t, store.AppendCrisis(ctx, domain.CrisisLogRecord{
			ID:        last,
			UserID:    "alice",
			Timestamp: testTime.Add(time.Duration(i) * time.Second),
			TextRef:   "abc",
			Matched:   []string{"want to die"},
			Score:     -0.9,
		}))
	}
	require.NoError(t, store.AppendCrisis(ctx, domain.CrisisLogRecord{ID: uuid.New(), UserID: "bob"}))

	all, err := store.ListCrisis(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, last, all[0].ID)
	assert.Equal(t, []string{"want to die"}, all[0].Matched)

	limited, err := store.ListCrisis(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := store.ListCrisis(ctx, "carol", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMoodHistory_Encrypted(t *testing.T) {
	store := setupEncryptedStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendMood(ctx, "alice", domain.MoodEntry{Timestamp: testTime, Score: -0.8125}))

	raw, err := store.rdb.LRange(ctx, historyKey("alice"), 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.NotContains(t, raw[0], "score")

	got, err := store.ListMood(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, -0.8125, got[0].Score)
	assert.True(t, got[0].Timestamp.Equal(testTime))

	plain := NewStore(store.rdb, nil)
	_, err = plain.ListMood(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrStateCorruption)
}

func TestCrisisLog_Encrypted(t *testing.T) {
	store := setupEncryptedStore(t)
	ctx := context.Background()

	rec := domain.CrisisLogRecord{
		ID:        uuid.New(),
		UserID:    "alice",
		Timestamp: testTime,
		TextRef:   "abc",
		Matched:   []string{"want to die"},
		Score:     -0.9,
	}
	require.NoError(t, store.AppendCrisis(ctx, rec))

	messages, err := store.rdb.XRange(ctx, crisisKey("alice"), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.NotContains(t, messages[0].Values["record"], "want to die")

	got, err := store.ListCrisis(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, rec.Matched, got[0].Matched)
}
