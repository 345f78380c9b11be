package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/config"
	apperrors "github.com/pscheid92/moodpulse/internal/platform/errors"
	"github.com/pscheid92/moodpulse/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAnalyze(t *testing.T) {
	var gotUser, gotText string
	var gotTS time.Time
	svc := &mockMoodService{analyzeFn: func(_ context.Context, userID, text string, ts time.Time) (sentiment.Result, error) {
		gotUser, gotText, gotTS = userID, text, ts
		return sentiment.Result{Score: 0.42, Source: domain.SourcePrimary, Flags: []string{"sarcasm"}}, nil
	}}
	srv := newTestServer(t, svc)

	rec := serve(srv, http.MethodPost, "/api/v1/users/alice/analyze", `{"text":"great day","timestamp":"2026-03-04T09:30:00Z"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"score":0.42,"source":"primary","cached":false,"flags":["sarcasm"],"crisis":false}`, rec.Body.String())
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "great day", gotText)
	assert.True(t, gotTS.Equal(time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)))
}

func TestHandleAnalyze_NoTimestamp(t *testing.T) {
	svc := &mockMoodService{analyzeFn: func(_ context.Context, _, _ string, ts time.Time) (sentiment.Result, error) {
		assert.True(t, ts.IsZero())
		return sentiment.Result{Score: -0.8, CrisisMatched: []string{"x"}}, nil
	}}
	srv := newTestServer(t, svc)

	rec := serve(srv, http.MethodPost, "/api/v1/users/alice/analyze", `{"text":"hi"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"crisis":true`)
}

func TestHandleAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantType   apperrors.ErrorType
	}{
		{name: "malformed body", body: `{"text":`, wantStatus: http.StatusBadRequest, wantType: apperrors.TypeValidation},
		{name: "empty text", body: `{"text":""}`, err: domain.ErrEmptyText, wantStatus: http.StatusBadRequest, wantType: apperrors.TypeValidation},
		{name: "invalid user", body: `{"text":"x"}`, err: fmt.Errorf("%w: %q", domain.ErrInvalidUserID, "x"), wantStatus: http.StatusBadRequest, wantType: apperrors.TypeValidation},
		{name: "model down", body: `{"text":"x"}`, err: domain.ErrModelUnavailable, wantStatus: http.StatusServiceUnavailable, wantType: apperrors.TypeUnavailable},
		{name: "unexpected", body: `{"text":"x"}`, err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantType: apperrors.TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockMoodService{analyzeFn: func(context.Context, string, string, time.Time) (sentiment.Result, error) {
				return sentiment.Result{}, tt.err
			}}
			srv := newTestServer(t, svc)

			rec := serve(srv, http.MethodPost, "/api/v1/users/alice/analyze", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantType, resp.Type)
		})
	}
}

func TestHandleAnalyze_RateLimited(t *testing.T) {
	cfg := &config.Config{Port: "0", RateLimitPerSecond: 0.01, RateLimitBurst: 1}
	srv := NewServer(cfg, &mockMoodService{}, Options{})

	rec := serve(srv, http.MethodPost, "/api/v1/users/alice/analyze", `{"text":"a"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(srv, http.MethodPost, "/api/v1/users/alice/analyze", `{"text":"b"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("Retry-After"))
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.TypeRateLimited, resp.Type)
	assert.Equal(t, "alice", resp.Context["user_id"])

	// Another user from the same address has its own budget.
	rec = serve(srv, http.MethodPost, "/api/v1/users/bob/analyze", `{"text":"c"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Read routes are not limited.
	rec = serve(srv, http.MethodGet, "/api/v1/users/alice/summary", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSummary(t *testing.T) {
	svc := &mockMoodService{summaryFn: func(_ context.Context, userID string) (domain.MoodSummary, error) {
		assert.Equal(t, "bob", userID)
		return domain.MoodSummary{TotalEntries: 3, AverageScore: 0.2, PositiveCount: 1, NegativeCount: 1, NeutralCount: 1}, nil
	}}
	srv := newTestServer(t, svc)

	rec := serve(srv, http.MethodGet, "/api/v1/users/bob/summary", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_entries":3,"avg_score":0.2,"positive_count":1,"negative_count":1,"neutral_count":1}`, rec.Body.String())
}

func TestHandleStatistics(t *testing.T) {
	var gotPeriod domain.Period
	svc := &mockMoodService{statisticsFn: func(_ context.Context, _ string, period domain.Period) ([]domain.PeriodStat, error) {
		gotPeriod = period
		return []domain.PeriodStat{{Label: "Mar 2026", Value: 0.1, Count: 2}}, nil
	}}
	srv := newTestServer(t, svc)

	rec := serve(srv, http.MethodGet, "/api/v1/users/bob/statistics?period=monthly", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PeriodMonthly, gotPeriod)
	assert.JSONEq(t, `{"period":"monthly","buckets":[{"label":"Mar 2026","value":0.1,"count":2}]}`, rec.Body.String())

	rec = serve(srv, http.MethodGet, "/api/v1/users/bob/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PeriodDaily, gotPeriod)

	rec = serve(srv, http.MethodGet, "/api/v1/users/bob/statistics?period=hourly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAlert(t *testing.T) {
	acked := false
	svc := &mockMoodService{
		alertStatusFn: func(context.Context, string) (domain.AlertStatus, error) {
			return domain.AlertStatus{BelowThreshold: 5, Total: 7, Alert: true}, nil
		},
		acknowledgeAlertFn: func(context.Context, string) error {
			acked = true
			return nil
		},
	}
	srv := newTestServer(t, svc)

	rec := serve(srv, http.MethodGet, "/api/v1/users/bob/alert", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"below_threshold":5,"total":7,"alert":true}`, rec.Body.String())

	rec = serve(srv, http.MethodPost, "/api/v1/users/bob/alert/ack", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, acked)
}

func TestHandleCrisisRecords(t *testing.T) {
	var gotLimit int
	svc := &mockMoodService{crisisRecordsFn: func(_ context.Context, _ string, limit int) ([]domain.CrisisLogRecord, error) {
		gotLimit = limit
		return nil, nil
	}}
	srv := newTestServer(t, svc)

	rec := serve(srv, http.MethodGet, "/api/v1/users/bob/crisis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultCrisisLimit, gotLimit)
	assert.JSONEq(t, `{"records":[]}`, rec.Body.String())

	rec = serve(srv, http.MethodGet, "/api/v1/users/bob/crisis?limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, gotLimit)

	for _, bad := range []string{"0", "-1", "abc", "501"} {
		rec = serve(srv, http.MethodGet, "/api/v1/users/bob/crisis?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestHandleDeletes(t *testing.T) {
	var calls []string
	svc := &mockMoodService{
		clearHistoryFn: func(_ context.Context, userID string) error {
			calls = append(calls, "history:"+userID)
			return nil
		},
		resetStateFn: func(_ context.Context, userID string) error {
			calls = append(calls, "state:"+userID)
			return nil
		},
	}
	srv := newTestServer(t, svc)

	assert.Equal(t, http.StatusNoContent, serve(srv, http.MethodDelete, "/api/v1/users/carol/history", "").Code)
	assert.Equal(t, http.StatusNoContent, serve(srv, http.MethodDelete, "/api/v1/users/carol/state", "").Code)
	assert.Equal(t, []string{"history:carol", "state:carol"}, calls)
}

func TestHandleResetState_StoreFailure(t *testing.T) {
	svc := &mockMoodService{resetStateFn: func(context.Context, string) error {
		return fmt.Errorf("failed to clear baselines: %w", errors.New("redis down"))
	}}
	srv := newTestServer(t, svc)

	rec := serve(srv, http.MethodDelete, "/api/v1/users/carol/state", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis down")
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &mockMoodService{})

	rec := serve(srv, http.MethodGet, "/api/v1/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
