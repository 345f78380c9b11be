package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/config"
	"github.com/pscheid92/moodpulse/internal/sentiment"
)

// --- Mock implementations ---

type mockMoodService struct {
	analyzeFn          func(ctx context.Context, userID, text string, ts time.Time) (sentiment.Result, error)
	summaryFn          func(ctx context.Context, userID string) (domain.MoodSummary, error)
	statisticsFn       func(ctx context.Context, userID string, period domain.Period) ([]domain.PeriodStat, error)
	alertStatusFn      func(ctx context.Context, userID string) (domain.AlertStatus, error)
	acknowledgeAlertFn func(ctx context.Context, userID string) error
	clearHistoryFn     func(ctx context.Context, userID string) error
	resetStateFn       func(ctx context.Context, userID string) error
	crisisRecordsFn    func(ctx context.Context, userID string, limit int) ([]domain.CrisisLogRecord, error)
}

func (m *mockMoodService) Analyze(ctx context.Context, userID, text string, ts time.Time) (sentiment.Result, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, userID, text, ts)
	}
	return sentiment.Result{}, nil
}

func (m *mockMoodService) Summary(ctx context.Context, userID string) (domain.MoodSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, userID)
	}
	return domain.MoodSummary{}, nil
}

func (m *mockMoodService) Statistics(ctx context.Context, userID string, period domain.Period) ([]domain.PeriodStat, error) {
	if m.statisticsFn != nil {
		return m.statisticsFn(ctx, userID, period)
	}
	return nil, nil
}

func (m *mockMoodService) AlertStatus(ctx context.Context, userID string) (domain.AlertStatus, error) {
	if m.alertStatusFn != nil {
		return m.alertStatusFn(ctx, userID)
	}
	return domain.AlertStatus{}, nil
}

func (m *mockMoodService) AcknowledgeAlert(ctx context.Context, userID string) error {
	if m.acknowledgeAlertFn != nil {
		return m.acknowledgeAlertFn(ctx, userID)
	}
	return nil
}

func (m *mockMoodService) ClearHistory(ctx context.Context, userID string) error {
	if m.clearHistoryFn != nil {
		return m.clearHistoryFn(ctx, userID)
	}
	return nil
}

func (m *mockMoodService) ResetState(ctx context.Context, userID string) error {
	if m.resetStateFn != nil {
		return m.resetStateFn(ctx, userID)
	}
	return nil
}

func (m *mockMoodService) CrisisRecords(ctx context.Context, userID string, limit int) ([]domain.CrisisLogRecord, error) {
	if m.crisisRecordsFn != nil {
		return m.crisisRecordsFn(ctx, userID, limit)
	}
	return nil, nil
}

// --- Test helpers ---

var testStart = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, app moodService, opts ...func(*Options)) *Server {
	t.Helper()

	cfg := &config.Config{Port: "0", RateLimitPerSecond: 100, RateLimitBurst: 100}
	o := Options{Clock: clockwork.NewFakeClockAt(testStart)}
	for _, opt := range opts {
		opt(&o)
	}
	return NewServer(cfg, app, o)
}

func withHealthChecks(checks ...HealthCheck) func(*Options) {
	return func(o *Options) {
		o.HealthChecks = checks
	}
}

func withCapabilities(capabilities ...Capability) func(*Options) {
	return func(o *Options) {
		o.Capabilities = capabilities
	}
}

func withMetricsHandler(h http.Handler) func(*Options) {
	return func(o *Options) {
		o.MetricsHandler = h
	}
}

// serve runs a request through the full router, middleware included.
func serve(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = testRemoteAddr
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
