package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodpulse/internal/adapter/metrics"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/platform/config"
	"github.com/pscheid92/moodpulse/internal/sentiment"
)

type moodService interface {
	Analyze(ctx context.Context, userID, text string, ts time.Time) (sentiment.Result, error)
	Summary(ctx context.Context, userID string) (domain.MoodSummary, error)
	Statistics(ctx context.Context, userID string, period domain.Period) ([]domain.PeriodStat, error)
	AlertStatus(ctx context.Context, userID string) (domain.AlertStatus, error)
	AcknowledgeAlert(ctx context.Context, userID string) error
	ClearHistory(ctx context.Context, userID string) error
	ResetState(ctx context.Context, userID string) error
	CrisisRecords(ctx context.Context, userID string, limit int) ([]domain.CrisisLogRecord, error)
}

// Options carries the optional collaborators of a Server.
type Options struct {
	HealthChecks   []HealthCheck
	Capabilities   []Capability
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	Clock          clockwork.Clock
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app moodService

	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	healthChecks   []HealthCheck
	capabilities   []Capability
	clock          clockwork.Clock
	startTime      time.Time
}

func NewServer(cfg *config.Config, app moodService, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		httpMetrics:    opts.HTTPMetrics,
		metricsHandler: opts.MetricsHandler,
		healthChecks:   opts.HealthChecks,
		capabilities:   opts.Capabilities,
		clock:          clock,
		startTime:      clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
