package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodpulse/internal/domain"
	apperrors "github.com/pscheid92/moodpulse/internal/platform/errors"
)

const (
	defaultCrisisLimit = 50
	maxCrisisLimit     = 500
)

type analyzeRequest struct {
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type analyzeResponse struct {
	Score  float64  `json:"score"`
	Source string   `json:"source"`
	Cached bool     `json:"cached"`
	Flags  []string `json:"flags,omitempty"`
	Crisis bool     `json:"crisis"`
}

func (s *Server) registerAPIRoutes() {
	users := s.echo.Group("/api/v1/users/:user", userMiddleware)

	users.POST("/analyze", s.handleAnalyze, newAnalyzeLimiter(s.config.RateLimitPerSecond, s.config.RateLimitBurst))
	users.GET("/summary", s.handleSummary)
	users.GET("/statistics", s.handleStatistics)
	users.GET("/alert", s.handleAlertStatus)
	users.POST("/alert/ack", s.handleAcknowledgeAlert)
	users.GET("/crisis", s.handleCrisisRecords)
	users.DELETE("/history", s.handleClearHistory)
	users.DELETE("/state", s.handleResetState)
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	var ts time.Time
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	res, err := s.app.Analyze(c.Request().Context(), c.Param("user"), req.Text, ts)
	if err != nil {
		return err
	}

	resp := analyzeResponse{
		Score:  res.Score,
		Source: res.Source.String(),
		Cached: res.Cached,
		Flags:  res.Flags,
		Crisis: len(res.CrisisMatched) > 0,
	}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSummary(c echo.Context) error {
	summary, err := s.app.Summary(c.Request().Context(), c.Param("user"))
	if err != nil {
		return err
	}
	if err := c.JSON(http.StatusOK, summary); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleStatistics(c echo.Context) error {
	period, err := domain.ParsePeriod(c.QueryParam("period"))
	if err != nil {
		return err
	}

	stats, err := s.app.Statistics(c.Request().Context(), c.Param("user"), period)
	if err != nil {
		return err
	}

	resp := map[string]any{"period": period, "buckets": stats}
	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleAlertStatus(c echo.Context) error {
	status, err := s.app.AlertStatus(c.Request().Context(), c.Param("user"))
	if err != nil {
		return err
	}
	if err := c.JSON(http.StatusOK, status); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleAcknowledgeAlert(c echo.Context) error {
	if err := s.app.AcknowledgeAlert(c.Request().Context(), c.Param("user")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCrisisRecords(c echo.Context) error {
	limit := defaultCrisisLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxCrisisLimit {
			return apperrors.ValidationError(fmt.Sprintf("limit must be between 1 and %d", maxCrisisLimit)).
				WithField("limit", raw)
		}
		limit = n
	}

	records, err := s.app.CrisisRecords(c.Request().Context(), c.Param("user"), limit)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.CrisisLogRecord{}
	}
	if err := c.JSON(http.StatusOK, map[string]any{"records": records}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleClearHistory(c echo.Context) error {
	if err := s.app.ClearHistory(c.Request().Context(), c.Param("user")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleResetState(c echo.Context) error {
	if err := s.app.ResetState(c.Request().Context(), c.Param("user")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
