package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/moodpulse/internal/platform/version"
)

const (
	startupCheckTimeout   = 2 * time.Second
	readinessCheckTimeout = 5 * time.Second
)

// HealthCheck is a named dependency check. A failing check makes the instance unready.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Capability describes one scoring stage. Losing a capability degrades
// analysis quality but never stops it, since the lexicon always answers.
type Capability struct {
	Name      string
	Enabled   bool
	Available func() bool
}

const (
	capabilityAvailable   = "available"
	capabilityUnavailable = "unavailable"
	capabilityDisabled    = "disabled"
)

type readinessResponse struct {
	Status       string            `json:"status"`
	Capabilities map[string]string `json:"capabilities,omitempty"`
	Degraded     []string          `json:"degraded,omitempty"`
}

func (s *Server) registerHealthRoutes() {
	s.echo.GET("/health/startup", s.handleStartup)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
}

func (s *Server) handleStartup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), startupCheckTimeout)
	defer cancel()

	if ok, err := s.runHealthChecks(c, ctx); !ok || err != nil {
		return err
	}
	if err := c.JSON(http.StatusOK, readinessResponse{Status: "ready"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()

	response := map[string]any{
		"status": "ok",
		"uptime": uptime,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write liveness response: %w", err)
	}

	return nil
}

// handleReadiness fails only when a dependency check fails. Open breakers on
// scoring stages report "degraded" with a 200 so the instance keeps taking traffic.
func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessCheckTimeout)
	defer cancel()

	if ok, err := s.runHealthChecks(c, ctx); !ok || err != nil {
		return err
	}

	response := s.capabilityReport()
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) capabilityReport() readinessResponse {
	response := readinessResponse{Status: "ready"}
	if len(s.capabilities) == 0 {
		return response
	}

	response.Capabilities = make(map[string]string, len(s.capabilities))
	for _, capability := range s.capabilities {
		switch {
		case !capability.Enabled:
			response.Capabilities[capability.Name] = capabilityDisabled
		case capability.Available == nil || capability.Available():
			response.Capabilities[capability.Name] = capabilityAvailable
		default:
			response.Capabilities[capability.Name] = capabilityUnavailable
			response.Degraded = append(response.Degraded, capability.Name)
		}
	}
	if len(response.Degraded) > 0 {
		response.Status = "degraded"
	}
	return response
}

// runHealthChecks writes a 503 for the first failing check and reports whether all passed.
func (s *Server) runHealthChecks(c echo.Context, ctx context.Context) (bool, error) {
	for _, hc := range s.healthChecks {
		err := hc.Check(ctx)
		if err == nil {
			continue
		}

		response := map[string]any{
			"status":       "unhealthy",
			"failed_check": hc.Name,
			"error":        err.Error(),
		}
		if err := c.JSON(http.StatusServiceUnavailable, response); err != nil {
			return false, fmt.Errorf("failed to send JSON response: %w", err)
		}
		return false, nil
	}
	return true, nil
}

func (s *Server) handleVersion(c echo.Context) error {
	if err := c.JSON(http.StatusOK, version.Get()); err != nil {
		return fmt.Errorf("failed to write version response: %w", err)
	}
	return nil
}
