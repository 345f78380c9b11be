package httpserver

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/pscheid92/moodpulse/internal/platform/errors"
	"golang.org/x/time/rate"
)

// analyzeLimiterExpiry drops idle visitor buckets so per-user keys do not accumulate.
const analyzeLimiterExpiry = 5 * time.Minute

// newAnalyzeLimiter throttles analysis requests with one token bucket per
// client address and user, so users sharing an address keep separate budgets.
func newAnalyzeLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: analyzeLimiterExpiry,
		},
	)
	retryAfter := retryAfterSeconds(ratePerSecond)

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: analyzeLimiterKey,
		Store:               store,
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			c.Response().Header().Set("Retry-After", retryAfter)
			return HandleError(c, apperrors.RateLimitedError("too many analysis requests").
				WithField("user_id", c.Param("user")).
				WithField("retry_after_seconds", retryAfter))
		},
	})
}

func analyzeLimiterKey(c echo.Context) (string, error) {
	return c.RealIP() + "|" + c.Param("user"), nil
}

// retryAfterSeconds is the time until one token refills, rounded up to whole seconds.
func retryAfterSeconds(ratePerSecond float64) string {
	if ratePerSecond <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Max(1, math.Ceil(1/ratePerSecond))))
}
