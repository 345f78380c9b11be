package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/pscheid92/moodpulse/internal/platform/correlation"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSONWithCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	ctx := correlation.WithID(context.Background(), "abcd1234")
	logger.InfoContext(ctx, "Message analyzed", "score", 0.4)
	logger.DebugContext(ctx, "hidden")

	out := buf.String()
	assert.Contains(t, out, `"correlation_id":"abcd1234"`)
	assert.Contains(t, out, `"score":0.4`)
	assert.NotContains(t, out, "hidden")
}
