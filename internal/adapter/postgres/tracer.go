package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// QueryRecorder receives one observation per finished query.
type QueryRecorder interface {
	ObserveDBQuery(query string, duration time.Duration, err error)
}

// MetricsTracer implements pgx.QueryTracer and labels queries by their leading keyword.
type MetricsTracer struct {
	rec QueryRecorder
}

var _ pgx.QueryTracer = (*MetricsTracer)(nil)

func NewMetricsTracer(rec QueryRecorder) *MetricsTracer {
	return &MetricsTracer{rec: rec}
}

type queryContextKey struct{}

type queryContext struct {
	start time.Time
	name  string
}

func (t *MetricsTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryContextKey{}, queryContext{start: time.Now(), name: extractQueryName(data.SQL)})
}

func (t *MetricsTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qctx, ok := ctx.Value(queryContextKey{}).(queryContext)
	if !ok {
		return
	}
	t.rec.ObserveDBQuery(qctx.name, time.Since(qctx.start), data.Err)
}

// extractQueryName keeps label cardinality low: the first SQL keyword, upper-cased.
func extractQueryName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	name := strings.ToUpper(fields[0])
	if len(name) > 20 {
		name = name[:20]
	}
	return name
}
