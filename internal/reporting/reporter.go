// Package reporting forwards record store failures to logs and metrics.
package reporting

import (
	"context"

	"github.com/weglobalmusic/wgme-backend/pkg/errors"
	"github.com/weglobalmusic/wgme-backend/pkg/logger"
	"github.com/weglobalmusic/wgme-backend/pkg/metrics"
)

// Operation names used when reporting record store failures.
const (
	OpSelect = "select"
	OpInsert = "insert"
	OpUpdate = "update"
)

// Reporter receives failures that callers have already decided to absorb.
// Reporting is fire-and-forget and never changes the caller's control flow.
type Reporter interface {
	Report(ctx context.Context, err error, table, operation string, fields map[string]any)
}

type loggingReporter struct {
	logg    *logger.Logger
	metrics *metrics.RecordStoreMetrics
}

// New returns a Reporter that logs through logg and counts through m. Either may be nil.
func New(logg *logger.Logger, m *metrics.RecordStoreMetrics) Reporter {
	return &loggingReporter{logg: logg, metrics: m}
}

func (r *loggingReporter) Report(ctx context.Context, err error, table, operation string, fields map[string]any) {
	if err == nil {
		return
	}
	r.metrics.IncError(table, operation)
	if r.logg == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = r.logg.WithFields(ctx, fields)
	ctx = r.logg.WithFields(ctx, errors.Dump(err).Fields())
	ctx = r.logg.WithFields(ctx, map[string]any{"table": table, "operation": operation})
	r.logg.Error(ctx, "record store call failed", err)
}

// Nop discards every report.
type Nop struct{}

func (Nop) Report(context.Context, error, string, string, map[string]any) {}
