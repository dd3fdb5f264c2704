package supervisor

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the supervisor's counters. Creation failures are logged and
// leave the counters nil; recording on a nil metrics value is a no-op so
// observability problems never affect scheduling.
type metrics struct {
	dispatched metric.Int64Counter
	reaped     metric.Int64Counter
	requeued   metric.Int64Counter
}

func newMetrics(logger *slog.Logger) *metrics {
	meter := otel.Meter("jobward-supervisor")

	dispatched, err := meter.Int64Counter("jobward.jobs.dispatched",
		metric.WithDescription("Jobs dispatched to worker processes"))
	if err != nil {
		logger.Warn("failed to register dispatch counter", "error", err.Error())
		return nil
	}
	reaped, err := meter.Int64Counter("jobward.jobs.reaped",
		metric.WithDescription("Terminal jobs reclaimed from the in-flight registry"))
	if err != nil {
		logger.Warn("failed to register reap counter", "error", err.Error())
		return nil
	}
	requeued, err := meter.Int64Counter("jobward.jobs.requeued",
		metric.WithDescription("Running jobs returned to the queue at shutdown"))
	if err != nil {
		logger.Warn("failed to register requeue counter", "error", err.Error())
		return nil
	}

	return &metrics{dispatched: dispatched, reaped: reaped, requeued: requeued}
}

func (m *metrics) addDispatched(ctx context.Context, n int64) {
	if m != nil {
		m.dispatched.Add(ctx, n)
	}
}

func (m *metrics) addReaped(ctx context.Context, n int64) {
	if m != nil {
		m.reaped.Add(ctx, n)
	}
}

func (m *metrics) addRequeued(ctx context.Context, n int64) {
	if m != nil {
		m.requeued.Add(ctx, n)
	}
}
