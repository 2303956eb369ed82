package middleware

import (
	"context"
	"time"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
	"github.com/go-kit/kit/metrics"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) StartSession(ctx context.Context, cfg coordinator.SessionConfig) (coordinator.SessionStatus, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "start-session").Add(1)
		mm.latency.With("method", "start-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.StartSession(ctx, cfg)
}

func (mm *metricsMiddleware) Status(ctx context.Context) (coordinator.SessionStatus, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "session-status").Add(1)
		mm.latency.With("method", "session-status").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Status(ctx)
}

func (mm *metricsMiddleware) AbortSession(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "abort-session").Add(1)
		mm.latency.With("method", "abort-session").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.AbortSession(ctx)
}

func (mm *metricsMiddleware) ListRounds(ctx context.Context, offset, limit uint64) (fl.RoundPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-rounds").Add(1)
		mm.latency.With("method", "list-rounds").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListRounds(ctx, offset, limit)
}

func (mm *metricsMiddleware) GetRound(ctx context.Context, index int) (fl.RoundRecord, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-round").Add(1)
		mm.latency.With("method", "get-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRound(ctx, index)
}

func (mm *metricsMiddleware) ListParticipants(ctx context.Context, offset, limit uint64) (participant.Page, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-participants").Add(1)
		mm.latency.With("method", "list-participants").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListParticipants(ctx, offset, limit)
}

func (mm *metricsMiddleware) RemoveParticipant(ctx context.Context, id string) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "remove-participant").Add(1)
		mm.latency.With("method", "remove-participant").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.RemoveParticipant(ctx, id)
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "subscribe").Add(1)
		mm.latency.With("method", "subscribe").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Subscribe(ctx)
}
