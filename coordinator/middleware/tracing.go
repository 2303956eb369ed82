package middleware

import (
	"context"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) StartSession(ctx context.Context, cfg coordinator.SessionConfig) (coordinator.SessionStatus, error) {
	ctx, span := tm.tracer.Start(ctx, "start-session", trace.WithAttributes(
		attribute.Int("max_rounds", cfg.MaxRounds),
		attribute.StringSlice("participants", cfg.Participants),
		attribute.String("collection_timeout", cfg.CollectionTimeout.String()),
		attribute.Int("max_round_retries", cfg.MaxRoundRetries),
	))
	defer span.End()

	return tm.svc.StartSession(ctx, cfg)
}

func (tm *tracing) Status(ctx context.Context) (coordinator.SessionStatus, error) {
	ctx, span := tm.tracer.Start(ctx, "session-status")
	defer span.End()

	return tm.svc.Status(ctx)
}

func (tm *tracing) AbortSession(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "abort-session")
	defer span.End()

	return tm.svc.AbortSession(ctx)
}

func (tm *tracing) ListRounds(ctx context.Context, offset, limit uint64) (fl.RoundPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-rounds", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListRounds(ctx, offset, limit)
}

func (tm *tracing) GetRound(ctx context.Context, index int) (fl.RoundRecord, error) {
	ctx, span := tm.tracer.Start(ctx, "get-round", trace.WithAttributes(
		attribute.Int("index", index),
	))
	defer span.End()

	return tm.svc.GetRound(ctx, index)
}

func (tm *tracing) ListParticipants(ctx context.Context, offset, limit uint64) (participant.Page, error) {
	ctx, span := tm.tracer.Start(ctx, "list-participants", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListParticipants(ctx, offset, limit)
}

func (tm *tracing) RemoveParticipant(ctx context.Context, id string) error {
	ctx, span := tm.tracer.Start(ctx, "remove-participant", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.RemoveParticipant(ctx, id)
}

func (tm *tracing) Subscribe(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "subscribe")
	defer span.End()

	return tm.svc.Subscribe(ctx)
}
