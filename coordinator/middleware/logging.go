package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) StartSession(ctx context.Context, cfg coordinator.SessionConfig) (resp coordinator.SessionStatus, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", resp.SessionID),
				slog.Int("max_rounds", cfg.MaxRounds),
				slog.Int("participants", len(resp.Participants)),
				slog.String("collection_timeout", cfg.CollectionTimeout.String()),
				slog.Int("max_round_retries", cfg.MaxRoundRetries),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Start session failed", args...)

			return
		}
		lm.logger.Info("Start session completed successfully", args...)
	}(time.Now())

	return lm.svc.StartSession(ctx, cfg)
}

func (lm *loggingMiddleware) Status(ctx context.Context) (resp coordinator.SessionStatus, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("session",
				slog.String("id", resp.SessionID),
				slog.String("state", string(resp.State)),
				slog.Int("current_round", resp.CurrentRound),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get session status failed", args...)

			return
		}
		lm.logger.Debug("Get session status completed successfully", args...)
	}(time.Now())

	return lm.svc.Status(ctx)
}

func (lm *loggingMiddleware) AbortSession(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Abort session failed", args...)

			return
		}
		lm.logger.Info("Abort session completed successfully", args...)
	}(time.Now())

	return lm.svc.AbortSession(ctx)
}

func (lm *loggingMiddleware) ListRounds(ctx context.Context, offset, limit uint64) (resp fl.RoundPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List rounds failed", args...)

			return
		}
		lm.logger.Info("List rounds completed successfully", args...)
	}(time.Now())

	return lm.svc.ListRounds(ctx, offset, limit)
}

func (lm *loggingMiddleware) GetRound(ctx context.Context, index int) (resp fl.RoundRecord, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Int("index", index),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get round failed", args...)

			return
		}
		lm.logger.Info("Get round completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRound(ctx, index)
}

func (lm *loggingMiddleware) ListParticipants(ctx context.Context, offset, limit uint64) (resp participant.Page, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List participants failed", args...)

			return
		}
		lm.logger.Info("List participants completed successfully", args...)
	}(time.Now())

	return lm.svc.ListParticipants(ctx, offset, limit)
}

func (lm *loggingMiddleware) RemoveParticipant(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("participant",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Remove participant failed", args...)

			return
		}
		lm.logger.Info("Remove participant completed successfully", args...)
	}(time.Now())

	return lm.svc.RemoveParticipant(ctx, id)
}

func (lm *loggingMiddleware) Subscribe(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Subscribe to participant announcements failed", args...)

			return
		}
		lm.logger.Info("Subscribe to participant announcements completed successfully", args...)
	}(time.Now())

	return lm.svc.Subscribe(ctx)
}
