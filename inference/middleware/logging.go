package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/flock/inference"
)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    inference.Service
}

func Logging(logger *slog.Logger, svc inference.Service) inference.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Predict(ctx context.Context, image []byte) (resp inference.Prediction, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("image_bytes", len(image)),
			slog.Int("predicted", resp.Class),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Predict failed", args...)

			return
		}
		lm.logger.Info("Predict completed successfully", args...)
	}(time.Now())

	return lm.svc.Predict(ctx, image)
}

func (lm *loggingMiddleware) Model(ctx context.Context) (resp inference.ModelInfo, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("round", resp.Round),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Model info failed", args...)

			return
		}
		lm.logger.Debug("Model info completed successfully", args...)
	}(time.Now())

	return lm.svc.Model(ctx)
}
