package middleware

import (
	"context"
	"time"

	"github.com/absmach/flock/inference"
	"github.com/go-kit/kit/metrics"
)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     inference.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc inference.Service) inference.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Predict(ctx context.Context, image []byte) (inference.Prediction, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "predict").Add(1)
		mm.latency.With("method", "predict").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Predict(ctx, image)
}

func (mm *metricsMiddleware) Model(ctx context.Context) (inference.ModelInfo, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "model").Add(1)
		mm.latency.With("method", "model").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Model(ctx)
}
