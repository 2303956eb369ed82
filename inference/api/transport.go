package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/absmach/flock/inference"
	"github.com/absmach/flock/pkg/api"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	imageField     = "image"
	maxUploadBytes = 10 << 20
)

func MakeHandler(svc inference.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, encodeError)),
	}

	mux.Post("/predict", otelhttp.NewHandler(kithttp.NewServer(
		predictEndpoint(svc),
		decodePredictReq,
		api.EncodeResponse,
		opts...,
	), "predict").ServeHTTP)

	mux.Get("/model", otelhttp.NewHandler(kithttp.NewServer(
		modelEndpoint(svc),
		kithttp.NopRequestDecoder,
		api.EncodeResponse,
		opts...,
	), "model").ServeHTTP)

	mux.Get("/health", supermq.Health("inference", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodePredictReq(_ context.Context, r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	file, _, err := r.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
		}

		return nil, errors.Join(apiutil.ErrValidation, errMissingImage)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return predictReq{image: data}, nil
}

func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	switch {
	case errors.Is(err, inference.ErrModelUnavailable):
		w.Header().Set("Content-Type", api.ContentType)
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	case errors.Is(err, inference.ErrInvalidImage):
		api.EncodeError(ctx, errors.Join(apiutil.ErrValidation, err), w)
	default:
		api.EncodeError(ctx, err, w)
	}
}
