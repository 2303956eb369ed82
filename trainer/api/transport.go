package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/flock/pkg/api"
	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/trainer"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodySize = 1024 * 1024 * 64

// MakeHandler exposes the trainer over HTTP. Request bodies may be CBOR or
// JSON; responses are CBOR.
func MakeHandler(svc trainer.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Post("/fit", otelhttp.NewHandler(kithttp.NewServer(
		fitEndpoint(svc),
		decodeParametersReq,
		api.EncodeCBORResponse,
		opts...,
	), "fit").ServeHTTP)
	mux.Post("/evaluate", otelhttp.NewHandler(kithttp.NewServer(
		evaluateEndpoint(svc),
		decodeParametersReq,
		api.EncodeCBORResponse,
		opts...,
	), "evaluate").ServeHTTP)
	mux.Get("/parameters", otelhttp.NewHandler(kithttp.NewServer(
		parametersEndpoint(svc),
		kithttp.NopRequestDecoder,
		api.EncodeCBORResponse,
		opts...,
	), "get-parameters").ServeHTTP)

	mux.Get("/health", supermq.Health("trainer", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeParametersReq(_ context.Context, r *http.Request) (any, error) {
	ct := r.Header.Get("Content-Type")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	var req parametersReq
	switch {
	case strings.Contains(ct, api.CBORContentType):
		if err := codec.Unmarshal(body, &req); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	case strings.Contains(ct, api.ContentType):
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	default:
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	return req, nil
}
