package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/api"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/sessions", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			startSessionEndpoint(svc),
			decodeStartSessionReq,
			api.EncodeResponse,
			opts...,
		), "start-session").ServeHTTP)
		r.Get("/status", otelhttp.NewHandler(kithttp.NewServer(
			sessionStatusEndpoint(svc),
			kithttp.NopRequestDecoder,
			api.EncodeResponse,
			opts...,
		), "session-status").ServeHTTP)
		r.Post("/abort", otelhttp.NewHandler(kithttp.NewServer(
			abortSessionEndpoint(svc),
			kithttp.NopRequestDecoder,
			api.EncodeResponse,
			opts...,
		), "abort-session").ServeHTTP)
	})

	mux.Route("/rounds", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listRoundsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-rounds").ServeHTTP)
		r.Get("/{index}", otelhttp.NewHandler(kithttp.NewServer(
			getRoundEndpoint(svc),
			decodeRoundReq,
			api.EncodeResponse,
			opts...,
		), "get-round").ServeHTTP)
	})

	mux.Route("/participants", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listParticipantsEndpoint(svc),
			decodeListEntityReq,
			api.EncodeResponse,
			opts...,
		), "list-participants").ServeHTTP)
		r.Delete("/{participantID}", otelhttp.NewHandler(kithttp.NewServer(
			removeParticipantEndpoint(svc),
			decodeEntityReq("participantID"),
			api.EncodeResponse,
			opts...,
		), "remove-participant").ServeHTTP)
	})

	mux.Get("/health", supermq.Health("coordinator", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeStartSessionReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req startSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeRoundReq(_ context.Context, r *http.Request) (any, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, errInvalidIndex)
	}

	return roundReq{index: index}, nil
}

func decodeEntityReq(key string) kithttp.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (any, error) {
		return entityReq{
			id: chi.URLParam(r, key),
		}, nil
	}
}

func decodeListEntityReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listEntityReq{
		offset: o,
		limit:  l,
	}, nil
}
