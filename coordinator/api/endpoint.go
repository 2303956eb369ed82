package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/absmach/flock/coordinator"
	pkgerrors "github.com/absmach/flock/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func startSessionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(startSessionReq)
		if !ok {
			return sessionResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return sessionResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		status, err := svc.StartSession(ctx, req.config())
		if err != nil {
			return sessionResponse{}, err
		}

		return sessionResponse{SessionStatus: status, started: true}, nil
	}
}

func sessionStatusEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		status, err := svc.Status(ctx)
		if err != nil {
			return sessionResponse{}, err
		}

		return sessionResponse{SessionStatus: status}, nil
	}
}

func abortSessionEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if err := svc.AbortSession(ctx); err != nil {
			return emptyResponse{}, err
		}

		return emptyResponse{code: http.StatusAccepted}, nil
	}
}

func listRoundsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listRoundsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listRoundsResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListRounds(ctx, req.offset, req.limit)
		if err != nil {
			return listRoundsResponse{}, err
		}

		return listRoundsResponse{RoundPage: page}, nil
	}
}

func getRoundEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(roundReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		record, err := svc.GetRound(ctx, req.index)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{RoundRecord: record}, nil
	}
}

func listParticipantsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listEntityReq)
		if !ok {
			return listParticipantsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listParticipantsResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListParticipants(ctx, req.offset, req.limit)
		if err != nil {
			return listParticipantsResponse{}, err
		}

		return listParticipantsResponse{Page: page}, nil
	}
}

func removeParticipantEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(entityReq)
		if !ok {
			return emptyResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return emptyResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		if err := svc.RemoveParticipant(ctx, req.id); err != nil {
			return emptyResponse{}, err
		}

		return emptyResponse{code: http.StatusNoContent}, nil
	}
}
