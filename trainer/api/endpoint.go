package api

import (
	"context"
	"errors"

	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/trainer"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func fitEndpoint(svc trainer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(parametersReq)
		if !ok {
			return fitRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return fitRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		update, err := svc.Fit(ctx, req.Parameters)
		if err != nil {
			return fitRes{}, err
		}

		return fitRes{ClientUpdate: update}, nil
	}
}

func evaluateEndpoint(svc trainer.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(parametersReq)
		if !ok {
			return evaluateRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return evaluateRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.Evaluate(ctx, req.Parameters)
		if err != nil {
			return evaluateRes{}, err
		}

		return evaluateRes{EvaluationResult: res}, nil
	}
}

func parametersEndpoint(svc trainer.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		ps, err := svc.Parameters(ctx)
		if err != nil {
			return parametersRes{}, err
		}

		return parametersRes{ParameterSet: ps}, nil
	}
}
