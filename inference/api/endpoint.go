package api

import (
	"context"
	"errors"

	"github.com/absmach/flock/inference"
	pkgerrors "github.com/absmach/flock/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func predictEndpoint(svc inference.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(predictReq)
		if !ok {
			return predictResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return predictResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		p, err := svc.Predict(ctx, req.image)
		if err != nil {
			return predictResponse{}, err
		}

		return predictResponse{Prediction: p}, nil
	}
}

func modelEndpoint(svc inference.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		info, err := svc.Model(ctx)
		if err != nil {
			return modelResponse{}, err
		}

		return modelResponse{ModelInfo: info}, nil
	}
}
