package mocks

import (
	"context"

	"github.com/absmach/flock/inference"
	"github.com/stretchr/testify/mock"
)

var _ inference.Service = (*Service)(nil)

type Service struct {
	mock.Mock
}

func (m *Service) Predict(ctx context.Context, image []byte) (inference.Prediction, error) {
	args := m.Called(ctx, image)

	return args.Get(0).(inference.Prediction), args.Error(1)
}

func (m *Service) Model(ctx context.Context) (inference.ModelInfo, error) {
	args := m.Called(ctx)

	return args.Get(0).(inference.ModelInfo), args.Error(1)
}
