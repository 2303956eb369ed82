package mocks

import (
	"context"

	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/trainer"
	"github.com/stretchr/testify/mock"
)

var _ trainer.Service = (*Service)(nil)

type Service struct {
	mock.Mock
}

func (m *Service) ID() string {
	args := m.Called()

	return args.String(0)
}

func (m *Service) Fit(ctx context.Context, global fl.ParameterSet) (fl.ClientUpdate, error) {
	args := m.Called(ctx, global)

	return args.Get(0).(fl.ClientUpdate), args.Error(1)
}

func (m *Service) Evaluate(ctx context.Context, global fl.ParameterSet) (fl.EvaluationResult, error) {
	args := m.Called(ctx, global)

	return args.Get(0).(fl.EvaluationResult), args.Error(1)
}

func (m *Service) Parameters(ctx context.Context) (fl.ParameterSet, error) {
	args := m.Called(ctx)

	return args.Get(0).(fl.ParameterSet), args.Error(1)
}
