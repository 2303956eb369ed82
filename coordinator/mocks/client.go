package mocks

import (
	"context"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/fl"
	"github.com/stretchr/testify/mock"
)

var _ coordinator.Client = (*Client)(nil)

type Client struct {
	mock.Mock
}

func (m *Client) ID() string {
	args := m.Called()

	return args.String(0)
}

func (m *Client) Fit(ctx context.Context, global fl.ParameterSet) (fl.ClientUpdate, error) {
	args := m.Called(ctx, global)

	return args.Get(0).(fl.ClientUpdate), args.Error(1)
}

func (m *Client) Evaluate(ctx context.Context, global fl.ParameterSet) (fl.EvaluationResult, error) {
	args := m.Called(ctx, global)

	return args.Get(0).(fl.EvaluationResult), args.Error(1)
}

func (m *Client) Parameters(ctx context.Context) (fl.ParameterSet, error) {
	args := m.Called(ctx)

	return args.Get(0).(fl.ParameterSet), args.Error(1)
}
