package mocks

import (
	"context"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/fl"
	"github.com/stretchr/testify/mock"
)

var _ coordinator.Notifier = (*Notifier)(nil)

type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(ctx context.Context, notice fl.RoundNotice) error {
	args := m.Called(ctx, notice)

	return args.Error(0)
}
