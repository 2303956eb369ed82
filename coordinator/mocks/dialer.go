package mocks

import (
	"context"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/participant"
	"github.com/stretchr/testify/mock"
)

var _ coordinator.Dialer = (*Dialer)(nil)

type Dialer struct {
	mock.Mock
}

func (m *Dialer) Dial(ctx context.Context, p participant.Participant) (coordinator.Client, error) {
	args := m.Called(ctx, p)

	c, _ := args.Get(0).(coordinator.Client)

	return c, args.Error(1)
}
