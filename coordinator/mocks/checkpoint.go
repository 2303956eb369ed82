package mocks

import (
	"context"

	"github.com/absmach/flock/pkg/codec"
	"github.com/stretchr/testify/mock"
)

var _ codec.CheckpointStore = (*CheckpointStore)(nil)

type CheckpointStore struct {
	mock.Mock
}

func (m *CheckpointStore) Save(ctx context.Context, cp codec.Checkpoint) error {
	args := m.Called(ctx, cp)

	return args.Error(0)
}

func (m *CheckpointStore) Load(ctx context.Context) (codec.Checkpoint, error) {
	args := m.Called(ctx)

	return args.Get(0).(codec.Checkpoint), args.Error(1)
}
