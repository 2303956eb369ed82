package mocks

import (
	"context"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
	"github.com/stretchr/testify/mock"
)

var _ coordinator.Service = (*Service)(nil)

type Service struct {
	mock.Mock
}

func (m *Service) StartSession(ctx context.Context, cfg coordinator.SessionConfig) (coordinator.SessionStatus, error) {
	args := m.Called(ctx, cfg)

	return args.Get(0).(coordinator.SessionStatus), args.Error(1)
}

func (m *Service) Status(ctx context.Context) (coordinator.SessionStatus, error) {
	args := m.Called(ctx)

	return args.Get(0).(coordinator.SessionStatus), args.Error(1)
}

func (m *Service) AbortSession(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *Service) ListRounds(ctx context.Context, offset, limit uint64) (fl.RoundPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(fl.RoundPage), args.Error(1)
}

func (m *Service) GetRound(ctx context.Context, index int) (fl.RoundRecord, error) {
	args := m.Called(ctx, index)

	return args.Get(0).(fl.RoundRecord), args.Error(1)
}

func (m *Service) ListParticipants(ctx context.Context, offset, limit uint64) (participant.Page, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(participant.Page), args.Error(1)
}

func (m *Service) RemoveParticipant(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *Service) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
