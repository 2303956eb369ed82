package storage_test

import (
	"context"
	"testing"

	"github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/storage"
	"github.com/absmach/flock/pkg/storage/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundRepository(t *testing.T) {
	testutil.RoundRepositoryTests(t, storage.NewMemoryRoundRepository(storage.NewInMemoryStorage()))
}

func TestMemoryParticipantRepository(t *testing.T) {
	testutil.ParticipantRepositoryTests(t, storage.NewMemoryParticipantRepository(storage.NewInMemoryStorage()))
}

func TestInMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := storage.NewInMemoryStorage()

	cases := []struct {
		desc string
		op   func() error
		err  error
	}{
		{desc: "create with empty key", op: func() error { return s.Create(ctx, "", 1) }, err: errors.ErrEmptyKey},
		{desc: "create", op: func() error { return s.Create(ctx, "b", 2) }},
		{desc: "create duplicate", op: func() error { return s.Create(ctx, "b", 3) }, err: errors.ErrEntityExists},
		{desc: "update missing", op: func() error { return s.Update(ctx, "z", 1) }, err: errors.ErrNotFound},
		{desc: "delete missing", op: func() error { return s.Delete(ctx, "z") }, err: errors.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.ErrorIs(t, tc.op(), tc.err)
		})
	}

	require.NoError(t, s.Create(ctx, "a", 1))
	require.NoError(t, s.Create(ctx, "x/1", 4))
	vals, total, err := s.List(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []any{1, 2, 4}, vals)

	vals, total, err = s.List(ctx, "x/", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, []any{4}, vals)
}

func TestNewRepositoriesUnsupported(t *testing.T) {
	_, err := storage.NewRepositories(storage.Config{Type: "etcd"})
	assert.ErrorIs(t, err, storage.ErrUnsupportedType)
}
