package codec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/absmach/flock/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCheckpoint(round int, v float64) Checkpoint {
	return Checkpoint{
		Round:     round,
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		Parameters: fl.ParameterSet{Tensors: []fl.Tensor{
			{Name: "w", Shape: []int{2}, Values: []float64{v, -v}},
		}},
	}
}

func TestFileStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "global.ckpt")
	store := NewFileStore(path)

	want := testCheckpoint(3, 0.25)
	require.NoError(t, store.Save(context.Background(), want))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want.Round, got.Round)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.Parameters, got.Parameters)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreFailedSaveKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "global.ckpt"))

	prev := testCheckpoint(1, 1)
	require.NoError(t, store.Save(context.Background(), prev))

	errRename := errors.New("disk full")
	renameFile = func(string, string) error { return errRename }
	t.Cleanup(func() { renameFile = os.Rename })

	err := store.Save(context.Background(), testCheckpoint(2, 2))
	assert.ErrorIs(t, err, errRename)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prev.Round, got.Round)
	assert.Equal(t, prev.Parameters, got.Parameters)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be removed")
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.ckpt"))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStoreSaveCancelled(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "global.ckpt"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Save(ctx, testCheckpoint(1, 1)), context.Canceled)
}
