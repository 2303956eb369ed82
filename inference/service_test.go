package inference_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/absmach/flock/inference"
	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNet() model.Network {
	return model.NewMLP(4, 3, 2, 7)
}

func saveCheckpoint(t *testing.T, store *codec.FileStore, round int, net model.Network, mtime time.Time) {
	t.Helper()

	require.NoError(t, store.Save(context.Background(), codec.Checkpoint{
		Round:      round,
		CreatedAt:  time.Now().UTC(),
		Parameters: codec.Encode(net),
	}))
	require.NoError(t, os.Chtimes(store.Path(), mtime, mtime))
}

func TestPredict(t *testing.T) {
	store := codec.NewFileStore(filepath.Join(t.TempDir(), "global.ckpt"))
	ctx := context.Background()
	svc := inference.NewService(ctx, store, newNet, slog.Default())

	img := halfWhite(t, 8, 8)

	_, err := svc.Predict(ctx, img)
	assert.ErrorIs(t, err, inference.ErrModelUnavailable)
	_, err = svc.Model(ctx)
	assert.ErrorIs(t, err, inference.ErrModelUnavailable)

	first := model.NewMLP(4, 3, 2, 11)
	saveCheckpoint(t, store, 3, first, time.Now().Add(-time.Minute))

	input, err := inference.Preprocess(img, 2)
	require.NoError(t, err)
	wantClass, wantProbs := model.Predict(first, input)

	got, err := svc.Predict(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, wantClass, got.Class)
	assert.InDeltaSlice(t, wantProbs, got.Probabilities, 1e-12)
	assert.Equal(t, 3, got.Round)

	info, err := svc.Model(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Round)
	assert.Equal(t, codec.Encode(first).Digest(), info.Digest)

	second := model.NewMLP(4, 3, 2, 12)
	saveCheckpoint(t, store, 5, second, time.Now())

	got, err = svc.Predict(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Round)

	_, err = svc.Predict(ctx, []byte("garbage"))
	assert.ErrorIs(t, err, inference.ErrInvalidImage)
}

func TestIncompatibleCheckpointKeepsLoadedModel(t *testing.T) {
	store := codec.NewFileStore(filepath.Join(t.TempDir(), "global.ckpt"))
	ctx := context.Background()

	saveCheckpoint(t, store, 1, newNet(), time.Now().Add(-time.Minute))
	svc := inference.NewService(ctx, store, newNet, slog.Default())

	info, err := svc.Model(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Round)

	require.NoError(t, store.Save(ctx, codec.Checkpoint{
		Round:      2,
		Parameters: fl.ParameterSet{Tensors: []fl.Tensor{{Name: "w", Shape: []int{1}, Values: []float64{1}}}},
	}))
	require.NoError(t, os.Chtimes(store.Path(), time.Now(), time.Now()))

	got, err := svc.Predict(ctx, halfWhite(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Round)
}

func TestIncompatibleCheckpointWithoutModel(t *testing.T) {
	store := codec.NewFileStore(filepath.Join(t.TempDir(), "global.ckpt"))
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, codec.Checkpoint{
		Round:      2,
		Parameters: fl.ParameterSet{Tensors: []fl.Tensor{{Name: "w", Shape: []int{1}, Values: []float64{1}}}},
	}))

	svc := inference.NewService(ctx, store, newNet, slog.Default())
	_, err := svc.Predict(ctx, halfWhite(t, 2, 2))
	assert.ErrorIs(t, err, fl.ErrShapeMismatch)
}
