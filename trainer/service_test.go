package trainer_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/pkg/dataset"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/model"
	"github.com/absmach/flock/trainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toyPartition(n int) dataset.Partition {
	samples := make([]dataset.Sample, n)
	for i := range samples {
		label := i % 2
		px := []float64{0.1, 0.1, 0.1, 0.1}
		px[label*2] = 0.9
		px[label*2+1] = 0.8
		samples[i] = dataset.Sample{Pixels: px, Label: label}
	}

	return dataset.Split(samples, 0.25, 3)
}

func newService(t *testing.T, data dataset.Partition) (trainer.Service, *model.MLP) {
	t.Helper()

	net := model.NewMLP(4, 6, 2, 5)
	svc := trainer.NewService(
		trainer.Config{ID: "p1", BatchSize: 4, Seed: 17},
		net,
		model.NewAdam(model.DefaultAdamConfig()),
		data,
		slog.Default(),
	)

	return svc, net
}

func TestFit(t *testing.T) {
	data := toyPartition(40)
	svc, net := newService(t, data)
	global := codec.Encode(model.NewMLP(4, 6, 2, 99))

	update, err := svc.Fit(context.Background(), global)
	require.NoError(t, err)

	assert.Equal(t, "p1", update.ParticipantID)
	assert.Equal(t, uint64(len(data.Train)), update.SampleCount)
	assert.Contains(t, update.Metrics, trainer.MetricTrainLoss)
	require.NoError(t, global.Compatible(update.Parameters))
	assert.NotEqual(t, global.Digest(), update.Parameters.Digest())
	assert.Equal(t, codec.Encode(net), update.Parameters)
}

func TestFitErrors(t *testing.T) {
	cases := []struct {
		desc   string
		data   dataset.Partition
		global fl.ParameterSet
		err    error
	}{
		{
			desc:   "empty partition",
			data:   dataset.Partition{},
			global: codec.Encode(model.NewMLP(4, 6, 2, 1)),
			err:    fl.ErrNoLocalData,
		},
		{
			desc:   "global from another architecture",
			data:   toyPartition(8),
			global: codec.Encode(model.NewMLP(4, 5, 2, 1)),
			err:    fl.ErrShapeMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			svc, _ := newService(t, tc.data)

			_, err := svc.Fit(context.Background(), tc.global)
			assert.ErrorIs(t, err, tc.err)

			_, err = svc.Evaluate(context.Background(), tc.global)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestFitCancelled(t *testing.T) {
	svc, _ := newService(t, toyPartition(40))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Fit(ctx, codec.Encode(model.NewMLP(4, 6, 2, 1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate(t *testing.T) {
	data := toyPartition(40)
	svc, _ := newService(t, data)
	global := codec.Encode(model.NewMLP(4, 6, 2, 2))

	res, err := svc.Evaluate(context.Background(), global)
	require.NoError(t, err)

	assert.Equal(t, uint64(len(data.Validation)), res.SampleCount)
	assert.Greater(t, res.Loss, 0.0)
	acc := res.Metrics[fl.MetricAccuracy]
	assert.GreaterOrEqual(t, acc, 0.0)
	assert.LessOrEqual(t, acc, 1.0)
}

func TestEvaluateCountsCorrectPredictions(t *testing.T) {
	// Zero output weights with a bias favouring class 0 predict 0 for every input.
	global := codec.Encode(model.NewMLP(4, 6, 2, 1))
	clear(global.Tensors[2].Values)
	global.Tensors[3].Values = []float64{1, 0}

	validation := make([]dataset.Sample, 200)
	for i := range validation {
		label := 0
		if i >= 150 {
			label = 1
		}
		validation[i] = dataset.Sample{Pixels: []float64{0.2, 0.4, 0.6, 0.8}, Label: label}
	}
	svc, _ := newService(t, dataset.Partition{Train: validation[:10], Validation: validation})

	res, err := svc.Evaluate(context.Background(), global)
	require.NoError(t, err)

	loss0, _ := model.CrossEntropy([]float64{1, 0}, 0)
	loss1, _ := model.CrossEntropy([]float64{1, 0}, 1)
	assert.Equal(t, uint64(200), res.SampleCount)
	assert.InDelta(t, 0.75, res.Metrics[fl.MetricAccuracy], 1e-12)
	assert.InDelta(t, (150*loss0+50*loss1)/200, res.Loss, 1e-9)
}

func TestTrainingReducesLoss(t *testing.T) {
	data := toyPartition(80)
	svc, _ := newService(t, data)
	global := codec.Encode(model.NewMLP(4, 6, 2, 1))

	before, err := svc.Evaluate(context.Background(), global)
	require.NoError(t, err)

	for range 20 {
		update, err := svc.Fit(context.Background(), global)
		require.NoError(t, err)
		global = update.Parameters
	}

	after, err := svc.Evaluate(context.Background(), global)
	require.NoError(t, err)
	assert.Less(t, after.Loss, before.Loss)
	assert.Less(t, after.Loss, 0.1)
	assert.GreaterOrEqual(t, after.Metrics[fl.MetricAccuracy], 0.9)
}

func TestConcurrentCallsAreSerialised(t *testing.T) {
	svc, _ := newService(t, toyPartition(40))
	global := codec.Encode(model.NewMLP(4, 6, 2, 2))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Fit(context.Background(), global)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Evaluate(context.Background(), global)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ps, err := svc.Parameters(context.Background())
	require.NoError(t, err)
	assert.NoError(t, global.Compatible(ps))
}
