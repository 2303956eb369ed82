package fl_test

import (
	"testing"

	"github.com/absmach/flock/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(values ...[]float64) fl.ParameterSet {
	ps := fl.ParameterSet{}
	for i, v := range values {
		ps.Tensors = append(ps.Tensors, fl.Tensor{
			Name:   string(rune('a' + i)),
			Shape:  []int{len(v)},
			Values: v,
		})
	}

	return ps
}

func TestFedAvgAggregate(t *testing.T) {
	agg := fl.NewFedAvgAggregator()

	cases := []struct {
		desc    string
		updates []fl.ClientUpdate
		want    fl.ParameterSet
		err     error
	}{
		{
			desc: "weighted mean of two updates",
			updates: []fl.ClientUpdate{
				{ParticipantID: "p1", Parameters: params([]float64{1.0}), SampleCount: 100},
				{ParticipantID: "p2", Parameters: params([]float64{3.0}), SampleCount: 300},
			},
			want: params([]float64{2.5}),
		},
		{
			desc: "single update is returned unchanged",
			updates: []fl.ClientUpdate{
				{ParticipantID: "p1", Parameters: params([]float64{0.5, -1}, []float64{4}), SampleCount: 7},
			},
			want: params([]float64{0.5, -1}, []float64{4}),
		},
		{
			desc: "identical updates are a fixed point",
			updates: []fl.ClientUpdate{
				{ParticipantID: "p1", Parameters: params([]float64{2, 4}), SampleCount: 10},
				{ParticipantID: "p2", Parameters: params([]float64{2, 4}), SampleCount: 20},
				{ParticipantID: "p3", Parameters: params([]float64{2, 4}), SampleCount: 30},
			},
			want: params([]float64{2, 4}),
		},
		{
			desc:    "empty input",
			updates: nil,
			err:     fl.ErrNoUpdatesToAggregate,
		},
		{
			desc: "zero sample count",
			updates: []fl.ClientUpdate{
				{ParticipantID: "p1", Parameters: params([]float64{1}), SampleCount: 0},
			},
			err: fl.ErrZeroSampleCount,
		},
		{
			desc: "incompatible shapes",
			updates: []fl.ClientUpdate{
				{ParticipantID: "p1", Parameters: params([]float64{1}), SampleCount: 1},
				{ParticipantID: "p2", Parameters: params([]float64{1, 2}), SampleCount: 1},
			},
			err: fl.ErrShapeMismatch,
		},
		{
			desc: "incompatible tensor count",
			updates: []fl.ClientUpdate{
				{ParticipantID: "p1", Parameters: params([]float64{1}), SampleCount: 1},
				{ParticipantID: "p2", Parameters: params([]float64{1}, []float64{2}), SampleCount: 1},
			},
			err: fl.ErrShapeMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := agg.Aggregate(tc.updates)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want.Len(), got.Len())
			for i := range tc.want.Tensors {
				assert.Equal(t, tc.want.Tensors[i].Shape, got.Tensors[i].Shape)
				assert.InDeltaSlice(t, tc.want.Tensors[i].Values, got.Tensors[i].Values, 1e-12)
			}
		})
	}
}

func TestFedAvgOrderInvariant(t *testing.T) {
	agg := fl.NewFedAvgAggregator()

	updates := []fl.ClientUpdate{
		{ParticipantID: "a", Parameters: params([]float64{0.1, 0.2, 0.3}), SampleCount: 13},
		{ParticipantID: "b", Parameters: params([]float64{1.7, -0.4, 9.1}), SampleCount: 71},
		{ParticipantID: "c", Parameters: params([]float64{-3.3, 2.2, 0.01}), SampleCount: 5},
	}
	reversed := []fl.ClientUpdate{updates[2], updates[1], updates[0]}

	first, err := agg.Aggregate(updates)
	require.NoError(t, err)
	second, err := agg.Aggregate(reversed)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFedAvgDoesNotMutateInput(t *testing.T) {
	agg := fl.NewFedAvgAggregator()

	in := params([]float64{1, 2})
	updates := []fl.ClientUpdate{
		{ParticipantID: "b", Parameters: in, SampleCount: 1},
		{ParticipantID: "a", Parameters: params([]float64{3, 4}), SampleCount: 1},
	}

	_, err := agg.Aggregate(updates)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, in.Tensors[0].Values)
	assert.Equal(t, "b", updates[0].ParticipantID)
}

func TestAggregateEvaluations(t *testing.T) {
	cases := []struct {
		desc    string
		results []fl.EvaluationResult
		want    fl.Evaluation
		err     error
	}{
		{
			desc: "sample weighted",
			results: []fl.EvaluationResult{
				{Loss: 1.0, SampleCount: 100, Metrics: map[string]float64{fl.MetricAccuracy: 0.5}},
				{Loss: 2.0, SampleCount: 300, Metrics: map[string]float64{fl.MetricAccuracy: 0.9}},
			},
			want: fl.Evaluation{Loss: 1.75, Accuracy: 0.8, SampleCount: 400},
		},
		{
			desc: "empty",
			err:  fl.ErrNoUpdatesToAggregate,
		},
		{
			desc:    "zero samples",
			results: []fl.EvaluationResult{{Loss: 1}},
			err:     fl.ErrNoUpdatesToAggregate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := fl.AggregateEvaluations(tc.results)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want.Loss, got.Loss, 1e-12)
			assert.InDelta(t, tc.want.Accuracy, got.Accuracy, 1e-12)
			assert.Equal(t, tc.want.SampleCount, got.SampleCount)
		})
	}
}
