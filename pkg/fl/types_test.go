package fl_test

import (
	"testing"

	"github.com/absmach/flock/pkg/fl"
	"github.com/stretchr/testify/assert"
)

func TestParameterSetCompatible(t *testing.T) {
	base := fl.ParameterSet{Tensors: []fl.Tensor{
		{Name: "w", Shape: []int{2, 2}, Values: []float64{1, 2, 3, 4}},
		{Name: "b", Shape: []int{2}, Values: []float64{0, 0}},
	}}

	cases := []struct {
		desc  string
		other fl.ParameterSet
		err   error
	}{
		{
			desc:  "same shapes",
			other: base.Clone(),
		},
		{
			desc: "names differ but shapes match",
			other: fl.ParameterSet{Tensors: []fl.Tensor{
				{Name: "x", Shape: []int{2, 2}, Values: []float64{0, 0, 0, 0}},
				{Name: "y", Shape: []int{2}, Values: []float64{0, 0}},
			}},
		},
		{
			desc:  "missing tensor",
			other: fl.ParameterSet{Tensors: base.Tensors[:1]},
			err:   fl.ErrShapeMismatch,
		},
		{
			desc: "transposed shape",
			other: fl.ParameterSet{Tensors: []fl.Tensor{
				{Name: "w", Shape: []int{4, 1}, Values: []float64{1, 2, 3, 4}},
				{Name: "b", Shape: []int{2}, Values: []float64{0, 0}},
			}},
			err: fl.ErrShapeMismatch,
		},
		{
			desc: "short values",
			other: fl.ParameterSet{Tensors: []fl.Tensor{
				{Name: "w", Shape: []int{2, 2}, Values: []float64{1, 2, 3}},
				{Name: "b", Shape: []int{2}, Values: []float64{0, 0}},
			}},
			err: fl.ErrShapeMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := base.Compatible(tc.other)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParameterSetCloneIsDeep(t *testing.T) {
	ps := fl.ParameterSet{Tensors: []fl.Tensor{{Name: "w", Shape: []int{1}, Values: []float64{1}}}}
	cp := ps.Clone()
	cp.Tensors[0].Values[0] = 42

	assert.Equal(t, 1.0, ps.Tensors[0].Values[0])
}

func TestParameterSetDigest(t *testing.T) {
	a := fl.ParameterSet{Tensors: []fl.Tensor{{Name: "w", Shape: []int{2}, Values: []float64{1, 2}}}}
	b := a.Clone()

	assert.Equal(t, a.Digest(), b.Digest())

	b.Tensors[0].Values[1] = 2.0000001
	assert.NotEqual(t, a.Digest(), b.Digest())
}
