package model_test

import (
	"math"
	"testing"

	"github.com/absmach/flock/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftmax(t *testing.T) {
	probs := model.Softmax([]float64{1, 2, 3, 1000})

	var sum float64
	for _, p := range probs {
		assert.False(t, math.IsNaN(p))
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Equal(t, 3, model.Argmax(probs))
}

func TestClassifierParams(t *testing.T) {
	net := model.NewClassifier()
	params := net.Params()
	require.Len(t, params, 4)

	cases := []struct {
		name  string
		shape []int
	}{
		{"fc1.weight", []int{model.HiddenSize, model.ImageSize}},
		{"fc1.bias", []int{model.HiddenSize}},
		{"fc2.weight", []int{model.NumClasses, model.HiddenSize}},
		{"fc2.bias", []int{model.NumClasses}},
	}
	for i, tc := range cases {
		assert.Equal(t, tc.name, params[i].Name)
		assert.Equal(t, tc.shape, params[i].Shape)
	}
}

func TestMLPGradientMatchesFiniteDifference(t *testing.T) {
	net := model.NewMLP(3, 4, 2, 7)
	input := []float64{0.3, -0.7, 0.9}
	label := 1

	net.ZeroGrad()
	net.Backward(input, label)

	const h = 1e-6
	for _, p := range net.Params() {
		for j := range p.Data {
			orig := p.Data[j]
			p.Data[j] = orig + h
			lp, _ := model.CrossEntropy(net.Forward(input), label)
			p.Data[j] = orig - h
			lm, _ := model.CrossEntropy(net.Forward(input), label)
			p.Data[j] = orig

			numeric := (lp - lm) / (2 * h)
			assert.InDelta(t, numeric, p.Grad[j], 1e-5, "%s[%d]", p.Name, j)
		}
	}
}

func TestAdamReducesLoss(t *testing.T) {
	net := model.NewMLP(2, 8, 2, 3)
	opt := model.NewAdam(model.DefaultAdamConfig())

	inputs := [][]float64{{1, 0}, {0, 1}, {0.9, 0.1}, {0.1, 0.9}}
	labels := []int{0, 1, 0, 1}

	epochLoss := func() float64 {
		var total float64
		for i, in := range inputs {
			l, _ := model.CrossEntropy(net.Forward(in), labels[i])
			total += l
		}

		return total / float64(len(inputs))
	}

	before := epochLoss()
	for range 50 {
		net.ZeroGrad()
		for i, in := range inputs {
			net.Backward(in, labels[i])
		}
		opt.Step(net.Params(), len(inputs))
	}
	after := epochLoss()

	assert.Less(t, after, before)
	for i, in := range inputs {
		class, _ := model.Predict(net, in)
		assert.Equal(t, labels[i], class)
	}
}
