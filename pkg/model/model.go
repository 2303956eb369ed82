// Package model provides the small classifier trained by participants and the
// optimizer that updates it.
package model

import "slices"

// Param is a trainable tensor together with its accumulated gradient.
type Param struct {
	Name  string
	Shape []int
	Data  []float64
	Grad  []float64
}

func newParam(name string, shape ...int) *Param {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return &Param{
		Name:  name,
		Shape: slices.Clone(shape),
		Data:  make([]float64, n),
		Grad:  make([]float64, n),
	}
}

// Network is a classifier whose parameters can be read and replaced in a
// fixed order.
type Network interface {
	// Params returns trainable parameters in architecture order. The returned
	// pointers alias the network state.
	Params() []*Param
	// Forward returns class logits for a single input.
	Forward(input []float64) []float64
	// Backward runs a forward pass, accumulates gradients for one labelled
	// input and returns its loss.
	Backward(input []float64, label int) float64
	ZeroGrad()
	InputSize() int
	Classes() int
}

type Optimizer interface {
	// Step applies the gradients accumulated over batchSize samples.
	Step(params []*Param, batchSize int)
}

// Predict returns the most likely class and the class probabilities.
func Predict(n Network, input []float64) (int, []float64) {
	probs := Softmax(n.Forward(input))

	return Argmax(probs), probs
}

func Argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}

	return best
}
