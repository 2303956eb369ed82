package model

import (
	"math"
	"math/rand/v2"
)

const (
	ImageSize   = 28 * 28
	HiddenSize  = 128
	NumClasses  = 10
	defaultSeed = 1
)

var _ Network = (*MLP)(nil)

// MLP is a two layer fully connected classifier: a ReLU hidden layer followed
// by a linear output layer. Weights are stored [out, in] row major.
type MLP struct {
	in, hidden, out int

	fc1w, fc1b *Param
	fc2w, fc2b *Param

	params []*Param
}

// NewMLP creates a classifier with uniform(-1/sqrt(fan_in), 1/sqrt(fan_in))
// initialisation drawn from the given seed.
func NewMLP(in, hidden, out int, seed uint64) *MLP {
	m := &MLP{
		in:     in,
		hidden: hidden,
		out:    out,
		fc1w:   newParam("fc1.weight", hidden, in),
		fc1b:   newParam("fc1.bias", hidden),
		fc2w:   newParam("fc2.weight", out, hidden),
		fc2b:   newParam("fc2.bias", out),
	}
	m.params = []*Param{m.fc1w, m.fc1b, m.fc2w, m.fc2b}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	initUniform(rng, m.fc1w, in)
	initUniform(rng, m.fc1b, in)
	initUniform(rng, m.fc2w, hidden)
	initUniform(rng, m.fc2b, hidden)

	return m
}

// NewClassifier returns the MNIST sized network.
func NewClassifier() *MLP {
	return NewMLP(ImageSize, HiddenSize, NumClasses, defaultSeed)
}

func initUniform(rng *rand.Rand, p *Param, fanIn int) {
	bound := 1 / math.Sqrt(float64(fanIn))
	for i := range p.Data {
		p.Data[i] = (rng.Float64()*2 - 1) * bound
	}
}

func (m *MLP) Params() []*Param {
	return m.params
}

func (m *MLP) InputSize() int {
	return m.in
}

func (m *MLP) Classes() int {
	return m.out
}

func (m *MLP) ZeroGrad() {
	for _, p := range m.params {
		clear(p.Grad)
	}
}

func (m *MLP) Forward(input []float64) []float64 {
	_, act := m.hiddenLayer(input)

	return m.outputLayer(act)
}

func (m *MLP) Backward(input []float64, label int) float64 {
	pre, act := m.hiddenLayer(input)
	logits := m.outputLayer(act)
	loss, dz := CrossEntropy(logits, label)

	da := make([]float64, m.hidden)
	for o := range m.out {
		g := dz[o]
		m.fc2b.Grad[o] += g
		row := m.fc2w.Data[o*m.hidden : (o+1)*m.hidden]
		grow := m.fc2w.Grad[o*m.hidden : (o+1)*m.hidden]
		for j := range m.hidden {
			grow[j] += g * act[j]
			da[j] += row[j] * g
		}
	}

	for j := range m.hidden {
		if pre[j] <= 0 {
			continue
		}
		g := da[j]
		m.fc1b.Grad[j] += g
		grow := m.fc1w.Grad[j*m.in : (j+1)*m.in]
		for i, x := range input {
			grow[i] += g * x
		}
	}

	return loss
}

func (m *MLP) hiddenLayer(input []float64) (pre, act []float64) {
	pre = make([]float64, m.hidden)
	act = make([]float64, m.hidden)
	for j := range m.hidden {
		sum := m.fc1b.Data[j]
		row := m.fc1w.Data[j*m.in : (j+1)*m.in]
		for i, x := range input {
			sum += row[i] * x
		}
		pre[j] = sum
		act[j] = math.Max(0, sum)
	}

	return pre, act
}

func (m *MLP) outputLayer(act []float64) []float64 {
	logits := make([]float64, m.out)
	for o := range m.out {
		sum := m.fc2b.Data[o]
		row := m.fc2w.Data[o*m.hidden : (o+1)*m.hidden]
		for j, a := range act {
			sum += row[j] * a
		}
		logits[o] = sum
	}

	return logits
}
