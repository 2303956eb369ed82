package model

import "math"

const (
	DefaultLearningRate = 0.01
	DefaultBeta1        = 0.9
	DefaultBeta2        = 0.999
	DefaultEpsilon      = 1e-8
)

type AdamConfig struct {
	LR      float64
	Beta1   float64
	Beta2   float64
	Epsilon float64
}

func DefaultAdamConfig() AdamConfig {
	return AdamConfig{
		LR:      DefaultLearningRate,
		Beta1:   DefaultBeta1,
		Beta2:   DefaultBeta2,
		Epsilon: DefaultEpsilon,
	}
}

var _ Optimizer = (*Adam)(nil)

// Adam keeps bias corrected first and second moment estimates per parameter.
// Moments survive across Step calls for the lifetime of the optimizer.
type Adam struct {
	cfg AdamConfig
	m   [][]float64
	v   [][]float64
	t   int
}

func NewAdam(cfg AdamConfig) *Adam {
	return &Adam{cfg: cfg}
}

func (a *Adam) init(params []*Param) {
	a.m = make([][]float64, len(params))
	a.v = make([][]float64, len(params))
	for i, p := range params {
		a.m[i] = make([]float64, len(p.Data))
		a.v[i] = make([]float64, len(p.Data))
	}
}

func (a *Adam) Step(params []*Param, batchSize int) {
	if batchSize <= 0 {
		return
	}
	if len(a.m) != len(params) {
		a.init(params)
	}

	a.t++
	bc1 := 1 - math.Pow(a.cfg.Beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.cfg.Beta2, float64(a.t))
	scale := 1 / float64(batchSize)

	for i, p := range params {
		m, v := a.m[i], a.v[i]
		for j := range p.Data {
			g := p.Grad[j] * scale
			m[j] = a.cfg.Beta1*m[j] + (1-a.cfg.Beta1)*g
			v[j] = a.cfg.Beta2*v[j] + (1-a.cfg.Beta2)*g*g
			mHat := m[j] / bc1
			vHat := v[j] / bc2
			p.Data[j] -= a.cfg.LR * mHat / (math.Sqrt(vHat) + a.cfg.Epsilon)
		}
	}
}
