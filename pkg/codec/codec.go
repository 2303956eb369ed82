// Package codec converts model state to and from parameter sets, encodes them
// for the wire and persists them as checkpoints.
package codec

import (
	"fmt"
	"slices"

	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/model"
)

// Encode extracts the network parameters in architecture order. The result
// does not alias network memory.
func Encode(net model.Network) fl.ParameterSet {
	params := net.Params()
	ps := fl.ParameterSet{Tensors: make([]fl.Tensor, len(params))}
	for i, p := range params {
		ps.Tensors[i] = fl.Tensor{
			Name:   p.Name,
			Shape:  slices.Clone(p.Shape),
			Values: slices.Clone(p.Data),
		}
	}

	return ps
}

// Decode loads ps into net by position. Nothing is written unless every
// tensor matches the shape of its target.
func Decode(ps fl.ParameterSet, net model.Network) error {
	params := net.Params()
	if len(params) != len(ps.Tensors) {
		return fmt.Errorf("%w: model has %d tensors, parameter set has %d", fl.ErrShapeMismatch, len(params), len(ps.Tensors))
	}
	for i, p := range params {
		t := ps.Tensors[i]
		if !slices.Equal(p.Shape, t.Shape) {
			return fmt.Errorf("%w: tensor %d (%s) expected shape %v, got %v", fl.ErrShapeMismatch, i, p.Name, p.Shape, t.Shape)
		}
		if len(t.Values) != len(p.Data) {
			return fmt.Errorf("%w: tensor %d (%s) expected %d values, got %d", fl.ErrShapeMismatch, i, p.Name, len(p.Data), len(t.Values))
		}
	}
	for i, p := range params {
		copy(p.Data, ps.Tensors[i].Values)
	}

	return nil
}
