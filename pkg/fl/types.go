package fl

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
	"time"
)

// Tensor is a named, shaped block of model parameters stored row-major.
type Tensor struct {
	Name   string    `json:"name"   cbor:"1,keyasint"`
	Shape  []int     `json:"shape"  cbor:"2,keyasint"`
	Values []float64 `json:"values" cbor:"3,keyasint"`
}

// Size returns the number of elements implied by the tensor shape.
func (t Tensor) Size() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}

	return n
}

func (t Tensor) Clone() Tensor {
	return Tensor{
		Name:   t.Name,
		Shape:  slices.Clone(t.Shape),
		Values: slices.Clone(t.Values),
	}
}

// ParameterSet is the ordered list of tensors that make up a model. Tensors
// are matched by position, never by name.
type ParameterSet struct {
	Tensors []Tensor `json:"tensors" cbor:"1,keyasint"`
}

func (ps ParameterSet) Len() int {
	return len(ps.Tensors)
}

func (ps ParameterSet) Clone() ParameterSet {
	out := ParameterSet{Tensors: make([]Tensor, len(ps.Tensors))}
	for i, t := range ps.Tensors {
		out.Tensors[i] = t.Clone()
	}

	return out
}

// Validate checks that every tensor carries as many values as its shape requires.
func (ps ParameterSet) Validate() error {
	for i, t := range ps.Tensors {
		if len(t.Values) != t.Size() {
			return fmt.Errorf("%w: tensor %d (%s) has %d values for shape %v", ErrShapeMismatch, i, t.Name, len(t.Values), t.Shape)
		}
	}

	return nil
}

// Compatible reports whether other has the same tensor count and the same
// shape at every position.
func (ps ParameterSet) Compatible(other ParameterSet) error {
	if len(ps.Tensors) != len(other.Tensors) {
		return fmt.Errorf("%w: expected %d tensors, got %d", ErrShapeMismatch, len(ps.Tensors), len(other.Tensors))
	}
	for i := range ps.Tensors {
		if !slices.Equal(ps.Tensors[i].Shape, other.Tensors[i].Shape) {
			return fmt.Errorf("%w: tensor %d expected shape %v, got %v", ErrShapeMismatch, i, ps.Tensors[i].Shape, other.Tensors[i].Shape)
		}
		if len(other.Tensors[i].Values) != other.Tensors[i].Size() {
			return fmt.Errorf("%w: tensor %d has %d values for shape %v", ErrShapeMismatch, i, len(other.Tensors[i].Values), other.Tensors[i].Shape)
		}
	}

	return nil
}

// Digest returns a hex encoded SHA-256 over tensor names, shapes and values.
func (ps ParameterSet) Digest() string {
	h := sha256.New()
	buf := make([]byte, 8)
	for _, t := range ps.Tensors {
		h.Write([]byte(t.Name))
		for _, d := range t.Shape {
			binary.LittleEndian.PutUint64(buf, uint64(d))
			h.Write(buf)
		}
		for _, v := range t.Values {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			h.Write(buf)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

// ClientUpdate is what a participant returns from a fit call.
type ClientUpdate struct {
	ParticipantID string             `json:"participant_id"    cbor:"1,keyasint"`
	Parameters    ParameterSet       `json:"parameters"        cbor:"2,keyasint"`
	SampleCount   uint64             `json:"sample_count"      cbor:"3,keyasint"`
	Metrics       map[string]float64 `json:"metrics,omitempty" cbor:"4,keyasint,omitempty"`
}

// EvaluationResult is what a participant returns from an evaluate call.
type EvaluationResult struct {
	ParticipantID string             `json:"participant_id"    cbor:"1,keyasint"`
	Loss          float64            `json:"loss"              cbor:"2,keyasint"`
	SampleCount   uint64             `json:"sample_count"      cbor:"3,keyasint"`
	Metrics       map[string]float64 `json:"metrics,omitempty" cbor:"4,keyasint,omitempty"`
}

const MetricAccuracy = "accuracy"

// Evaluation is the sample weighted summary of a round's evaluation results.
type Evaluation struct {
	Loss        float64 `json:"loss"`
	Accuracy    float64 `json:"accuracy"`
	SampleCount uint64  `json:"sample_count"`
}

type FailureKind string

const (
	FailureTimeout       FailureKind = "timeout"
	FailureNoLocalData   FailureKind = "no_local_data"
	FailureShapeMismatch FailureKind = "shape_mismatch"
	FailureTransport     FailureKind = "transport"
)

type Failure struct {
	ParticipantID string      `json:"participant_id"`
	Kind          FailureKind `json:"kind"`
	Reason        string      `json:"reason"`
	At            time.Time   `json:"at"`
}

// Round is the in-memory record of one federated round. Index starts at 1.
type Round struct {
	Index            int                `json:"index"`
	Attempt          int                `json:"attempt"`
	GlobalParameters ParameterSet       `json:"global_parameters"`
	Updates          []ClientUpdate     `json:"updates"`
	Evaluations      []EvaluationResult `json:"evaluations"`
	Failures         []Failure          `json:"failures"`
	StartedAt        time.Time          `json:"started_at"`
	CompletedAt      time.Time          `json:"completed_at"`
}

type Aggregator interface {
	// Aggregate combines client updates into a new global parameter set.
	Aggregate(updates []ClientUpdate) (ParameterSet, error)
}
