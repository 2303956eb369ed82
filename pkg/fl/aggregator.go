package fl

import (
	"cmp"
	"math"
	"slices"
)

var _ Aggregator = (*FedAvgAggregator)(nil)

// FedAvgAggregator computes the sample weighted mean of every tensor element.
type FedAvgAggregator struct{}

func NewFedAvgAggregator() Aggregator {
	return &FedAvgAggregator{}
}

func (f *FedAvgAggregator) Aggregate(updates []ClientUpdate) (ParameterSet, error) {
	if len(updates) == 0 {
		return ParameterSet{}, ErrNoUpdatesToAggregate
	}

	ordered := canonicalOrder(updates)
	ref := ordered[0].Parameters
	if err := ref.Validate(); err != nil {
		return ParameterSet{}, err
	}

	var totalSamples uint64
	for _, u := range ordered {
		if u.SampleCount == 0 {
			return ParameterSet{}, ErrZeroSampleCount
		}
		if err := ref.Compatible(u.Parameters); err != nil {
			return ParameterSet{}, err
		}
		if totalSamples > math.MaxUint64-u.SampleCount {
			return ParameterSet{}, ErrOverflow
		}
		totalSamples += u.SampleCount
	}
	if totalSamples == 0 {
		return ParameterSet{}, ErrNoUpdatesToAggregate
	}

	total := float64(totalSamples)
	out := ParameterSet{Tensors: make([]Tensor, len(ref.Tensors))}
	for i, t := range ref.Tensors {
		acc := make([]float64, len(t.Values))
		for _, u := range ordered {
			weight := float64(u.SampleCount)
			for j, v := range u.Parameters.Tensors[i].Values {
				acc[j] += weight * v
			}
		}
		for j := range acc {
			acc[j] /= total
		}
		out.Tensors[i] = Tensor{
			Name:   t.Name,
			Shape:  slices.Clone(t.Shape),
			Values: acc,
		}
	}

	return out, nil
}

// canonicalOrder sorts a copy of updates so that summation, and therefore
// rounding, does not depend on arrival order.
func canonicalOrder(updates []ClientUpdate) []ClientUpdate {
	ordered := slices.Clone(updates)
	slices.SortStableFunc(ordered, func(a, b ClientUpdate) int {
		return cmp.Or(
			cmp.Compare(a.ParticipantID, b.ParticipantID),
			cmp.Compare(a.SampleCount, b.SampleCount),
		)
	})

	return ordered
}

// AggregateEvaluations returns the sample weighted mean loss and accuracy.
func AggregateEvaluations(results []EvaluationResult) (Evaluation, error) {
	if len(results) == 0 {
		return Evaluation{}, ErrNoUpdatesToAggregate
	}

	var (
		samples  uint64
		loss     float64
		accuracy float64
	)
	for _, r := range results {
		samples += r.SampleCount
		w := float64(r.SampleCount)
		loss += w * r.Loss
		accuracy += w * r.Metrics[MetricAccuracy]
	}
	if samples == 0 {
		return Evaluation{}, ErrNoUpdatesToAggregate
	}

	return Evaluation{
		Loss:        loss / float64(samples),
		Accuracy:    accuracy / float64(samples),
		SampleCount: samples,
	}, nil
}
