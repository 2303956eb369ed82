package model

import "math"

const eps = 1e-15

func Softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}

	maxLogit := logits[0]
	for _, v := range logits[1:] {
		maxLogit = math.Max(maxLogit, v)
	}

	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}

	return out
}

// CrossEntropy returns the negative log likelihood of label under the softmax
// of logits, and the gradient of that loss with respect to the logits.
func CrossEntropy(logits []float64, label int) (float64, []float64) {
	grad := Softmax(logits)
	loss := -math.Log(math.Max(grad[label], eps))
	grad[label] -= 1

	return loss, grad
}
