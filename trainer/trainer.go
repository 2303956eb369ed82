package trainer

import (
	"context"

	"github.com/absmach/flock/pkg/fl"
)

const DefaultBatchSize = 32

// Service trains and evaluates the local model on private data. Calls are
// serialised; a second call waits for the first to finish.
type Service interface {
	// ID returns the participant identifier reported in updates.
	ID() string

	// Fit loads global, runs one pass over the training split and returns the
	// updated parameters weighted by the number of training samples.
	Fit(ctx context.Context, global fl.ParameterSet) (fl.ClientUpdate, error)

	// Evaluate loads global and scores it on the validation split.
	Evaluate(ctx context.Context, global fl.ParameterSet) (fl.EvaluationResult, error)

	// Parameters returns the current local parameters.
	Parameters(ctx context.Context) (fl.ParameterSet, error)
}
