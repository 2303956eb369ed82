package fl

import "errors"

var (
	ErrShapeMismatch        = errors.New("parameter shape mismatch")
	ErrNoLocalData          = errors.New("no local data available")
	ErrNoUpdatesToAggregate = errors.New("no updates to aggregate")
	ErrZeroSampleCount      = errors.New("update carries zero samples")
	ErrAlreadyTraining      = errors.New("a training session is already running")
	ErrSessionFailed        = errors.New("training session failed")
	ErrNoParticipants       = errors.New("no participants available")
	ErrNoActiveSession      = errors.New("no active training session")
	ErrInvalidCheckpoint    = errors.New("invalid checkpoint")
	ErrOverflow             = errors.New("sample count overflow during aggregation")
)
