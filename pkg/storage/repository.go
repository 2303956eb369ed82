package storage

import (
	"context"

	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
)

// RoundRepository archives completed rounds. Records are write-once and
// listed in ascending round index.
type RoundRepository interface {
	Create(ctx context.Context, r fl.RoundRecord) error
	Get(ctx context.Context, sessionID string, index int) (fl.RoundRecord, error)
	List(ctx context.Context, sessionID string, offset, limit uint64) ([]fl.RoundRecord, uint64, error)
}

type ParticipantRepository interface {
	Create(ctx context.Context, p participant.Participant) error
	Get(ctx context.Context, id string) (participant.Participant, error)
	Update(ctx context.Context, p participant.Participant) error
	List(ctx context.Context, offset, limit uint64) ([]participant.Participant, uint64, error)
	Delete(ctx context.Context, id string) error
}
