package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/flock/pkg/participant"
)

const participantPrefix = "participant:"

type ParticipantRepository struct {
	db *Database
}

func NewParticipantRepository(db *Database) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func participantKey(id string) []byte {
	return []byte(participantPrefix + id)
}

func (r *ParticipantRepository) Create(_ context.Context, p participant.Participant) error {
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return r.db.insert(participantKey(p.ID), val)
}

func (r *ParticipantRepository) Get(_ context.Context, id string) (participant.Participant, error) {
	val, err := r.db.get(participantKey(id))
	if err != nil {
		return participant.Participant{}, err
	}

	var p participant.Participant
	if err := json.Unmarshal(val, &p); err != nil {
		return participant.Participant{}, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	return p, nil
}

func (r *ParticipantRepository) Update(_ context.Context, p participant.Participant) error {
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return r.db.replace(participantKey(p.ID), val)
}

func (r *ParticipantRepository) List(_ context.Context, offset, limit uint64) ([]participant.Participant, uint64, error) {
	prefix := []byte(participantPrefix)
	total, err := r.db.countWithPrefix(prefix)
	if err != nil {
		return nil, 0, err
	}

	vals, err := r.db.listWithPrefix(prefix, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	ps := make([]participant.Participant, 0, len(vals))
	for _, val := range vals {
		var p participant.Participant
		if err := json.Unmarshal(val, &p); err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
		}
		ps = append(ps, p)
	}

	return ps, total, nil
}

func (r *ParticipantRepository) Delete(_ context.Context, id string) error {
	return r.db.delete(participantKey(id))
}
