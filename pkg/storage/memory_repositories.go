package storage

import (
	"context"
	"fmt"

	"github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
)

type memoryRoundRepository struct {
	storage Storage
}

func NewMemoryRoundRepository(s Storage) RoundRepository {
	return &memoryRoundRepository{storage: s}
}

func roundKey(sessionID string, index int) string {
	return fmt.Sprintf("%s/%08d", sessionID, index)
}

func (r *memoryRoundRepository) Create(ctx context.Context, rec fl.RoundRecord) error {
	return r.storage.Create(ctx, roundKey(rec.SessionID, rec.Index), rec)
}

func (r *memoryRoundRepository) Get(ctx context.Context, sessionID string, index int) (fl.RoundRecord, error) {
	val, err := r.storage.Get(ctx, roundKey(sessionID, index))
	if err != nil {
		return fl.RoundRecord{}, err
	}
	rec, ok := val.(fl.RoundRecord)
	if !ok {
		return fl.RoundRecord{}, errors.ErrInvalidData
	}

	return rec, nil
}

func (r *memoryRoundRepository) List(ctx context.Context, sessionID string, offset, limit uint64) ([]fl.RoundRecord, uint64, error) {
	vals, total, err := r.storage.List(ctx, sessionID+"/", offset, limit)
	if err != nil {
		return nil, 0, err
	}

	records := make([]fl.RoundRecord, 0, len(vals))
	for _, v := range vals {
		rec, ok := v.(fl.RoundRecord)
		if !ok {
			return nil, 0, errors.ErrInvalidData
		}
		records = append(records, rec)
	}

	return records, total, nil
}

type memoryParticipantRepository struct {
	storage Storage
}

func NewMemoryParticipantRepository(s Storage) ParticipantRepository {
	return &memoryParticipantRepository{storage: s}
}

func (r *memoryParticipantRepository) Create(ctx context.Context, p participant.Participant) error {
	return r.storage.Create(ctx, p.ID, p)
}

func (r *memoryParticipantRepository) Get(ctx context.Context, id string) (participant.Participant, error) {
	val, err := r.storage.Get(ctx, id)
	if err != nil {
		return participant.Participant{}, err
	}
	p, ok := val.(participant.Participant)
	if !ok {
		return participant.Participant{}, errors.ErrInvalidData
	}

	return p, nil
}

func (r *memoryParticipantRepository) Update(ctx context.Context, p participant.Participant) error {
	return r.storage.Update(ctx, p.ID, p)
}

func (r *memoryParticipantRepository) List(ctx context.Context, offset, limit uint64) ([]participant.Participant, uint64, error) {
	vals, total, err := r.storage.List(ctx, "", offset, limit)
	if err != nil {
		return nil, 0, err
	}

	ps := make([]participant.Participant, 0, len(vals))
	for _, v := range vals {
		p, ok := v.(participant.Participant)
		if !ok {
			return nil, 0, errors.ErrInvalidData
		}
		ps = append(ps, p)
	}

	return ps, total, nil
}

func (r *memoryParticipantRepository) Delete(ctx context.Context, id string) error {
	return r.storage.Delete(ctx, id)
}
