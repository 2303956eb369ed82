package coordinator

import (
	"context"
	"time"

	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/participant"
	"github.com/absmach/flock/trainer"
)

// LocalDialer serves participants that train inside the coordinator process.
type LocalDialer struct {
	trainers map[string]trainer.Service
}

var _ Dialer = (*LocalDialer)(nil)

func NewLocalDialer(trainers ...trainer.Service) *LocalDialer {
	d := &LocalDialer{trainers: make(map[string]trainer.Service, len(trainers))}
	for _, t := range trainers {
		d.trainers[t.ID()] = t
	}

	return d
}

func (d *LocalDialer) Dial(_ context.Context, p participant.Participant) (Client, error) {
	t, ok := d.trainers[p.ID]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}

	return t, nil
}

// Participants returns the registry records of the local trainers.
func (d *LocalDialer) Participants() []participant.Participant {
	now := time.Now()
	ps := make([]participant.Participant, 0, len(d.trainers))
	for id := range d.trainers {
		ps = append(ps, participant.Participant{
			ID:           id,
			Name:         id,
			Transport:    participant.TransportLocal,
			Static:       true,
			RegisteredAt: now,
		})
	}

	return ps
}
