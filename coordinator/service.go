package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/absmach/flock/pkg/codec"
	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/mqtt"
	"github.com/absmach/flock/pkg/participant"
	"github.com/absmach/flock/pkg/storage"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

var (
	errInvalidMaxRounds  = errors.New("max rounds must be positive")
	errInvalidRetries    = errors.New("max round retries must not be negative")
	errNoInitialParams   = errors.New("no participant provided initial parameters")
	errInvalidRoundIndex = errors.New("round index must be positive")
)

// Config holds the policy knobs of the coordinator.
type Config struct {
	DomainID  string
	ChannelID string

	// Policy defaults to FinalRound.
	Policy CheckpointPolicy
	// Aggregator defaults to FedAvg.
	Aggregator fl.Aggregator
	// InitialParameters is optional; without it the first participant that
	// answers a Parameters call seeds the session.
	InitialParameters ParametersProvider
	// Notifier is optional.
	Notifier Notifier

	MaxConcurrency       int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

type service struct {
	cfg          Config
	rounds       storage.RoundRepository
	participants storage.ParticipantRepository
	dialer       Dialer
	store        codec.CheckpointStore
	pubsub       mqtt.PubSub
	checkpoint   string
	logger       *slog.Logger

	mu      sync.RWMutex
	status  SessionStatus
	abortCh chan struct{}
	aborted bool
}

// NewService returns the coordinator. pubsub may be nil when participants
// are reached over HTTP or in process only.
func NewService(cfg Config, rounds storage.RoundRepository, participants storage.ParticipantRepository, dialer Dialer, store codec.CheckpointStore, pubsub mqtt.PubSub, logger *slog.Logger) Service {
	if cfg.Policy == nil {
		cfg.Policy = FinalRound()
	}
	if cfg.Aggregator == nil {
		cfg.Aggregator = fl.NewFedAvgAggregator()
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = defaultRetryInitial
	}
	if cfg.RetryMaxInterval <= 0 {
		cfg.RetryMaxInterval = defaultRetryMaxInterval
	}

	svc := &service{
		cfg:          cfg,
		rounds:       rounds,
		participants: participants,
		dialer:       dialer,
		store:        store,
		pubsub:       pubsub,
		logger:       logger,
		status:       SessionStatus{State: StateIdle},
	}
	if fs, ok := store.(interface{ Path() string }); ok {
		svc.checkpoint = fs.Path()
	}

	return svc
}

func (svc *service) StartSession(ctx context.Context, cfg SessionConfig) (SessionStatus, error) {
	switch {
	case cfg.MaxRounds <= 0:
		return SessionStatus{}, errors.Join(pkgerrors.ErrInvalidData, errInvalidMaxRounds)
	case cfg.MaxRoundRetries < 0:
		return SessionStatus{}, errors.Join(pkgerrors.ErrInvalidData, errInvalidRetries)
	}
	if cfg.CollectionTimeout <= 0 {
		cfg.CollectionTimeout = DefaultCollectionTimeout
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.status.State == StateTraining {
		return SessionStatus{}, fl.ErrAlreadyTraining
	}

	members, err := svc.resolveParticipants(ctx, cfg.Participants)
	if err != nil {
		return SessionStatus{}, err
	}

	ids := make([]string, len(members))
	for i, p := range members {
		ids[i] = p.ID
	}

	svc.status = SessionStatus{
		SessionID:      uuid.NewString(),
		State:          StateTraining,
		Phase:          PhaseAwaitingClients,
		MaxRounds:      cfg.MaxRounds,
		Participants:   ids,
		StartedAt:      time.Now(),
		CheckpointPath: svc.checkpoint,
	}
	svc.abortCh = make(chan struct{})
	svc.aborted = false

	sess := &session{
		id:      svc.status.SessionID,
		cfg:     cfg,
		members: members,
		abort:   svc.abortCh,
	}
	go svc.run(context.WithoutCancel(ctx), sess)

	return svc.snapshot(), nil
}

func (svc *service) Status(context.Context) (SessionStatus, error) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return svc.snapshot(), nil
}

func (svc *service) AbortSession(context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.status.State != StateTraining {
		return fl.ErrNoActiveSession
	}
	if !svc.aborted {
		svc.aborted = true
		close(svc.abortCh)
	}

	return nil
}

func (svc *service) ListRounds(ctx context.Context, offset, limit uint64) (fl.RoundPage, error) {
	sessionID := svc.sessionID()
	if sessionID == "" {
		return fl.RoundPage{Offset: offset, Limit: limit, Rounds: []fl.RoundRecord{}}, nil
	}

	records, total, err := svc.rounds.List(ctx, sessionID, offset, limit)
	if err != nil {
		return fl.RoundPage{}, err
	}

	return fl.RoundPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Rounds: records,
	}, nil
}

func (svc *service) GetRound(ctx context.Context, index int) (fl.RoundRecord, error) {
	if index < 1 {
		return fl.RoundRecord{}, errors.Join(pkgerrors.ErrInvalidData, errInvalidRoundIndex)
	}
	sessionID := svc.sessionID()
	if sessionID == "" {
		return fl.RoundRecord{}, pkgerrors.ErrNotFound
	}

	return svc.rounds.Get(ctx, sessionID, index)
}

func (svc *service) ListParticipants(ctx context.Context, offset, limit uint64) (participant.Page, error) {
	ps, total, err := svc.participants.List(ctx, offset, limit)
	if err != nil {
		return participant.Page{}, err
	}
	for i := range ps {
		ps[i].SetAlive()
	}

	return participant.Page{
		Offset:       offset,
		Limit:        limit,
		Total:        total,
		Participants: ps,
	}, nil
}

func (svc *service) RemoveParticipant(ctx context.Context, id string) error {
	if id == "" {
		return pkgerrors.ErrEmptyKey
	}

	return svc.participants.Delete(ctx, id)
}

func (svc *service) Subscribe(ctx context.Context) error {
	if svc.pubsub == nil {
		return nil
	}

	topic := fmt.Sprintf(fl.ControlTopicTemplate, svc.cfg.DomainID, svc.cfg.ChannelID)

	return svc.pubsub.Subscribe(ctx, topic, svc.handleControl(ctx))
}

// resolveParticipants maps the requested ids to registry records. Unknown
// entries that parse as HTTP URLs join as ad hoc HTTP participants.
func (svc *service) resolveParticipants(ctx context.Context, requested []string) ([]participant.Participant, error) {
	if len(requested) == 0 {
		page, err := svc.ListParticipants(ctx, 0, defaultParticipantsPerRun)
		if err != nil {
			return nil, err
		}
		var alive []participant.Participant
		for _, p := range page.Participants {
			if p.Alive || p.Static {
				alive = append(alive, p)
			}
		}
		if len(alive) == 0 {
			return nil, fl.ErrNoParticipants
		}

		return alive, nil
	}

	seen := make(map[string]bool, len(requested))
	members := make([]participant.Participant, 0, len(requested))
	for _, id := range requested {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		p, err := svc.participants.Get(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, pkgerrors.ErrNotFound) && isHTTPAddress(id):
			p = participant.Participant{
				ID:           id,
				Name:         id,
				Address:      id,
				Transport:    participant.TransportHTTP,
				RegisteredAt: time.Now(),
			}
		default:
			return nil, fmt.Errorf("participant %q: %w", id, err)
		}
		members = append(members, p)
	}
	if len(members) == 0 {
		return nil, fl.ErrNoParticipants
	}

	return members, nil
}

func isHTTPAddress(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (svc *service) snapshot() SessionStatus {
	st := svc.status
	st.Participants = append([]string(nil), svc.status.Participants...)

	return st
}

func (svc *service) sessionID() string {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	return svc.status.SessionID
}

func (svc *service) update(fn func(*SessionStatus)) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	fn(&svc.status)
}

func (svc *service) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = svc.cfg.RetryInitialInterval
	b.MaxInterval = svc.cfg.RetryMaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}
