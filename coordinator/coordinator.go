package coordinator

import (
	"context"
	"time"

	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
)

type State string

const (
	StateIdle      State = "idle"
	StateTraining  State = "training"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

type Phase string

const (
	PhaseAwaitingClients Phase = "awaiting_clients"
	PhaseBroadcasting    Phase = "broadcasting"
	PhaseCollecting      Phase = "collecting"
	PhaseAggregating     Phase = "aggregating"
	PhaseEvaluating      Phase = "evaluating"
	PhasePersisting      Phase = "persisting"
	PhaseCompleted       Phase = "completed"
	PhaseFailed          Phase = "failed"
)

const (
	ReasonAborted             = "aborted by operator"
	ReasonNoParticipants      = "no participants responded"
	ReasonShapeMismatch       = "every participant reported a shape mismatch"
	DefaultCollectionTimeout  = 5 * time.Minute
	defaultRetryInitial       = time.Second
	defaultRetryMaxInterval   = 30 * time.Second
	defaultParticipantsPerRun = 1000
)

// SessionConfig describes one training session. Participants holds registry
// ids or trainer URLs; when empty every alive registered participant joins.
// MaxRoundRetries bounds how often a round with no successful update is
// repeated; zero retries forever.
type SessionConfig struct {
	MaxRounds         int
	Participants      []string
	CollectionTimeout time.Duration
	MaxRoundRetries   int
}

type SessionStatus struct {
	SessionID      string    `json:"session_id,omitempty"`
	State          State     `json:"state"`
	Phase          Phase     `json:"phase,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	CurrentRound   int       `json:"current_round"`
	MaxRounds      int       `json:"max_rounds"`
	Attempt        int       `json:"attempt,omitempty"`
	Participants   []string  `json:"participants,omitempty"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	FinishedAt     time.Time `json:"finished_at,omitzero"`
	CheckpointPath string    `json:"checkpoint_path,omitempty"`
}

// Service drives federated training sessions. At most one session trains at
// a time; the session runs in the background after StartSession returns.
type Service interface {
	// StartSession validates cfg, selects participants and starts training.
	StartSession(ctx context.Context, cfg SessionConfig) (SessionStatus, error)

	// Status returns the state of the current or most recent session.
	Status(ctx context.Context) (SessionStatus, error)

	// AbortSession stops the active session before its next round.
	AbortSession(ctx context.Context) error

	// ListRounds pages through the rounds archived by the current or most
	// recent session.
	ListRounds(ctx context.Context, offset, limit uint64) (fl.RoundPage, error)

	GetRound(ctx context.Context, index int) (fl.RoundRecord, error)

	ListParticipants(ctx context.Context, offset, limit uint64) (participant.Page, error)

	RemoveParticipant(ctx context.Context, id string) error

	// Subscribe starts tracking participant announcements over MQTT.
	Subscribe(ctx context.Context) error
}

// Client is the coordinator's handle on one participant.
type Client interface {
	ID() string
	Fit(ctx context.Context, global fl.ParameterSet) (fl.ClientUpdate, error)
	Evaluate(ctx context.Context, global fl.ParameterSet) (fl.EvaluationResult, error)
	Parameters(ctx context.Context) (fl.ParameterSet, error)
}

// Dialer opens a Client for a registered participant.
type Dialer interface {
	Dial(ctx context.Context, p participant.Participant) (Client, error)
}

// Notifier is told about every aggregated round.
type Notifier interface {
	Notify(ctx context.Context, notice fl.RoundNotice) error
}

// ParametersProvider supplies the global parameters of round one.
type ParametersProvider func(ctx context.Context) (fl.ParameterSet, error)

// CheckpointPolicy decides after which rounds the global parameters are
// persisted. The final round is always persisted.
type CheckpointPolicy interface {
	ShouldCheckpoint(round, maxRounds int) bool
}

type finalRound struct{}

// FinalRound persists only after the last configured round.
func FinalRound() CheckpointPolicy {
	return finalRound{}
}

func (finalRound) ShouldCheckpoint(round, maxRounds int) bool {
	return round == maxRounds
}

type everyNRounds struct {
	n int
}

// EveryNRounds persists after every n-th round and after the last one.
// Values below one behave like FinalRound.
func EveryNRounds(n int) CheckpointPolicy {
	if n < 1 {
		return finalRound{}
	}

	return everyNRounds{n: n}
}

func (p everyNRounds) ShouldCheckpoint(round, maxRounds int) bool {
	return round == maxRounds || round%p.n == 0
}
