package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
	"golang.org/x/sync/errgroup"
)

var (
	errAborted       = errors.New(ReasonAborted)
	errNoResponders  = errors.New(ReasonNoParticipants)
	errAllMismatched = errors.New(ReasonShapeMismatch)
)

type session struct {
	id      string
	cfg     SessionConfig
	members []participant.Participant
	clients []Client
	abort   <-chan struct{}
}

func (s *session) aborted() bool {
	select {
	case <-s.abort:
		return true
	default:
		return false
	}
}

// run is the only writer of the global parameters of sess.
func (svc *service) run(ctx context.Context, sess *session) {
	logger := svc.logger.With(slog.String("session_id", sess.id))

	global, err := svc.prepare(ctx, sess, logger)
	if err != nil {
		svc.fail(logger, err)

		return
	}

	for index := 1; index <= sess.cfg.MaxRounds; index++ {
		if sess.aborted() {
			svc.fail(logger, errAborted)

			return
		}

		round, aggregated, err := svc.playRound(ctx, sess, index, global, logger)
		if err != nil {
			if round.Index != 0 {
				round.CompletedAt = time.Now()
				record := round.Record(sess.id, global)
				record.Reason = err.Error()
				if err := svc.rounds.Create(ctx, record); err != nil {
					logger.Warn("failed to archive failed round", slog.Int("round", index), slog.Any("error", err))
				}
			}
			svc.fail(logger, err)

			return
		}
		global = aggregated

		svc.update(func(st *SessionStatus) { st.Phase = PhaseEvaluating })
		round.Evaluations, round.Failures = svc.evaluate(ctx, sess, index, global, round.Failures)
		round.CompletedAt = time.Now()

		record := round.Record(sess.id, global)
		if err := svc.rounds.Create(ctx, record); err != nil {
			logger.Warn("failed to archive round", slog.Int("round", index), slog.Any("error", err))
		}
		svc.update(func(st *SessionStatus) { st.CurrentRound = index })
		svc.notify(ctx, sess, record, logger)

		logger.Info("round completed",
			slog.Int("round", index),
			slog.Int("attempts", round.Attempt),
			slog.Int("updates", len(round.Updates)),
			slog.Int("failures", len(round.Failures)),
		)

		if index < sess.cfg.MaxRounds && svc.cfg.Policy.ShouldCheckpoint(index, sess.cfg.MaxRounds) {
			if err := svc.persist(ctx, index, global); err != nil {
				logger.Warn("failed to write intermediate checkpoint", slog.Int("round", index), slog.Any("error", err))
			}
		}
	}

	svc.update(func(st *SessionStatus) { st.Phase = PhasePersisting })
	if err := svc.persist(ctx, sess.cfg.MaxRounds, global); err != nil {
		svc.fail(logger, fmt.Errorf("persist final checkpoint: %w", err))

		return
	}

	svc.update(func(st *SessionStatus) {
		st.State = StateCompleted
		st.Phase = PhaseCompleted
		st.FinishedAt = time.Now()
	})
	logger.Info("training session completed", slog.Int("rounds", sess.cfg.MaxRounds))
}

// prepare dials the members and picks the parameters of round one.
func (svc *service) prepare(ctx context.Context, sess *session, logger *slog.Logger) (fl.ParameterSet, error) {
	for _, p := range sess.members {
		c, err := svc.dialer.Dial(ctx, p)
		if err != nil {
			logger.Warn("failed to dial participant", slog.String("participant_id", p.ID), slog.Any("error", err))

			continue
		}
		sess.clients = append(sess.clients, c)
	}
	if len(sess.clients) == 0 {
		return fl.ParameterSet{}, fl.ErrNoParticipants
	}

	if svc.cfg.InitialParameters != nil {
		global, err := svc.cfg.InitialParameters(ctx)
		if err != nil {
			return fl.ParameterSet{}, fmt.Errorf("initial parameters: %w", err)
		}

		return global, global.Validate()
	}

	for _, c := range sess.clients {
		pctx, cancel := context.WithTimeout(ctx, sess.cfg.CollectionTimeout)
		global, err := c.Parameters(pctx)
		cancel()
		if err == nil && global.Len() > 0 && global.Validate() == nil {
			return global, nil
		}
		logger.Warn("participant did not provide initial parameters", slog.String("participant_id", c.ID()), slog.Any("error", err))
	}

	return fl.ParameterSet{}, errNoInitialParams
}

// playRound collects updates for round index until at least one participant
// succeeds, retrying with backoff, and aggregates them. The returned round
// carries the failures of every attempt, also when err is set.
func (svc *service) playRound(ctx context.Context, sess *session, index int, global fl.ParameterSet, logger *slog.Logger) (fl.Round, fl.ParameterSet, error) {
	bo := svc.newBackOff()

	var (
		failures []fl.Failure
		started  time.Time
	)
	for attempt := 1; ; attempt++ {
		svc.update(func(st *SessionStatus) {
			st.Phase = PhaseBroadcasting
			st.Attempt = attempt
		})

		round := svc.collect(ctx, sess, index, attempt, global)
		if attempt == 1 {
			started = round.StartedAt
		}
		mismatched := allShapeMismatch(round.Failures)
		failures = append(failures, round.Failures...)
		round.Failures = failures
		round.StartedAt = started

		if err := ctx.Err(); err != nil {
			return round, fl.ParameterSet{}, err
		}

		if len(round.Updates) > 0 {
			svc.update(func(st *SessionStatus) { st.Phase = PhaseAggregating })
			aggregated, err := svc.cfg.Aggregator.Aggregate(round.Updates)
			if err == nil {
				return round, aggregated, nil
			}
			if !errors.Is(err, fl.ErrNoUpdatesToAggregate) {
				return round, fl.ParameterSet{}, fmt.Errorf("aggregate round %d: %w", index, err)
			}
		}

		if mismatched {
			return round, fl.ParameterSet{}, errAllMismatched
		}

		retries := sess.cfg.MaxRoundRetries
		if retries > 0 && attempt > retries {
			return round, fl.ParameterSet{}, errNoResponders
		}

		delay := bo.NextBackOff()
		attrs := []any{
			slog.Int("round", index),
			slog.Int("attempt", attempt),
			slog.Int("failures", len(failures)),
			slog.String("retry_in", delay.String()),
		}
		if retries == 0 {
			logger.Warn("no participant responded, retrying round without limit", attrs...)
		} else {
			logger.Warn("no participant responded, retrying round", attrs...)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()

			return round, fl.ParameterSet{}, ctx.Err()
		case <-sess.abort:
			timer.Stop()

			return round, fl.ParameterSet{}, errAborted
		case <-timer.C:
		}
	}
}

func allShapeMismatch(failures []fl.Failure) bool {
	if len(failures) == 0 {
		return false
	}
	for _, f := range failures {
		if f.Kind != fl.FailureShapeMismatch {
			return false
		}
	}

	return true
}

// collect broadcasts global and gathers one update or failure per client
// within the collection timeout.
func (svc *service) collect(ctx context.Context, sess *session, index, attempt int, global fl.ParameterSet) fl.Round {
	round := fl.Round{
		Index:            index,
		Attempt:          attempt,
		GlobalParameters: global,
		StartedAt:        time.Now(),
	}

	svc.update(func(st *SessionStatus) { st.Phase = PhaseCollecting })
	outcomes := fanOut(ctx, sess.clients, svc.cfg.MaxConcurrency, sess.cfg.CollectionTimeout, func(ctx context.Context, c Client) (fl.ClientUpdate, error) {
		update, err := c.Fit(ctx, global.Clone())
		if err != nil {
			return fl.ClientUpdate{}, err
		}
		if update.SampleCount == 0 {
			return fl.ClientUpdate{}, fmt.Errorf("%w: %w", fl.ErrNoLocalData, fl.ErrZeroSampleCount)
		}
		if err := global.Compatible(update.Parameters); err != nil {
			return fl.ClientUpdate{}, err
		}
		update.ParticipantID = c.ID()

		return update, nil
	})

	for _, o := range outcomes {
		if o.failure != nil {
			round.Failures = append(round.Failures, *o.failure)

			continue
		}
		round.Updates = append(round.Updates, o.value)
	}

	return round
}

// evaluate scores the freshly aggregated parameters on every client.
func (svc *service) evaluate(ctx context.Context, sess *session, index int, global fl.ParameterSet, failures []fl.Failure) ([]fl.EvaluationResult, []fl.Failure) {
	outcomes := fanOut(ctx, sess.clients, svc.cfg.MaxConcurrency, sess.cfg.CollectionTimeout, func(ctx context.Context, c Client) (fl.EvaluationResult, error) {
		res, err := c.Evaluate(ctx, global.Clone())
		if err != nil {
			return fl.EvaluationResult{}, fmt.Errorf("evaluate: %w", err)
		}
		res.ParticipantID = c.ID()

		return res, nil
	})

	var evals []fl.EvaluationResult
	for _, o := range outcomes {
		if o.failure != nil {
			svc.logger.Debug("evaluation failed",
				slog.Int("round", index),
				slog.String("participant_id", o.failure.ParticipantID),
				slog.String("kind", string(o.failure.Kind)),
			)
			failures = append(failures, *o.failure)

			continue
		}
		evals = append(evals, o.value)
	}

	return evals, failures
}

type outcome[T any] struct {
	value   T
	failure *fl.Failure
}

type arrival[T any] struct {
	id  string
	at  time.Time
	out outcome[T]
}

// fanOut calls fn for every client concurrently and returns the outcomes in
// arrival order. Clients that have not answered when timeout elapses are
// reported as timed out and their late answers are dropped.
func fanOut[T any](ctx context.Context, clients []Client, limit int, timeout time.Duration, fn func(context.Context, Client) (T, error)) []outcome[T] {
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	arrivals := make(chan arrival[T], len(clients))

	go func() {
		g := new(errgroup.Group)
		if limit > 0 {
			g.SetLimit(limit)
		}
		for _, c := range clients {
			g.Go(func() error {
				v, err := fn(rctx, c)
				a := arrival[T]{id: c.ID(), at: time.Now(), out: outcome[T]{value: v}}
				if err != nil {
					a.out = outcome[T]{failure: newFailure(c.ID(), err)}
				}
				arrivals <- a

				return nil
			})
		}
		_ = g.Wait()
		close(arrivals)
	}()

	ids := make([]string, len(clients))
	for i, c := range clients {
		ids[i] = c.ID()
	}
	deadline, _ := rctx.Deadline()

	return gather(rctx, ids, deadline, arrivals)
}

// gather reads arrivals until the channel closes or ctx is done. Answers that
// arrived after deadline are dropped, including ones still buffered when ctx
// ends, and their ids are reported as timed out.
func gather[T any](ctx context.Context, ids []string, deadline time.Time, arrivals <-chan arrival[T]) []outcome[T] {
	answered := make(map[string]bool, len(ids))
	outcomes := make([]outcome[T], 0, len(ids))
	accept := func(a arrival[T]) {
		if !deadline.IsZero() && a.at.After(deadline) {
			return
		}
		answered[a.id] = true
		outcomes = append(outcomes, a.out)
	}

loop:
	for {
		select {
		case a, ok := <-arrivals:
			if !ok {
				break loop
			}
			accept(a)
		case <-ctx.Done():
			for {
				select {
				case a, ok := <-arrivals:
					if !ok {
						break loop
					}
					accept(a)
				default:
					break loop
				}
			}
		}
	}

	err := ctx.Err()
	if err == nil {
		err = context.DeadlineExceeded
	}
	for _, id := range ids {
		if !answered[id] {
			outcomes = append(outcomes, outcome[T]{failure: newFailure(id, err)})
		}
	}

	return outcomes
}

func newFailure(participantID string, err error) *fl.Failure {
	return &fl.Failure{
		ParticipantID: participantID,
		Kind:          fl.Classify(err),
		Reason:        err.Error(),
		At:            time.Now(),
	}
}

func (svc *service) persist(ctx context.Context, round int, global fl.ParameterSet) error {
	return svc.store.Save(ctx, codec.Checkpoint{
		Round:      round,
		CreatedAt:  time.Now(),
		Parameters: global,
	})
}

func (svc *service) notify(ctx context.Context, sess *session, record fl.RoundRecord, logger *slog.Logger) {
	if svc.cfg.Notifier == nil {
		return
	}

	notice := fl.RoundNotice{
		SessionID:   sess.id,
		Round:       record.Index,
		MaxRounds:   sess.cfg.MaxRounds,
		Digest:      record.ParameterDigest,
		CompletedAt: record.CompletedAt,
	}
	if record.Evaluation != nil {
		notice.Loss = record.Evaluation.Loss
		notice.Accuracy = record.Evaluation.Accuracy
	}
	if err := svc.cfg.Notifier.Notify(ctx, notice); err != nil {
		logger.Warn("failed to publish round notice", slog.Int("round", record.Index), slog.Any("error", err))
	}
}

func (svc *service) fail(logger *slog.Logger, err error) {
	svc.update(func(st *SessionStatus) {
		st.State = StateFailed
		st.Phase = PhaseFailed
		st.Reason = err.Error()
		st.FinishedAt = time.Now()
	})
	logger.Error("training session failed", slog.Any("error", errors.Join(fl.ErrSessionFailed, err)))
}
