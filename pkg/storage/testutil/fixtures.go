package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
	"github.com/absmach/flock/pkg/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invalidID = "invalid-id-that-does-not-exist"

// now is truncated to what every backend can represent.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func TestRound(sessionID string, index int) fl.RoundRecord {
	started := now()

	return fl.RoundRecord{
		SessionID:       sessionID,
		Index:           index,
		Attempts:        1,
		ParameterDigest: "4f53cda18c2baa0c0354bb5f9a3ecbe5ed12ab4d8e11ba873c2f11161202b945",
		Participants: []fl.ParticipantSummary{
			{
				ParticipantID: "alpha",
				SampleCount:   120,
				FitMetrics:    map[string]float64{"train_loss": 0.42},
				Evaluation: &fl.EvaluationResult{
					ParticipantID: "alpha",
					Loss:          0.4,
					SampleCount:   30,
					Metrics:       map[string]float64{fl.MetricAccuracy: 0.9},
				},
			},
			{ParticipantID: "beta", SampleCount: 80},
		},
		Failures: []fl.Failure{
			{ParticipantID: "gamma", Kind: fl.FailureTimeout, Reason: "no response before deadline", At: started},
		},
		Evaluation:  &fl.Evaluation{Loss: 0.4, Accuracy: 0.9, SampleCount: 30},
		StartedAt:   started,
		CompletedAt: started.Add(time.Second),
	}
}

func TestParticipant(id string) participant.Participant {
	t := now()

	return participant.Participant{
		ID:           id,
		Name:         "test-participant-" + id,
		Address:      "http://localhost:7071",
		Transport:    participant.TransportHTTP,
		Alive:        true,
		AliveHistory: []time.Time{t.Add(-10 * time.Second), t},
		RegisteredAt: t.Add(-time.Minute),
	}
}

// RoundRepositoryTests exercises the behaviour every RoundRepository shares.
func RoundRepositoryTests(t *testing.T, repo storage.RoundRepository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		rec := TestRound(uuid.NewString(), 1)
		require.NoError(t, repo.Create(ctx, rec))

		got, err := repo.Get(ctx, rec.SessionID, rec.Index)
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("duplicate round", func(t *testing.T) {
		rec := TestRound(uuid.NewString(), 3)
		require.NoError(t, repo.Create(ctx, rec))

		err := repo.Create(ctx, rec)
		assert.ErrorIs(t, err, errors.ErrEntityExists)
	})

	t.Run("missing round", func(t *testing.T) {
		_, err := repo.Get(ctx, invalidID, 1)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("list in round order", func(t *testing.T) {
		session := uuid.NewString()
		for _, idx := range []int{10, 2, 1, 3} {
			require.NoError(t, repo.Create(ctx, TestRound(session, idx)))
		}
		require.NoError(t, repo.Create(ctx, TestRound(uuid.NewString(), 1)))

		cases := []struct {
			desc    string
			offset  uint64
			limit   uint64
			indexes []int
		}{
			{desc: "all", offset: 0, limit: 100, indexes: []int{1, 2, 3, 10}},
			{desc: "first page", offset: 0, limit: 2, indexes: []int{1, 2}},
			{desc: "second page", offset: 2, limit: 2, indexes: []int{3, 10}},
			{desc: "past the end", offset: 10, limit: 2, indexes: []int{}},
		}

		for _, tc := range cases {
			t.Run(tc.desc, func(t *testing.T) {
				records, total, err := repo.List(ctx, session, tc.offset, tc.limit)
				require.NoError(t, err)
				assert.Equal(t, uint64(4), total)

				indexes := make([]int, 0, len(records))
				for _, r := range records {
					assert.Equal(t, session, r.SessionID)
					indexes = append(indexes, r.Index)
				}
				assert.Equal(t, tc.indexes, indexes)
			})
		}
	})
}

// ParticipantRepositoryTests exercises the behaviour every
// ParticipantRepository shares.
func ParticipantRepositoryTests(t *testing.T, repo storage.ParticipantRepository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		p := TestParticipant(uuid.NewString())
		require.NoError(t, repo.Create(ctx, p))

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)

		assert.ErrorIs(t, repo.Create(ctx, p), errors.ErrEntityExists)
	})

	t.Run("update", func(t *testing.T) {
		p := TestParticipant(uuid.NewString())
		require.NoError(t, repo.Create(ctx, p))

		p.Alive = false
		p.Name = "renamed"
		require.NoError(t, repo.Update(ctx, p))

		got, err := repo.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p, got)

		assert.ErrorIs(t, repo.Update(ctx, TestParticipant(invalidID)), errors.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		p := TestParticipant(uuid.NewString())
		require.NoError(t, repo.Create(ctx, p))
		require.NoError(t, repo.Delete(ctx, p.ID))

		_, err := repo.Get(ctx, p.ID)
		assert.ErrorIs(t, err, errors.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, p.ID), errors.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		_, before, err := repo.List(ctx, 0, 1)
		require.NoError(t, err)

		for range 3 {
			require.NoError(t, repo.Create(ctx, TestParticipant(uuid.NewString())))
		}

		ps, total, err := repo.List(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, before+3, total)
		assert.Len(t, ps, 2)

		rest, _, err := repo.List(ctx, 2, 1000)
		require.NoError(t, err)
		assert.Len(t, rest, int(total)-2)
		for _, p := range rest {
			assert.NotEqual(t, ps[0].ID, p.ID)
			assert.NotEqual(t, ps[1].ID, p.ID)
		}
	})
}
