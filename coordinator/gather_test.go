package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/absmach/flock/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatherAtDeadline(t *testing.T) {
	deadline := time.Now()

	cases := []struct {
		desc     string
		arrivals []arrival[int]
		close    bool
		values   []int
		timedOut []string
	}{
		{
			desc: "buffered answers before the deadline are kept",
			arrivals: []arrival[int]{
				{id: "p1", at: deadline.Add(-time.Millisecond), out: outcome[int]{value: 1}},
				{id: "p2", at: deadline, out: outcome[int]{value: 2}},
			},
			values:   []int{1, 2},
			timedOut: []string{"p3"},
		},
		{
			desc: "answers after the deadline are dropped",
			arrivals: []arrival[int]{
				{id: "p1", at: deadline.Add(-time.Millisecond), out: outcome[int]{value: 1}},
				{id: "p2", at: deadline.Add(time.Millisecond), out: outcome[int]{value: 2}},
			},
			values:   []int{1},
			timedOut: []string{"p2", "p3"},
		},
		{
			desc: "late answer on a closed channel is reported as timeout",
			arrivals: []arrival[int]{
				{id: "p1", at: deadline.Add(-time.Millisecond), out: outcome[int]{value: 1}},
				{id: "p2", at: deadline.Add(-time.Millisecond), out: outcome[int]{value: 2}},
				{id: "p3", at: deadline.Add(time.Second), out: outcome[int]{value: 3}},
			},
			close:    true,
			values:   []int{1, 2},
			timedOut: []string{"p3"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ctx, cancel := context.WithDeadline(context.Background(), deadline)
			defer cancel()
			<-ctx.Done()

			ch := make(chan arrival[int], len(tc.arrivals))
			for _, a := range tc.arrivals {
				ch <- a
			}
			if tc.close {
				close(ch)
			}

			outcomes := gather(ctx, []string{"p1", "p2", "p3"}, deadline, ch)

			var (
				values   []int
				timedOut []string
			)
			for _, o := range outcomes {
				if o.failure != nil {
					assert.Equal(t, fl.FailureTimeout, o.failure.Kind)
					timedOut = append(timedOut, o.failure.ParticipantID)

					continue
				}
				values = append(values, o.value)
			}
			assert.ElementsMatch(t, tc.values, values)
			assert.ElementsMatch(t, tc.timedOut, timedOut)
		})
	}
}

func TestGatherKeepsFailures(t *testing.T) {
	ch := make(chan arrival[int], 1)
	ch <- arrival[int]{id: "p1", at: time.Now(), out: outcome[int]{failure: newFailure("p1", fl.ErrNoLocalData)}}
	close(ch)

	outcomes := gather(context.Background(), []string{"p1"}, time.Time{}, ch)
	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].failure)
	assert.Equal(t, fl.FailureNoLocalData, outcomes[0].failure.Kind)
}
