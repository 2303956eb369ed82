package fl_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/absmach/flock/pkg/fl"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		desc string
		err  error
		kind fl.FailureKind
	}{
		{"deadline", fmt.Errorf("fit: %w", context.DeadlineExceeded), fl.FailureTimeout},
		{"no data", fl.ErrNoLocalData, fl.FailureNoLocalData},
		{"shape", fmt.Errorf("decode: %w", fl.ErrShapeMismatch), fl.FailureShapeMismatch},
		{"other", errors.New("connection refused"), fl.FailureTransport},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.kind, fl.Classify(tc.err))
		})
	}
}

func TestResponseErrRoundTrip(t *testing.T) {
	cases := []struct {
		desc string
		err  error
	}{
		{"no local data", fl.ErrNoLocalData},
		{"shape mismatch", fmt.Errorf("%w: tensor 3", fl.ErrShapeMismatch)},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			res := fl.Response{ErrorKind: fl.Classify(tc.err), Error: tc.err.Error()}
			got := res.Err()
			assert.Equal(t, fl.Classify(tc.err), fl.Classify(got))
			assert.Contains(t, got.Error(), tc.err.Error())
		})
	}

	assert.NoError(t, fl.Response{}.Err())
	assert.EqualError(t, fl.Response{ErrorKind: fl.FailureTransport, Error: "boom"}.Err(), "boom")
}
