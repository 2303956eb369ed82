package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/absmach/flock/pkg/api"
	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/fl"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		desc   string
		err    error
		status int
	}{
		{
			desc:   "validation error",
			err:    apiutil.ErrValidation,
			status: http.StatusBadRequest,
		},
		{
			desc:   "shape mismatch joined with validation error",
			err:    errors.Join(apiutil.ErrValidation, fl.ErrShapeMismatch),
			status: http.StatusConflict,
		},
		{
			desc:   "no local data joined with validation error",
			err:    errors.Join(apiutil.ErrValidation, fl.ErrNoLocalData),
			status: http.StatusUnprocessableEntity,
		},
		{
			desc:   "no local data wrapping zero sample count",
			err:    fmt.Errorf("%w: %w", fl.ErrNoLocalData, fl.ErrZeroSampleCount),
			status: http.StatusUnprocessableEntity,
		},
		{
			desc:   "zero sample count",
			err:    fl.ErrZeroSampleCount,
			status: http.StatusBadRequest,
		},
		{
			desc:   "session already running",
			err:    fl.ErrAlreadyTraining,
			status: http.StatusConflict,
		},
		{
			desc:   "entity not found",
			err:    pkgerrors.ErrNotFound,
			status: http.StatusNotFound,
		},
		{
			desc:   "unsupported content type",
			err:    errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType),
			status: http.StatusUnsupportedMediaType,
		},
		{
			desc:   "unknown error",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.status, api.StatusCode(tc.err))
		})
	}
}

func TestEncodeError(t *testing.T) {
	w := httptest.NewRecorder()
	err := errors.Join(apiutil.ErrValidation, fl.ErrShapeMismatch)

	api.EncodeError(context.Background(), err, w)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, api.ContentType, w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, err.Error(), body["error"])
}
