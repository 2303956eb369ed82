package api_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/trainer/api"
	"github.com/absmach/flock/trainer/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var global = fl.ParameterSet{Tensors: []fl.Tensor{
	{Name: "w", Shape: []int{2}, Values: []float64{0.5, -0.5}},
}}

type body struct {
	Parameters fl.ParameterSet `cbor:"1,keyasint"`
}

func newServer(t *testing.T) (*httptest.Server, *mocks.Service) {
	t.Helper()

	svc := new(mocks.Service)
	ts := httptest.NewServer(api.MakeHandler(svc, slog.Default(), "test"))
	t.Cleanup(ts.Close)

	return ts, svc
}

func cborBody(t *testing.T) *bytes.Reader {
	t.Helper()

	data, err := codec.Marshal(body{Parameters: global})
	require.NoError(t, err)

	return bytes.NewReader(data)
}

func TestFitEndpoint(t *testing.T) {
	update := fl.ClientUpdate{ParticipantID: "p1", Parameters: global, SampleCount: 48, Metrics: map[string]float64{"train_loss": 0.3}}

	cases := []struct {
		desc        string
		contentType string
		body        func(t *testing.T) *bytes.Reader
		svcRes      fl.ClientUpdate
		svcErr      error
		status      int
	}{
		{
			desc:        "fit with cbor body",
			contentType: codec.ContentType,
			body:        cborBody,
			svcRes:      update,
			status:      http.StatusOK,
		},
		{
			desc:        "no local data",
			contentType: codec.ContentType,
			body:        cborBody,
			svcErr:      fl.ErrNoLocalData,
			status:      http.StatusUnprocessableEntity,
		},
		{
			desc:        "shape mismatch",
			contentType: codec.ContentType,
			body:        cborBody,
			svcErr:      fl.ErrShapeMismatch,
			status:      http.StatusConflict,
		},
		{
			desc:        "unsupported content type",
			contentType: "text/plain",
			body:        cborBody,
			status:      http.StatusUnsupportedMediaType,
		},
		{
			desc:        "empty json body",
			contentType: "application/json",
			body: func(*testing.T) *bytes.Reader {
				return bytes.NewReader([]byte(`{"parameters":{"tensors":[]}}`))
			},
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ts, svc := newServer(t)
			svc.On("Fit", mock.Anything, global).Return(tc.svcRes, tc.svcErr)

			req, err := http.NewRequest(http.MethodPost, ts.URL+"/fit", tc.body(t))
			require.NoError(t, err)
			req.Header.Set("Content-Type", tc.contentType)

			res, err := ts.Client().Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			if tc.status == http.StatusOK {
				assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), codec.ContentType))
				var buf bytes.Buffer
				_, err := buf.ReadFrom(res.Body)
				require.NoError(t, err)

				var got fl.ClientUpdate
				require.NoError(t, codec.Unmarshal(buf.Bytes(), &got))
				assert.Equal(t, tc.svcRes, got)
			}
		})
	}
}

func TestParametersEndpoint(t *testing.T) {
	ts, svc := newServer(t)
	svc.On("Parameters", mock.Anything).Return(global, nil)

	res, err := ts.Client().Get(ts.URL + "/parameters")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)

	got, err := codec.UnmarshalParameters(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, global, got)
}

func TestEvaluateEndpoint(t *testing.T) {
	ts, svc := newServer(t)
	want := fl.EvaluationResult{ParticipantID: "p1", Loss: 0.4, SampleCount: 12, Metrics: map[string]float64{fl.MetricAccuracy: 0.75}}
	svc.On("Evaluate", mock.Anything, global).Return(want, nil)

	res, err := ts.Client().Post(ts.URL+"/evaluate", codec.ContentType, cborBody(t))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)

	var got fl.EvaluationResult
	require.NoError(t, codec.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, want, got)
}
