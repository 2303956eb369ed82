package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/absmach/flock/inference"
	"github.com/absmach/flock/inference/api"
	"github.com/absmach/flock/inference/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var png = []byte("\x89PNG fake payload")

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, "digit.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestPredict(t *testing.T) {
	cases := []struct {
		desc      string
		field     string
		data      []byte
		plainBody bool
		svcRes    inference.Prediction
		svcErr    error
		status    int
		callSvc   bool
	}{
		{
			desc:    "predict digit",
			field:   "image",
			data:    png,
			svcRes:  inference.Prediction{Class: 7, Round: 3},
			status:  http.StatusOK,
			callSvc: true,
		},
		{
			desc:    "undecodable image",
			field:   "image",
			data:    png,
			svcErr:  inference.ErrInvalidImage,
			status:  http.StatusBadRequest,
			callSvc: true,
		},
		{
			desc:    "no checkpoint yet",
			field:   "image",
			data:    png,
			svcErr:  inference.ErrModelUnavailable,
			status:  http.StatusServiceUnavailable,
			callSvc: true,
		},
		{
			desc:   "missing image field",
			field:  "picture",
			data:   png,
			status: http.StatusBadRequest,
		},
		{
			desc:   "empty image",
			field:  "image",
			status: http.StatusBadRequest,
		},
		{
			desc:      "not multipart",
			plainBody: true,
			status:    http.StatusUnsupportedMediaType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			svc := new(mocks.Service)
			ts := httptest.NewServer(api.MakeHandler(svc, slog.Default(), "test"))
			defer ts.Close()

			svc.On("Predict", mock.Anything, tc.data).Return(tc.svcRes, tc.svcErr)

			var (
				res *http.Response
				err error
			)
			if tc.plainBody {
				res, err = ts.Client().Post(ts.URL+"/predict", "text/plain", strings.NewReader("hello"))
			} else {
				body, ct := multipartBody(t, tc.field, tc.data)
				res, err = ts.Client().Post(ts.URL+"/predict", ct, body)
			}
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			if tc.status == http.StatusOK {
				var got struct {
					Predicted int `json:"predicted"`
					Round     int `json:"round"`
				}
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				assert.Equal(t, 7, got.Predicted)
				assert.Equal(t, 3, got.Round)
			}
			if !tc.callSvc {
				svc.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestModelAndHealth(t *testing.T) {
	svc := new(mocks.Service)
	ts := httptest.NewServer(api.MakeHandler(svc, slog.Default(), "test"))
	defer ts.Close()
	svc.On("Model", mock.Anything).Return(inference.ModelInfo{Round: 4, Digest: "abc"}, nil)

	res, err := ts.Client().Get(ts.URL + "/model")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var info inference.ModelInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&info))
	assert.Equal(t, 4, info.Round)
	assert.Equal(t, "abc", info.Digest)

	health, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
