package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/absmach/flock/pkg/codec"
	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType     = "application/json"
	CBORContentType = codec.ContentType

	MaxLimitSize = 100
)

type errorRes struct {
	Err string `json:"error"`
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

// EncodeCBORResponse writes response as canonical CBOR.
func EncodeCBORResponse(_ context.Context, w http.ResponseWriter, response any) error {
	data, err := codec.Marshal(response)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", CBORContentType)
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.WriteHeader(ar.Code())
		if ar.Empty() {
			return nil
		}
	}
	_, err = w.Write(data)

	return err
}

// StatusCode maps domain errors to HTTP status codes. Domain errors win over
// the generic validation and not-found errors they are joined with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, apiutil.ErrUnsupportedContentType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, fl.ErrAlreadyTraining),
		errors.Is(err, fl.ErrShapeMismatch),
		errors.Is(err, pkgerrors.ErrEntityExists):
		return http.StatusConflict
	case errors.Is(err, fl.ErrNoLocalData),
		errors.Is(err, fl.ErrNoParticipants):
		return http.StatusUnprocessableEntity
	case errors.Is(err, fl.ErrNoActiveSession),
		errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apiutil.ErrValidation),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, pkgerrors.ErrInvalidData),
		errors.Is(err, fl.ErrZeroSampleCount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(StatusCode(err))

	if err := json.NewEncoder(w).Encode(errorRes{Err: err.Error()}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
