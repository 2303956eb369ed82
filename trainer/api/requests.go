package api

import (
	"errors"

	"github.com/absmach/flock/pkg/fl"
)

var errEmptyParameters = errors.New("empty parameter set")

type parametersReq struct {
	Parameters fl.ParameterSet `json:"parameters" cbor:"1,keyasint"`
}

func (req parametersReq) validate() error {
	if req.Parameters.Len() == 0 {
		return errEmptyParameters
	}

	return req.Parameters.Validate()
}
