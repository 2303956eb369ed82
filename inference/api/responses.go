package api

import (
	"net/http"

	"github.com/absmach/flock/inference"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*predictResponse)(nil)
	_ supermq.Response = (*modelResponse)(nil)
)

type predictResponse struct {
	inference.Prediction
}

func (p predictResponse) Code() int {
	return http.StatusOK
}

func (p predictResponse) Headers() map[string]string {
	return map[string]string{}
}

func (p predictResponse) Empty() bool {
	return false
}

type modelResponse struct {
	inference.ModelInfo
}

func (m modelResponse) Code() int {
	return http.StatusOK
}

func (m modelResponse) Headers() map[string]string {
	return map[string]string{}
}

func (m modelResponse) Empty() bool {
	return false
}
