package api

import (
	"net/http"

	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*fitRes)(nil)
	_ supermq.Response = (*evaluateRes)(nil)
	_ supermq.Response = (*parametersRes)(nil)
)

type fitRes struct {
	fl.ClientUpdate
}

func (res fitRes) Code() int {
	return http.StatusOK
}

func (res fitRes) Headers() map[string]string {
	return map[string]string{}
}

func (res fitRes) Empty() bool {
	return false
}

type evaluateRes struct {
	fl.EvaluationResult
}

func (res evaluateRes) Code() int {
	return http.StatusOK
}

func (res evaluateRes) Headers() map[string]string {
	return map[string]string{}
}

func (res evaluateRes) Empty() bool {
	return false
}

type parametersRes struct {
	fl.ParameterSet
}

func (res parametersRes) Code() int {
	return http.StatusOK
}

func (res parametersRes) Headers() map[string]string {
	return map[string]string{}
}

func (res parametersRes) Empty() bool {
	return false
}
