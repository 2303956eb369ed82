package api

import (
	"net/http"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*sessionResponse)(nil)
	_ supermq.Response = (*roundResponse)(nil)
	_ supermq.Response = (*listRoundsResponse)(nil)
	_ supermq.Response = (*listParticipantsResponse)(nil)
	_ supermq.Response = (*emptyResponse)(nil)
)

type sessionResponse struct {
	coordinator.SessionStatus
	started bool
}

func (s sessionResponse) Code() int {
	if s.started {
		return http.StatusAccepted
	}

	return http.StatusOK
}

func (s sessionResponse) Headers() map[string]string {
	if s.started {
		return map[string]string{
			"Location": "/sessions/status",
		}
	}

	return map[string]string{}
}

func (s sessionResponse) Empty() bool {
	return false
}

type roundResponse struct {
	fl.RoundRecord
}

func (r roundResponse) Code() int {
	return http.StatusOK
}

func (r roundResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r roundResponse) Empty() bool {
	return false
}

type listRoundsResponse struct {
	fl.RoundPage
}

func (l listRoundsResponse) Code() int {
	return http.StatusOK
}

func (l listRoundsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listRoundsResponse) Empty() bool {
	return false
}

type listParticipantsResponse struct {
	participant.Page
}

func (l listParticipantsResponse) Code() int {
	return http.StatusOK
}

func (l listParticipantsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listParticipantsResponse) Empty() bool {
	return false
}

type emptyResponse struct {
	code int
}

func (e emptyResponse) Code() int {
	return e.code
}

func (e emptyResponse) Headers() map[string]string {
	return map[string]string{}
}

func (e emptyResponse) Empty() bool {
	return true
}
