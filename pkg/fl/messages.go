package fl

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// MQTT topics shared by the coordinator and participants. Each template takes
// the domain and channel ids first.
const (
	DiscoveryTopicTemplate = "m/%s/c/%s/control/participant/create"
	AliveTopicTemplate     = "m/%s/c/%s/control/participant/alive"
	ControlTopicTemplate   = "m/%s/c/%s/control/participant/+"
	RequestTopicTemplate   = "m/%s/c/%s/fl/participants/%s/requests"
	ResponseTopicTemplate  = "m/%s/c/%s/fl/coordinator/responses"
	RoundsTopicTemplate    = "m/%s/c/%s/fl/rounds/next"
)

func RequestTopic(domainID, channelID, participantID string) string {
	return fmt.Sprintf(RequestTopicTemplate, domainID, channelID, participantID)
}

func ResponseTopic(domainID, channelID string) string {
	return fmt.Sprintf(ResponseTopicTemplate, domainID, channelID)
}

type Method string

const (
	MethodFit        Method = "fit"
	MethodEvaluate   Method = "evaluate"
	MethodParameters Method = "parameters"
)

// Request is sent by the coordinator to a single participant.
type Request struct {
	ID         string       `cbor:"1,keyasint"`
	Method     Method       `cbor:"2,keyasint"`
	Parameters ParameterSet `cbor:"3,keyasint,omitempty"`
}

// Response answers the Request with the same ID.
type Response struct {
	ID            string            `cbor:"1,keyasint"`
	ParticipantID string            `cbor:"2,keyasint"`
	Update        *ClientUpdate     `cbor:"3,keyasint,omitempty"`
	Evaluation    *EvaluationResult `cbor:"4,keyasint,omitempty"`
	Parameters    *ParameterSet     `cbor:"5,keyasint,omitempty"`
	ErrorKind     FailureKind       `cbor:"6,keyasint,omitempty"`
	Error         string            `cbor:"7,keyasint,omitempty"`
}

// Err rebuilds the error carried by the response, if any.
func (r Response) Err() error {
	if r.Error == "" && r.ErrorKind == "" {
		return nil
	}

	return KindError(r.ErrorKind, r.Error)
}

// Announcement is published by participants on the discovery and alive topics.
type Announcement struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name,omitempty"`
	Address       string `json:"address,omitempty"`
	Status        string `json:"status,omitempty"`
}

// RoundNotice is published after a round has been aggregated.
type RoundNotice struct {
	SessionID   string    `json:"session_id"`
	Round       int       `json:"round"`
	MaxRounds   int       `json:"max_rounds"`
	Digest      string    `json:"digest"`
	Loss        float64   `json:"loss"`
	Accuracy    float64   `json:"accuracy"`
	CompletedAt time.Time `json:"completed_at"`
}

// Classify maps a participant call error to a failure kind.
func Classify(err error) FailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, ErrNoLocalData):
		return FailureNoLocalData
	case errors.Is(err, ErrShapeMismatch):
		return FailureShapeMismatch
	default:
		return FailureTransport
	}
}

// KindError returns an error that matches the sentinel behind kind.
func KindError(kind FailureKind, msg string) error {
	var sentinel error
	switch kind {
	case FailureNoLocalData:
		sentinel = ErrNoLocalData
	case FailureShapeMismatch:
		sentinel = ErrShapeMismatch
	case FailureTimeout:
		sentinel = context.DeadlineExceeded
	default:
		return errors.New(msg)
	}
	if msg == "" || msg == sentinel.Error() {
		return sentinel
	}

	return &remoteError{sentinel: sentinel, msg: msg}
}

// remoteError keeps the message reported by a participant while matching the
// local sentinel.
type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string {
	return e.msg
}

func (e *remoteError) Unwrap() error {
	return e.sentinel
}
