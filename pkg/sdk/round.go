package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const roundsEndpoint = "/rounds"

type ParticipantSummary struct {
	ParticipantID string             `json:"participant_id"`
	SampleCount   uint64             `json:"sample_count"`
	FitMetrics    map[string]float64 `json:"fit_metrics,omitempty"`
}

type Failure struct {
	ParticipantID string    `json:"participant_id"`
	Kind          string    `json:"kind"`
	Reason        string    `json:"reason"`
	At            time.Time `json:"at"`
}

type Evaluation struct {
	Loss        float64 `json:"loss"`
	Accuracy    float64 `json:"accuracy"`
	SampleCount uint64  `json:"sample_count"`
}

type Round struct {
	SessionID       string               `json:"session_id"`
	Index           int                  `json:"index"`
	Attempts        int                  `json:"attempts"`
	ParameterDigest string               `json:"parameter_digest"`
	Participants    []ParticipantSummary `json:"participants"`
	Failures        []Failure            `json:"failures,omitempty"`
	Evaluation      *Evaluation          `json:"evaluation,omitempty"`
	StartedAt       time.Time            `json:"started_at"`
	CompletedAt     time.Time            `json:"completed_at"`
}

type RoundPage struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Rounds []Round `json:"rounds"`
}

func (sdk *flockSDK) ListRounds(offset, limit uint64) (RoundPage, error) {
	url := sdk.coordinatorURL + roundsEndpoint + "/" + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return RoundPage{}, err
	}

	var rp RoundPage
	if err := json.Unmarshal(body, &rp); err != nil {
		return RoundPage{}, err
	}

	return rp, nil
}

func (sdk *flockSDK) GetRound(index int) (Round, error) {
	url := fmt.Sprintf("%s%s/%d", sdk.coordinatorURL, roundsEndpoint, index)

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return Round{}, err
	}

	var r Round
	if err := json.Unmarshal(body, &r); err != nil {
		return Round{}, err
	}

	return r, nil
}
