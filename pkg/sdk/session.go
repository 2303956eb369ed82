package sdk

import (
	"encoding/json"
	"net/http"
	"time"
)

const sessionsEndpoint = "/sessions"

type SessionRequest struct {
	MaxRounds         int      `json:"max_rounds"`
	Participants      []string `json:"participants,omitempty"`
	CollectionTimeout string   `json:"collection_timeout,omitempty"`
	MaxRoundRetries   int      `json:"max_round_retries,omitempty"`
}

type Session struct {
	SessionID      string    `json:"session_id,omitempty"`
	State          string    `json:"state"`
	Phase          string    `json:"phase,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	CurrentRound   int       `json:"current_round"`
	MaxRounds      int       `json:"max_rounds"`
	Attempt        int       `json:"attempt,omitempty"`
	Participants   []string  `json:"participants,omitempty"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	FinishedAt     time.Time `json:"finished_at,omitzero"`
	CheckpointPath string    `json:"checkpoint_path,omitempty"`
}

func (sdk *flockSDK) StartSession(req SessionRequest) (Session, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return Session{}, err
	}

	url := sdk.coordinatorURL + sessionsEndpoint + "/"

	body, err := sdk.processRequest(http.MethodPost, url, CTJSON, data, http.StatusAccepted)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (sdk *flockSDK) SessionStatus() (Session, error) {
	url := sdk.coordinatorURL + sessionsEndpoint + "/status"

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, err
	}

	return s, nil
}

func (sdk *flockSDK) AbortSession() error {
	url := sdk.coordinatorURL + sessionsEndpoint + "/abort"

	if _, err := sdk.processRequest(http.MethodPost, url, CTJSON, nil, http.StatusAccepted); err != nil {
		return err
	}

	return nil
}
