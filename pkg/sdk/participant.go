package sdk

import (
	"encoding/json"
	"net/http"
	"time"
)

const participantsEndpoint = "/participants"

type Participant struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Address      string      `json:"address,omitempty"`
	Transport    string      `json:"transport"`
	Alive        bool        `json:"alive"`
	Static       bool        `json:"static,omitempty"`
	AliveHistory []time.Time `json:"alive_history"`
	RegisteredAt time.Time   `json:"registered_at"`
}

type ParticipantPage struct {
	Offset       uint64        `json:"offset"`
	Limit        uint64        `json:"limit"`
	Total        uint64        `json:"total"`
	Participants []Participant `json:"participants"`
}

func (sdk *flockSDK) ListParticipants(offset, limit uint64) (ParticipantPage, error) {
	url := sdk.coordinatorURL + participantsEndpoint + "/" + pageQuery(offset, limit)

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return ParticipantPage{}, err
	}

	var pp ParticipantPage
	if err := json.Unmarshal(body, &pp); err != nil {
		return ParticipantPage{}, err
	}

	return pp, nil
}

func (sdk *flockSDK) RemoveParticipant(id string) error {
	url := sdk.coordinatorURL + participantsEndpoint + "/" + id

	if _, err := sdk.processRequest(http.MethodDelete, url, CTJSON, nil, http.StatusNoContent); err != nil {
		return err
	}

	return nil
}
