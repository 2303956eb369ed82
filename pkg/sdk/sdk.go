package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const CTJSON string = "application/json"

type SDK interface {
	// StartSession starts a training session on the coordinator.
	//
	// example:
	//  req := sdk.SessionRequest{
	//    MaxRounds:         5,
	//    CollectionTimeout: "2m",
	//  }
	//  session, _ := sdk.StartSession(req)
	//  fmt.Println(session)
	StartSession(req SessionRequest) (Session, error)

	// SessionStatus returns the state of the current or most recent session.
	//
	// example:
	//  session, _ := sdk.SessionStatus()
	//  fmt.Println(session.State, session.CurrentRound)
	SessionStatus() (Session, error)

	// AbortSession stops the running session before its next round.
	//
	// example:
	//  _ := sdk.AbortSession()
	AbortSession() error

	// ListRounds lists the rounds of the current or most recent session.
	//
	// example:
	//  roundPage, _ := sdk.ListRounds(0, 10)
	//  fmt.Println(roundPage)
	ListRounds(offset uint64, limit uint64) (RoundPage, error)

	// GetRound gets a round by its one based index.
	//
	// example:
	//  round, _ := sdk.GetRound(3)
	//  fmt.Println(round)
	GetRound(index int) (Round, error)

	// ListParticipants lists registered participants.
	//
	// example:
	//  participantPage, _ := sdk.ListParticipants(0, 10)
	//  fmt.Println(participantPage)
	ListParticipants(offset uint64, limit uint64) (ParticipantPage, error)

	// RemoveParticipant removes a participant from the registry.
	//
	// example:
	//  _ := sdk.RemoveParticipant("b1d10738-c5d7-4ff1-8f4d-b9328ce6f040")
	RemoveParticipant(id string) error

	// Predict classifies an image with the inference service.
	//
	// example:
	//  data, _ := os.ReadFile("digit.png")
	//  prediction, _ := sdk.Predict("digit.png", data)
	//  fmt.Println(prediction.Predicted)
	Predict(filename string, image []byte) (Prediction, error)

	// Model describes the checkpoint the inference service predicts with.
	//
	// example:
	//  model, _ := sdk.Model()
	//  fmt.Println(model.Round)
	Model() (ModelInfo, error)
}

type flockSDK struct {
	coordinatorURL string
	inferenceURL   string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	InferenceURL    string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &flockSDK{
		coordinatorURL: cfg.CoordinatorURL,
		inferenceURL:   cfg.InferenceURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *flockSDK) processRequest(method, reqURL, contentType string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", contentType)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		var res struct {
			Err string `json:"error"`
		}
		if err := json.Unmarshal(body, &res); err == nil && res.Err != "" {
			return []byte{}, fmt.Errorf("unexpected response code: %d: %s", resp.StatusCode, res.Err)
		}

		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}

func pageQuery(offset, limit uint64) string {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	if len(queries) == 0 {
		return ""
	}

	return "?" + strings.Join(queries, "&")
}
