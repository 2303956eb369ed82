package sdk

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"time"
)

type Prediction struct {
	Predicted     int       `json:"predicted"`
	Probabilities []float64 `json:"probabilities,omitempty"`
	Round         int       `json:"round"`
}

type ModelInfo struct {
	Round     int       `json:"round"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
	LoadedAt  time.Time `json:"loaded_at"`
}

func (sdk *flockSDK) Predict(filename string, image []byte) (Prediction, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return Prediction{}, err
	}
	if _, err := part.Write(image); err != nil {
		return Prediction{}, err
	}
	if err := w.Close(); err != nil {
		return Prediction{}, err
	}

	url := sdk.inferenceURL + "/predict"

	body, err := sdk.processRequest(http.MethodPost, url, w.FormDataContentType(), buf.Bytes(), http.StatusOK)
	if err != nil {
		return Prediction{}, err
	}

	var p Prediction
	if err := json.Unmarshal(body, &p); err != nil {
		return Prediction{}, err
	}

	return p, nil
}

func (sdk *flockSDK) Model() (ModelInfo, error) {
	url := sdk.inferenceURL + "/model"

	body, err := sdk.processRequest(http.MethodGet, url, CTJSON, nil, http.StatusOK)
	if err != nil {
		return ModelInfo{}, err
	}

	var m ModelInfo
	if err := json.Unmarshal(body, &m); err != nil {
		return ModelInfo{}, err
	}

	return m, nil
}
