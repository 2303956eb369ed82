// Package http reaches trainers over their HTTP API.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/codec"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/participant"
)

const maxResponseSize = 1024 * 1024 * 64

var errEmptyAddress = errors.New("participant has no address")

type dialer struct {
	client *http.Client
}

// NewDialer returns a Dialer for participants with an HTTP address. A nil
// client selects http.DefaultClient.
func NewDialer(client *http.Client) coordinator.Dialer {
	if client == nil {
		client = http.DefaultClient
	}

	return &dialer{client: client}
}

func (d *dialer) Dial(_ context.Context, p participant.Participant) (coordinator.Client, error) {
	if p.Address == "" {
		return nil, errEmptyAddress
	}

	return &client{
		id:      p.ID,
		baseURL: strings.TrimSuffix(p.Address, "/"),
		http:    d.client,
	}, nil
}

type client struct {
	id      string
	baseURL string
	http    *http.Client
}

type parametersReq struct {
	Parameters fl.ParameterSet `cbor:"1,keyasint"`
}

func (c *client) ID() string {
	return c.id
}

func (c *client) Fit(ctx context.Context, global fl.ParameterSet) (fl.ClientUpdate, error) {
	var update fl.ClientUpdate
	if err := c.call(ctx, http.MethodPost, "/fit", &parametersReq{Parameters: global}, &update); err != nil {
		return fl.ClientUpdate{}, err
	}

	return update, nil
}

func (c *client) Evaluate(ctx context.Context, global fl.ParameterSet) (fl.EvaluationResult, error) {
	var res fl.EvaluationResult
	if err := c.call(ctx, http.MethodPost, "/evaluate", &parametersReq{Parameters: global}, &res); err != nil {
		return fl.EvaluationResult{}, err
	}

	return res, nil
}

func (c *client) Parameters(ctx context.Context) (fl.ParameterSet, error) {
	var ps fl.ParameterSet
	if err := c.call(ctx, http.MethodGet, "/parameters", nil, &ps); err != nil {
		return fl.ParameterSet{}, err
	}

	return ps, ps.Validate()
}

func (c *client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := codec.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", codec.ContentType)
	}
	req.Header.Set("Accept", codec.ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, data)
	}

	return codec.Unmarshal(data, out)
}

// statusError maps the trainer's error responses onto domain errors.
func statusError(status int, body []byte) error {
	var res struct {
		Err string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &res); err == nil && res.Err != "" {
		msg = res.Err
	}

	switch status {
	case http.StatusConflict:
		return fl.KindError(fl.FailureShapeMismatch, msg)
	case http.StatusUnprocessableEntity:
		return fl.KindError(fl.FailureNoLocalData, msg)
	default:
		return fmt.Errorf("unexpected status %d: %s", status, msg)
	}
}
