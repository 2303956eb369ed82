// Package mqtt reaches trainers through request and response topics.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/absmach/flock/coordinator"
	"github.com/absmach/flock/pkg/fl"
	pkgmqtt "github.com/absmach/flock/pkg/mqtt"
	"github.com/absmach/flock/pkg/participant"
	"github.com/google/uuid"
)

var errMissingResult = errors.New("response carries no result")

// Dialer multiplexes calls to every MQTT participant over one response
// subscription.
type Dialer struct {
	pubsub    pkgmqtt.PubSub
	domainID  string
	channelID string
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]chan fl.Response
}

var _ coordinator.Dialer = (*Dialer)(nil)

// NewDialer subscribes to the coordinator response topic.
func NewDialer(ctx context.Context, pubsub pkgmqtt.PubSub, domainID, channelID string, logger *slog.Logger) (*Dialer, error) {
	d := &Dialer{
		pubsub:    pubsub,
		domainID:  domainID,
		channelID: channelID,
		logger:    logger,
		pending:   make(map[string]chan fl.Response),
	}
	if err := pubsub.Subscribe(ctx, fl.ResponseTopic(domainID, channelID), d.handleResponse); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Dialer) Dial(_ context.Context, p participant.Participant) (coordinator.Client, error) {
	return &client{id: p.ID, dialer: d}, nil
}

// Close drops the response subscription.
func (d *Dialer) Close(ctx context.Context) error {
	return d.pubsub.Unsubscribe(ctx, fl.ResponseTopic(d.domainID, d.channelID))
}

func (d *Dialer) handleResponse(_ string, payload []byte) error {
	var res fl.Response
	if err := pkgmqtt.Unmarshal(pkgmqtt.CBOR, payload, &res); err != nil {
		return err
	}

	d.mu.Lock()
	ch, ok := d.pending[res.ID]
	delete(d.pending, res.ID)
	d.mu.Unlock()

	if !ok {
		d.logger.Debug("dropping response without pending request", slog.String("request_id", res.ID))

		return nil
	}
	ch <- res

	return nil
}

func (d *Dialer) call(ctx context.Context, participantID string, req fl.Request) (fl.Response, error) {
	req.ID = uuid.NewString()
	ch := make(chan fl.Response, 1)

	d.mu.Lock()
	d.pending[req.ID] = ch
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.pending, req.ID)
		d.mu.Unlock()
	}()

	payload, err := pkgmqtt.Marshal(pkgmqtt.CBOR, req)
	if err != nil {
		return fl.Response{}, err
	}
	if err := d.pubsub.Publish(ctx, fl.RequestTopic(d.domainID, d.channelID, participantID), payload); err != nil {
		return fl.Response{}, err
	}

	select {
	case <-ctx.Done():
		return fl.Response{}, ctx.Err()
	case res := <-ch:
		if err := res.Err(); err != nil {
			return fl.Response{}, err
		}

		return res, nil
	}
}

type client struct {
	id     string
	dialer *Dialer
}

func (c *client) ID() string {
	return c.id
}

func (c *client) Fit(ctx context.Context, global fl.ParameterSet) (fl.ClientUpdate, error) {
	res, err := c.dialer.call(ctx, c.id, fl.Request{Method: fl.MethodFit, Parameters: global})
	if err != nil {
		return fl.ClientUpdate{}, err
	}
	if res.Update == nil {
		return fl.ClientUpdate{}, fmt.Errorf("%s: %w", fl.MethodFit, errMissingResult)
	}

	return *res.Update, nil
}

func (c *client) Evaluate(ctx context.Context, global fl.ParameterSet) (fl.EvaluationResult, error) {
	res, err := c.dialer.call(ctx, c.id, fl.Request{Method: fl.MethodEvaluate, Parameters: global})
	if err != nil {
		return fl.EvaluationResult{}, err
	}
	if res.Evaluation == nil {
		return fl.EvaluationResult{}, fmt.Errorf("%s: %w", fl.MethodEvaluate, errMissingResult)
	}

	return *res.Evaluation, nil
}

func (c *client) Parameters(ctx context.Context) (fl.ParameterSet, error) {
	res, err := c.dialer.call(ctx, c.id, fl.Request{Method: fl.MethodParameters})
	if err != nil {
		return fl.ParameterSet{}, err
	}
	if res.Parameters == nil {
		return fl.ParameterSet{}, fmt.Errorf("%s: %w", fl.MethodParameters, errMissingResult)
	}

	return *res.Parameters, nil
}
