package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/flock/pkg/fl"
	pkgmqtt "github.com/absmach/flock/pkg/mqtt"
)

var errUnknownMethod = errors.New("unknown request method")

type MQTTConfig struct {
	DomainID           string
	ChannelID          string
	Name               string
	Address            string
	LivelinessInterval time.Duration
}

// MQTTListener announces the participant to the coordinator and serves fit,
// evaluate and parameters requests received over MQTT.
type MQTTListener struct {
	svc    Service
	pubsub pkgmqtt.PubSub
	cfg    MQTTConfig
	logger *slog.Logger
}

func NewMQTTListener(svc Service, pubsub pkgmqtt.PubSub, cfg MQTTConfig, logger *slog.Logger) *MQTTListener {
	return &MQTTListener{
		svc:    svc,
		pubsub: pubsub,
		cfg:    cfg,
		logger: logger,
	}
}

// Run publishes discovery, subscribes to the request topic and sends liveness
// messages until ctx is done.
func (l *MQTTListener) Run(ctx context.Context) error {
	topic := l.requestTopic()
	if err := l.pubsub.Subscribe(ctx, topic, l.handleRequest(ctx)); err != nil {
		return fmt.Errorf("failed to subscribe to request topic: %w", err)
	}

	discovery := fmt.Sprintf(fl.DiscoveryTopicTemplate, l.cfg.DomainID, l.cfg.ChannelID)
	if err := l.pubsub.Publish(ctx, discovery, l.announcement("online")); err != nil {
		return errors.Join(errors.New("failed to publish discovery"), err)
	}

	l.logger.Info("Participant announced", slog.String("participant_id", l.svc.ID()), slog.String("topic", discovery))

	l.startLivelinessUpdates(ctx)

	return l.pubsub.Unsubscribe(context.Background(), topic)
}

func (l *MQTTListener) requestTopic() string {
	return fl.RequestTopic(l.cfg.DomainID, l.cfg.ChannelID, l.svc.ID())
}

func (l *MQTTListener) announcement(status string) fl.Announcement {
	return fl.Announcement{
		ParticipantID: l.svc.ID(),
		Name:          l.cfg.Name,
		Address:       l.cfg.Address,
		Status:        status,
	}
}

func (l *MQTTListener) startLivelinessUpdates(ctx context.Context) {
	interval := l.cfg.LivelinessInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	topic := fmt.Sprintf(fl.AliveTopicTemplate, l.cfg.DomainID, l.cfg.ChannelID)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping liveliness updates")

			return
		case <-ticker.C:
			if err := l.pubsub.Publish(ctx, topic, l.announcement("alive")); err != nil {
				l.logger.Error("failed to publish liveliness message", slog.Any("error", err))

				continue
			}

			l.logger.Debug("Published liveliness message", slog.String("topic", topic))
		}
	}
}

func (l *MQTTListener) handleRequest(ctx context.Context) pkgmqtt.Handler {
	return func(_ string, payload []byte) error {
		var req fl.Request
		if err := pkgmqtt.Unmarshal(pkgmqtt.CBOR, payload, &req); err != nil {
			return err
		}
		if req.ID == "" {
			return errors.New("request without id")
		}

		// Fit can take minutes; answer from a separate goroutine so the MQTT
		// client keeps delivering messages.
		go l.serve(ctx, req)

		return nil
	}
}

func (l *MQTTListener) serve(ctx context.Context, req fl.Request) {
	res := l.Dispatch(ctx, req)

	data, err := pkgmqtt.Marshal(pkgmqtt.CBOR, res)
	if err != nil {
		l.logger.Error("failed to encode response", slog.String("request_id", req.ID), slog.Any("error", err))

		return
	}

	topic := fl.ResponseTopic(l.cfg.DomainID, l.cfg.ChannelID)
	if err := l.pubsub.Publish(ctx, topic, data); err != nil {
		l.logger.Error("failed to publish response", slog.String("request_id", req.ID), slog.Any("error", err))
	}
}

// Dispatch runs req against the service and packs the outcome into a response.
func (l *MQTTListener) Dispatch(ctx context.Context, req fl.Request) fl.Response {
	res := fl.Response{ID: req.ID, ParticipantID: l.svc.ID()}

	var err error
	switch req.Method {
	case fl.MethodFit:
		var u fl.ClientUpdate
		if u, err = l.svc.Fit(ctx, req.Parameters); err == nil {
			res.Update = &u
		}
	case fl.MethodEvaluate:
		var e fl.EvaluationResult
		if e, err = l.svc.Evaluate(ctx, req.Parameters); err == nil {
			res.Evaluation = &e
		}
	case fl.MethodParameters:
		var ps fl.ParameterSet
		if ps, err = l.svc.Parameters(ctx); err == nil {
			res.Parameters = &ps
		}
	default:
		err = fmt.Errorf("%w: %q", errUnknownMethod, req.Method)
	}

	if err != nil {
		res.ErrorKind = fl.Classify(err)
		res.Error = err.Error()
		l.logger.Warn("Request failed", slog.String("request_id", req.ID), slog.String("method", string(req.Method)), slog.Any("error", err))
	}

	return res
}
