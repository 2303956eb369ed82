package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pkgerrors "github.com/absmach/flock/pkg/errors"
	"github.com/absmach/flock/pkg/fl"
	"github.com/absmach/flock/pkg/mqtt"
	"github.com/absmach/flock/pkg/participant"
)

const statusOffline = "offline"

var errEmptyParticipantID = errors.New("participant id is empty")

func (svc *service) handleControl(ctx context.Context) mqtt.Handler {
	discovery := fmt.Sprintf(fl.DiscoveryTopicTemplate, svc.cfg.DomainID, svc.cfg.ChannelID)
	alive := fmt.Sprintf(fl.AliveTopicTemplate, svc.cfg.DomainID, svc.cfg.ChannelID)

	return func(topic string, payload []byte) error {
		if topic != discovery && topic != alive {
			return nil
		}

		var ann fl.Announcement
		if err := json.Unmarshal(payload, &ann); err != nil {
			return err
		}
		if ann.ParticipantID == "" {
			return errEmptyParticipantID
		}

		if err := svc.announce(ctx, ann); err != nil {
			svc.logger.Warn("failed to track participant",
				slog.String("participant_id", ann.ParticipantID),
				slog.Any("error", err),
			)

			return err
		}
		if topic == discovery {
			svc.logger.Info("participant registered", slog.String("participant_id", ann.ParticipantID))
		}

		return nil
	}
}

// announce creates or refreshes the registry record of ann's sender.
func (svc *service) announce(ctx context.Context, ann fl.Announcement) error {
	now := time.Now()

	p, err := svc.participants.Get(ctx, ann.ParticipantID)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		p = participant.Participant{ID: ann.ParticipantID, RegisteredAt: now}
		svc.apply(&p, ann, now)

		return svc.participants.Create(ctx, p)
	case err != nil:
		return err
	}

	svc.apply(&p, ann, now)

	return svc.participants.Update(ctx, p)
}

func (svc *service) apply(p *participant.Participant, ann fl.Announcement, now time.Time) {
	if ann.Name != "" {
		p.Name = ann.Name
	}
	if ann.Address != "" {
		p.Address = ann.Address
	}
	p.Transport = participant.TransportMQTT
	if strings.HasPrefix(p.Address, "http://") || strings.HasPrefix(p.Address, "https://") {
		p.Transport = participant.TransportHTTP
	}

	if ann.Status == statusOffline {
		p.AliveHistory = nil
		p.Alive = false

		return
	}
	p.Heartbeat(now)
}

type mqttNotifier struct {
	pubsub mqtt.PubSub
	topic  string
}

// NewMQTTNotifier publishes round notices on the rounds topic.
func NewMQTTNotifier(pubsub mqtt.PubSub, domainID, channelID string) Notifier {
	return &mqttNotifier{
		pubsub: pubsub,
		topic:  fmt.Sprintf(fl.RoundsTopicTemplate, domainID, channelID),
	}
}

func (n *mqttNotifier) Notify(ctx context.Context, notice fl.RoundNotice) error {
	return n.pubsub.Publish(ctx, n.topic, notice)
}
