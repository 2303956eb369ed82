package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/flock/pkg/codec"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connTimeout    = 10
	reconnTimeout  = 1
	disconnTimeout = 250
)

var (
	errPublishTimeout     = errors.New("failed to publish due to timeout reached")
	errSubscribeTimeout   = errors.New("failed to subscribe due to timeout reached")
	errUnsubscribeTimeout = errors.New("failed to unsubscribe due to timeout reached")
	errEmptyTopic         = errors.New("empty topic")
	errEmptyID            = errors.New("empty ID")

	aliveTopicTemplate = "m/%s/c/%s/control/participant/alive"
	lwtPayloadTemplate = `{"status":"offline","participant_id":"%s"}`
)

// Handler receives the raw payload of a message published on topic.
type Handler func(topic string, payload []byte) error

type PubSub interface {
	Publish(ctx context.Context, topic string, msg any) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Unsubscribe(ctx context.Context, topic string) error
	Disconnect(ctx context.Context) error
}

// Encoding selects how Publish serialises messages that are not already bytes.
type Encoding uint8

const (
	JSON Encoding = iota
	CBOR
)

type Config struct {
	URL       string
	QoS       byte
	ID        string
	Username  string
	Password  string
	DomainID  string
	ChannelID string
	Timeout   time.Duration
	Encoding  Encoding
}

type pubsub struct {
	client   mqtt.Client
	qos      byte
	timeout  time.Duration
	encoding Encoding
	logger   *slog.Logger
}

func NewPubSub(cfg Config, logger *slog.Logger) (PubSub, error) {
	if cfg.ID == "" {
		return nil, errEmptyID
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &pubsub{
		client:   client,
		qos:      cfg.QoS,
		timeout:  cfg.Timeout,
		encoding: cfg.Encoding,
		logger:   logger,
	}, nil
}

// Marshal serialises msg with the given encoding. Byte slices pass through.
func Marshal(enc Encoding, msg any) ([]byte, error) {
	if b, ok := msg.([]byte); ok {
		return b, nil
	}
	if enc == CBOR {
		return codec.Marshal(msg)
	}

	return json.Marshal(msg)
}

// Unmarshal decodes payload, trying CBOR first when enc is CBOR.
func Unmarshal(enc Encoding, payload []byte, v any) error {
	if enc == CBOR {
		return codec.Unmarshal(payload, v)
	}

	return json.Unmarshal(payload, v)
}

func (ps *pubsub) Publish(ctx context.Context, topic string, msg any) error {
	if topic == "" {
		return errEmptyTopic
	}

	data, err := Marshal(ps.encoding, msg)
	if err != nil {
		return err
	}

	token := ps.client.Publish(topic, ps.qos, false, data)
	if token.Error() != nil {
		return token.Error()
	}

	if ok := token.WaitTimeout(ps.timeout); !ok {
		return errPublishTimeout
	}

	return nil
}

func (ps *pubsub) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if topic == "" {
		return errEmptyTopic
	}

	token := ps.client.Subscribe(topic, ps.qos, ps.mqttHandler(handler))
	if token.Error() != nil {
		return token.Error()
	}
	if ok := token.WaitTimeout(ps.timeout); !ok {
		return errSubscribeTimeout
	}

	return nil
}

func (ps *pubsub) Unsubscribe(ctx context.Context, topic string) error {
	if topic == "" {
		return errEmptyTopic
	}

	token := ps.client.Unsubscribe(topic)
	if token.Error() != nil {
		return token.Error()
	}

	if ok := token.WaitTimeout(ps.timeout); !ok {
		return errUnsubscribeTimeout
	}

	return nil
}

func (ps *pubsub) Disconnect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		ps.client.Disconnect(disconnTimeout)

		return nil
	}
}

func newClient(cfg Config, logger *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connTimeout * time.Second).
		SetMaxReconnectInterval(reconnTimeout * time.Minute)

	if cfg.ChannelID != "" {
		topic := fmt.Sprintf(aliveTopicTemplate, cfg.DomainID, cfg.ChannelID)
		opts.SetWill(topic, fmt.Sprintf(lwtPayloadTemplate, cfg.ID), 0, false)
	}

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("MQTT connection established")
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		args := []any{}
		if err != nil {
			args = append(args, slog.Any("error", err))
		}

		logger.Info("MQTT connection lost", args...)
	})

	opts.SetReconnectingHandler(func(_ mqtt.Client, options *mqtt.ClientOptions) {
		args := []any{}
		if options != nil {
			args = append(args,
				slog.String("client_id", options.ClientID),
				slog.String("username", options.Username),
			)
		}

		logger.Info("MQTT reconnecting", args...)
	})

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if token.Error() != nil {
		return nil, errors.Join(errors.New("failed to connect to MQTT broker"), token.Error())
	}

	if ok := token.WaitTimeout(cfg.Timeout); !ok {
		return nil, errors.New("timeout reached while connecting to MQTT broker")
	}

	return client, nil
}

func (ps *pubsub) mqttHandler(h Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, m mqtt.Message) {
		if err := h(m.Topic(), m.Payload()); err != nil {
			ps.logger.Warn("Failed to handle MQTT message", slog.String("topic", m.Topic()), slog.Any("error", err))
		}

		m.Ack()
	}
}
