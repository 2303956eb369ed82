package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/absmach/flock/pkg/mqtt"
	"github.com/stretchr/testify/mock"
)

var (
	_ mqtt.PubSub = (*PubSub)(nil)
	_ mqtt.PubSub = (*Broker)(nil)
)

// PubSub is a testify mock of mqtt.PubSub.
type PubSub struct {
	mock.Mock
}

func (m *PubSub) Publish(ctx context.Context, topic string, msg any) error {
	args := m.Called(ctx, topic, msg)

	return args.Error(0)
}

func (m *PubSub) Subscribe(ctx context.Context, topic string, handler mqtt.Handler) error {
	args := m.Called(ctx, topic, handler)

	return args.Error(0)
}

func (m *PubSub) Unsubscribe(ctx context.Context, topic string) error {
	args := m.Called(ctx, topic)

	return args.Error(0)
}

func (m *PubSub) Disconnect(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

// Broker is an in-memory pubsub that delivers every publish synchronously to
// matching subscribers, honouring + and # wildcards.
type Broker struct {
	mu         sync.RWMutex
	encoding   mqtt.Encoding
	subscribed map[string]mqtt.Handler
	published  map[string][][]byte
}

func NewBroker(enc mqtt.Encoding) *Broker {
	return &Broker{
		encoding:   enc,
		subscribed: make(map[string]mqtt.Handler),
		published:  make(map[string][][]byte),
	}
}

func (b *Broker) Publish(_ context.Context, topic string, msg any) error {
	data, err := mqtt.Marshal(b.encoding, msg)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.published[topic] = append(b.published[topic], data)
	var handlers []mqtt.Handler
	for pattern, h := range b.subscribed {
		if MatchTopic(pattern, topic) {
			handlers = append(handlers, h)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		if err := h(topic, data); err != nil {
			return err
		}
	}

	return nil
}

func (b *Broker) Subscribe(_ context.Context, topic string, handler mqtt.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribed[topic] = handler

	return nil
}

func (b *Broker) Unsubscribe(_ context.Context, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribed, topic)

	return nil
}

func (b *Broker) Disconnect(context.Context) error {
	return nil
}

// Published returns the payloads published on topic so far.
func (b *Broker) Published(topic string) [][]byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([][]byte(nil), b.published[topic]...)
}

func (b *Broker) Subscribed(topic string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribed[topic]

	return ok
}

func MatchTopic(pattern, topic string) bool {
	if pattern == "#" || pattern == topic {
		return true
	}

	pp := strings.Split(pattern, "/")
	tp := strings.Split(topic, "/")
	for i, part := range pp {
		if part == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if part != "+" && part != tp[i] {
			return false
		}
	}

	return len(pp) == len(tp)
}
