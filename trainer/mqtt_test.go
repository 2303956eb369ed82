package trainer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/absmach/flock/pkg/fl"
	pkgmqtt "github.com/absmach/flock/pkg/mqtt"
	mqttmocks "github.com/absmach/flock/pkg/mqtt/mocks"
	"github.com/absmach/flock/trainer"
	"github.com/absmach/flock/trainer/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	domainID  = "domain"
	channelID = "channel"
)

func TestMQTTListenerServesRequests(t *testing.T) {
	svc := new(mocks.Service)
	svc.On("ID").Return("p1")
	global := fl.ParameterSet{Tensors: []fl.Tensor{{Name: "w", Shape: []int{1}, Values: []float64{1}}}}
	update := fl.ClientUpdate{ParticipantID: "p1", Parameters: global, SampleCount: 10}
	svc.On("Fit", mock.Anything, global).Return(update, nil)

	broker := mqttmocks.NewBroker(pkgmqtt.JSON)
	l := trainer.NewMQTTListener(svc, broker, trainer.MQTTConfig{
		DomainID:           domainID,
		ChannelID:          channelID,
		Name:               "alpha",
		LivelinessInterval: 10 * time.Millisecond,
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	requestTopic := fl.RequestTopic(domainID, channelID, "p1")
	require.Eventually(t, func() bool { return broker.Subscribed(requestTopic) }, time.Second, 5*time.Millisecond)

	discovery := broker.Published(fmt.Sprintf(fl.DiscoveryTopicTemplate, domainID, channelID))
	require.Eventually(t, func() bool {
		discovery = broker.Published(fmt.Sprintf(fl.DiscoveryTopicTemplate, domainID, channelID))

		return len(discovery) == 1
	}, time.Second, 5*time.Millisecond)
	var ann fl.Announcement
	require.NoError(t, json.Unmarshal(discovery[0], &ann))
	assert.Equal(t, fl.Announcement{ParticipantID: "p1", Name: "alpha", Status: "online"}, ann)

	req, err := pkgmqtt.Marshal(pkgmqtt.CBOR, fl.Request{ID: "r1", Method: fl.MethodFit, Parameters: global})
	require.NoError(t, err)
	require.NoError(t, broker.Publish(ctx, requestTopic, req))

	responseTopic := fl.ResponseTopic(domainID, channelID)
	require.Eventually(t, func() bool { return len(broker.Published(responseTopic)) == 1 }, time.Second, 5*time.Millisecond)

	var res fl.Response
	require.NoError(t, pkgmqtt.Unmarshal(pkgmqtt.CBOR, broker.Published(responseTopic)[0], &res))
	assert.Equal(t, "r1", res.ID)
	require.NoError(t, res.Err())
	require.NotNil(t, res.Update)
	assert.Equal(t, update, *res.Update)

	require.Eventually(t, func() bool {
		return len(broker.Published(fmt.Sprintf(fl.AliveTopicTemplate, domainID, channelID))) > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, broker.Subscribed(requestTopic))
}

func TestMQTTListenerDispatchErrors(t *testing.T) {
	svc := new(mocks.Service)
	svc.On("ID").Return("p1")
	svc.On("Evaluate", mock.Anything, mock.Anything).Return(fl.EvaluationResult{}, fl.ErrNoLocalData)

	l := trainer.NewMQTTListener(svc, mqttmocks.NewBroker(pkgmqtt.JSON), trainer.MQTTConfig{}, slog.Default())

	cases := []struct {
		desc string
		req  fl.Request
		kind fl.FailureKind
	}{
		{
			desc: "service error keeps its kind",
			req:  fl.Request{ID: "r1", Method: fl.MethodEvaluate},
			kind: fl.FailureNoLocalData,
		},
		{
			desc: "unknown method",
			req:  fl.Request{ID: "r2", Method: "train-harder"},
			kind: fl.FailureTransport,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			res := l.Dispatch(context.Background(), tc.req)
			assert.Equal(t, tc.req.ID, res.ID)
			assert.Equal(t, tc.kind, res.ErrorKind)
			assert.Error(t, res.Err())
		})
	}
}
