package mqtt_test

import (
	"testing"

	"github.com/absmach/flock/pkg/mqtt"
	"github.com/absmach/flock/pkg/mqtt/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshal(t *testing.T) {
	type msg struct {
		ID    string  `json:"id"`
		Value float64 `json:"value"`
	}

	for _, enc := range []mqtt.Encoding{mqtt.JSON, mqtt.CBOR} {
		data, err := mqtt.Marshal(enc, msg{ID: "a", Value: 0.5})
		require.NoError(t, err)

		var got msg
		require.NoError(t, mqtt.Unmarshal(enc, data, &got))
		assert.Equal(t, msg{ID: "a", Value: 0.5}, got)
	}

	raw := []byte{1, 2, 3}
	data, err := mqtt.Marshal(mqtt.JSON, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestMatchTopic(t *testing.T) {
	cases := []struct {
		pattern string
		topic   string
		match   bool
	}{
		{"m/d/c/ch/control/participant/+", "m/d/c/ch/control/participant/create", true},
		{"m/d/c/ch/fl/#", "m/d/c/ch/fl/participants/p1/requests", true},
		{"m/d/c/ch/fl/+", "m/d/c/ch/fl/participants/p1", false},
		{"a/b", "a/b/c", false},
		{"a/b/c", "a/b", false},
		{"#", "anything/at/all", true},
	}

	for _, tc := range cases {
		t.Run(tc.pattern+" "+tc.topic, func(t *testing.T) {
			assert.Equal(t, tc.match, mocks.MatchTopic(tc.pattern, tc.topic))
		})
	}
}
