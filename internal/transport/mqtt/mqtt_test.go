package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freyr-engine/freyr/internal/orchestrator"
)

func TestNewRejectsMissingBroker(t *testing.T) {
	_, err := New(Config{Topic: "freyr/cmd"}, orchestrator.NewCommandQueue())
	assert.Error(t, err)
}

func TestNewRejectsMissingTopic(t *testing.T) {
	_, err := New(Config{Broker: "tcp://localhost:1883"}, orchestrator.NewCommandQueue())
	assert.Error(t, err)
}

func TestNewDefaultsClientIDAndTimeouts(t *testing.T) {
	tr, err := New(Config{Broker: "tcp://localhost:1883", Topic: "freyr/cmd"}, orchestrator.NewCommandQueue())
	require.NoError(t, err)
	assert.NotEmpty(t, tr.cfg.ClientID)
	assert.Equal(t, byte(0), tr.cfg.QoS)
	assert.Equal(t, 60*time.Second, tr.cfg.KeepAlive)
	assert.Equal(t, 30*time.Second, tr.cfg.ConnectTimeout)
}

func TestOnMessageEnqueuesPayloadAsCommand(t *testing.T) {
	q := orchestrator.NewCommandQueue()
	tr, err := New(Config{Broker: "tcp://localhost:1883", Topic: "freyr/cmd"}, q)
	require.NoError(t, err)

	tr.onMessage(nil, fakeMessage{topic: "freyr/cmd", payload: []byte("status")})
	assert.Equal(t, 1, q.Len())

	items := q.Drain()
	require.Len(t, items, 1)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (f fakeMessage) Duplicate() bool   { return false }
func (f fakeMessage) Qos() byte         { return 0 }
func (f fakeMessage) Retained() bool    { return false }
func (f fakeMessage) Topic() string     { return f.topic }
func (f fakeMessage) MessageID() uint16 { return 0 }
func (f fakeMessage) Payload() []byte   { return f.payload }
func (f fakeMessage) Ack()              {}
