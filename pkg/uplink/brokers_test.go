package uplink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

// fakeMQTT embeds the interface so only the methods under test need bodies.
type fakeMQTT struct {
	mqtt.Client
	token        *fakeToken
	topic        string
	qos          byte
	payload      []byte
	disconnected bool
}

func (c *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.qos = qos
	c.payload = payload.([]byte)
	return c.token
}

func (c *fakeMQTT) Disconnect(quiesce uint) { c.disconnected = true }

func TestMQTT_Publish(t *testing.T) {
	c := &fakeMQTT{token: newToken(nil, true)}
	m := newMQTTWithClient(c, "canal/readings", time.Second)

	require.NoError(t, m.Publish(context.Background(), Payload{SensorID: "ESP32", PH: 7.1}))
	assert.Equal(t, "canal/readings", c.topic)
	assert.Equal(t, byte(1), c.qos)

	var got Payload
	require.NoError(t, json.Unmarshal(c.payload, &got))
	assert.Equal(t, "ESP32", got.SensorID)
	assert.Equal(t, 7.1, got.PH)

	require.NoError(t, m.Close())
	assert.True(t, c.disconnected)
}

func TestMQTT_PublishError(t *testing.T) {
	c := &fakeMQTT{token: newToken(errors.New("not connected"), true)}
	m := newMQTTWithClient(c, "t", time.Second)

	err := m.Publish(context.Background(), Payload{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMQTT_PublishTimeout(t *testing.T) {
	c := &fakeMQTT{token: newToken(nil, false)}
	m := newMQTTWithClient(c, "t", 20*time.Millisecond)

	err := m.Publish(context.Background(), Payload{})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestMQTT_PublishContextCancelled(t *testing.T) {
	c := &fakeMQTT{token: newToken(nil, false)}
	m := newMQTTWithClient(c, "t", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Publish(ctx, Payload{})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafka_Publish(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{w: w}

	ts := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, k.Publish(context.Background(), Payload{SensorID: "ESP32", TDS: 320, Timestamp: ts}))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("ESP32"), w.msgs[0].Key)
	assert.Equal(t, ts, w.msgs[0].Time)

	var got Payload
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, 320.0, got.TDS)

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafka_PublishError(t *testing.T) {
	k := &Kafka{w: &fakeWriter{err: errors.New("leader not available")}}
	err := k.Publish(context.Background(), Payload{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
