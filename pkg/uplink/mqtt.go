package uplink

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/aquanode/pkg/config"
	"go.uber.org/zap"
)

// mqttQoS is at-least-once; the backend de-duplicates by sensor and timestamp.
const mqttQoS = 1

// MQTT publishes payloads to a broker topic.
type MQTT struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// Ensure MQTT implements Publisher.
var _ Publisher = (*MQTT)(nil)

// NewMQTT connects to the broker. The client id defaults to the sensor id.
func NewMQTT(cfg config.MQTTConfig, sensorID string, timeout time.Duration, logger *zap.Logger) (*MQTT, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("uplink.mqtt").With(zap.String("broker", cfg.Broker))

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = sensorID
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("connection lost", zap.Error(err))
		}).
		SetOnConnectHandler(func(_ mqtt.Client) {
			log.Info("connected")
		})

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("%w: connecting to %s", ErrTimeout, cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", cfg.Broker, err)
	}

	return newMQTTWithClient(c, cfg.Topic, timeout), nil
}

func newMQTTWithClient(c mqtt.Client, topic string, timeout time.Duration) *MQTT {
	return &MQTT{client: c, topic: topic, timeout: timeout}
}

// Publish sends the payload and waits for the broker acknowledgement.
func (m *MQTT) Publish(ctx context.Context, p Payload) error {
	body, err := p.encode()
	if err != nil {
		return err
	}

	token := m.client.Publish(m.topic, mqttQoS, false, body)

	timeout := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("%w: publishing to %s", ErrTimeout, m.topic)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight work 250ms.
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
