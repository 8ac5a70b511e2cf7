package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"thermostat_relay/internal/thermostat"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

var errMQTTTimeout = errors.New("mqtt publish timeout")

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes the status document, retained, so late subscribers see the latest state.
type MQTTSink struct {
	client mqttClient
	topic  string
}

// NewMQTTSink connects to broker and returns a sink publishing on topic.
func NewMQTTSink(broker, clientID, topic string) (*MQTTSink, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return &MQTTSink{client: client, topic: topic}, nil
}

func (s *MQTTSink) Publish(ctx context.Context, st thermostat.Status) error {
	payload, err := Encode(st)
	if err != nil {
		return err
	}

	timeout := mqttPublishTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	token := s.client.Publish(s.topic, 1, true, payload)
	if !token.WaitTimeout(timeout) {
		return errMQTTTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

// Close disconnects, allowing one second for in-flight messages.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(1000)
	return nil
}
