package publisher

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"thermostat_relay/internal/thermostat"
)

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink appends every snapshot to a topic, keyed by heater name so one
// heater's history stays on one partition.
type KafkaSink struct {
	writer kafkaMessageWriter
}

// NewKafkaSink returns a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}}
}

func (s *KafkaSink) Publish(ctx context.Context, st thermostat.Status) error {
	value, err := Encode(st)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(st.InternalState.HeaterName),
		Value: value,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error { return s.writer.Close() }
