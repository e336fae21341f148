package events

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"
)

type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka events driver needs events.brokers")
	}
	return &Kafka{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}, nil
}

// Publish keys messages by entity id so one entity's events stay ordered.
func (k *Kafka) Publish(ctx context.Context, e Event) error {
	value, err := encode(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, message(e, value))
}

func message(e Event, value []byte) kafka.Message {
	return kafka.Message{
		Key:   []byte(e.EntityID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
