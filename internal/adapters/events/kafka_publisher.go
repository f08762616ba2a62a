package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/viralforge/autopilot/internal/contracts"
)

// KafkaNotifier delivers workflow events to a single notifications topic,
// partitioned by the envelope's partition key (usually the channel id).
type KafkaNotifier struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka notifier requires at least one broker")
	}
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic: topic,
	}, nil
}

func (n *KafkaNotifier) Publish(ctx context.Context, event contracts.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Topic: n.topic,
		Key:   []byte(event.PartitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
