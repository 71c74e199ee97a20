package events

import (
	"context"
	"fmt"
	"time"

	"iot-dashboard/entities"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes stored measures to a topic, keyed by sensor id so
// that the readings of one sensor stay ordered within a partition. Writes
// are asynchronous; delivery failures are logged when the broker answers.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   logDelivery(topic),
	}
	logrus.WithFields(logrus.Fields{"brokers": brokers, "topic": topic}).Info("kafka publisher enabled")
	return &KafkaPublisher{writer: w, topic: topic}
}

func logDelivery(topic string) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"topic": topic, "count": len(msgs)}).Warn("kafka delivery failed")
		}
	}
}

func message(m entities.Measure) (kafka.Message, error) {
	value, err := json.Marshal(m)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding measure %s: %w", m.ID, err)
	}
	return kafka.Message{
		Key:   []byte(m.SensorID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(m.Type)},
		},
	}, nil
}

func (k *KafkaPublisher) PublishMeasure(ctx context.Context, m entities.Measure) error {
	return k.PublishMeasures(ctx, []entities.Measure{m})
}

// PublishMeasures sends all measures in a single write.
func (k *KafkaPublisher) PublishMeasures(ctx context.Context, ms []entities.Measure) error {
	msgs := make([]kafka.Message, 0, len(ms))
	for _, m := range ms {
		msg, err := message(m)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publishing %d measures to %s: %w", len(msgs), k.topic, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
