package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the queues use.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// KafkaQueue publishes each job as one message keyed by the reservation, so a
// booking's jobs stay ordered on one partition.
type KafkaQueue struct {
	writer MessageWriter
	logger *slog.Logger
}

func NewKafkaQueue(writer MessageWriter, logger *slog.Logger) *KafkaQueue {
	return &KafkaQueue{writer: writer, logger: logger}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, job shared.Job) error {
	msg, err := toMessage(ctx, uuid.NewString(), job.Type, job.Key, job.Payload)
	if err != nil {
		return err
	}
	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		return errs.Wrapf(err, "publish %s", job.Type)
	}
	q.logger.Debug("job published", "type", job.Type, "key", job.Key)
	return nil
}

func toMessage(ctx context.Context, eventID, jobType, key string, payload any) (kafka.Message, error) {
	var value []byte
	switch p := payload.(type) {
	case []byte:
		value = p
	case json.RawMessage:
		value = p
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return kafka.Message{}, errs.Wrap(err, "marshal job payload")
		}
		value = b
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte(jobType)},
		},
	}
	msg.Headers = injectTraceHeaders(ctx, msg.Headers)
	return msg, nil
}
