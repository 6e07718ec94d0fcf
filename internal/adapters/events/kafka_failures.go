package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// KafkaFailurePublisher writes exhausted jobs to an operator-visible topic.
// A job only lands here after its whole retry budget is spent, so volume is
// low and every record deserves a human look.
type KafkaFailurePublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaFailurePublisher(brokers []string, topic string) (*KafkaFailurePublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka failure publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka failure publisher requires a topic")
	}
	return &KafkaFailurePublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic: topic,
	}, nil
}

type failureRecord struct {
	JobID    uuid.UUID       `json:"job_id"`
	Kind     string          `json:"kind"`
	Reason   string          `json:"reason"`
	Payload  json.RawMessage `json:"payload"`
	FailedAt time.Time       `json:"failed_at"`
}

func (p *KafkaFailurePublisher) Publish(ctx context.Context, kind ports.JobKind, jobID uuid.UUID, payload []byte, reason string) error {
	record, err := json.Marshal(failureRecord{
		JobID:    jobID,
		Kind:     string(kind),
		Reason:   reason,
		Payload:  json.RawMessage(payload),
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(jobID.String()),
		Value: record,
	})
}

func (p *KafkaFailurePublisher) Close() error {
	return p.writer.Close()
}
