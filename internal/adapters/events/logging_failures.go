package events

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// LoggingFailurePublisher is the failure stream used when no Kafka brokers
// are configured. Exhausted jobs still surface somewhere an operator reads.
type LoggingFailurePublisher struct {
	logger *slog.Logger
}

func NewLoggingFailurePublisher(logger *slog.Logger) *LoggingFailurePublisher {
	return &LoggingFailurePublisher{logger: logger}
}

func (p *LoggingFailurePublisher) Publish(ctx context.Context, kind ports.JobKind, jobID uuid.UUID, payload []byte, reason string) error {
	p.logger.ErrorContext(ctx, "job dead-lettered",
		"module", "events.failures",
		"layer", "adapter",
		"operation", "publish_failure",
		"outcome", "failure",
		"job_kind", string(kind),
		"job_id", jobID,
		"reason", reason,
		"payload", string(payload),
	)
	return nil
}
