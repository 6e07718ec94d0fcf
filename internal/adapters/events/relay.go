package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// Relay bridges the ephemeral pub/sub channel into the durable job queue.
// Everything after the relay is at-least-once; everything before it is
// at-most-once. Messages that arrive while no relay is running are lost,
// which is the accepted delivery gap of the pub/sub hop.
type Relay struct {
	logger      *slog.Logger
	subscriber  ports.EventSubscriber
	queue       ports.JobQueue
	maxAttempts int
}

func NewRelay(logger *slog.Logger, subscriber ports.EventSubscriber, queue ports.JobQueue, maxAttempts int) *Relay {
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	return &Relay{
		logger:      logger,
		subscriber:  subscriber,
		queue:       queue,
		maxAttempts: maxAttempts,
	}
}

// Run blocks on the subscription until context cancellation.
func (r *Relay) Run(ctx context.Context) error {
	return r.subscriber.Subscribe(ctx, r.handle)
}

func (r *Relay) handle(ctx context.Context, payload []byte) {
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		r.logger.WarnContext(ctx, "discarding malformed event",
			"module", "events.relay",
			"layer", "adapter",
			"operation", "relay_event",
			"outcome", "failure",
			"error", err,
		)
		return
	}

	var kind ports.JobKind
	switch envelope.Name {
	case ports.EventVirusScan:
		kind = ports.JobKindScan
	case ports.EventMailSend:
		kind = ports.JobKindMail
	default:
		r.logger.WarnContext(ctx, "discarding event with unknown name",
			"module", "events.relay",
			"layer", "adapter",
			"operation", "relay_event",
			"outcome", "failure",
			"event_name", envelope.Name,
		)
		return
	}

	if err := r.queue.Enqueue(ctx, kind, payload, r.maxAttempts, time.Now().UTC()); err != nil {
		r.logger.ErrorContext(ctx, "failed to enqueue event",
			"module", "events.relay",
			"layer", "adapter",
			"operation", "relay_event",
			"outcome", "failure",
			"event_name", envelope.Name,
			"error", err,
		)
		return
	}

	r.logger.InfoContext(ctx, "event enqueued",
		"module", "events.relay",
		"layer", "adapter",
		"operation", "relay_event",
		"outcome", "success",
		"event_name", envelope.Name,
		"job_kind", string(kind),
	)
}
