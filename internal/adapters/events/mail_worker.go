package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// MailWorkerConfig bounds the notification pipeline.
type MailWorkerConfig struct {
	Interval    time.Duration
	BatchSize   int
	ClaimTTL    time.Duration
	Concurrency int
	BackoffBase time.Duration
}

func (c *MailWorkerConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = time.Minute
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 5 * time.Second
	}
}

// MailWorker drains the mail queue and renders the share notifications.
type MailWorker struct {
	runner *queueRunner
	logger *slog.Logger
	mailer ports.Mailer
}

func NewMailWorker(
	logger *slog.Logger,
	queue ports.JobQueue,
	failures ports.FailurePublisher,
	mailer ports.Mailer,
	cfg MailWorkerConfig,
) *MailWorker {
	cfg.applyDefaults()
	w := &MailWorker{
		logger: logger,
		mailer: mailer,
	}
	w.runner = &queueRunner{
		logger:      logger,
		queue:       queue,
		failures:    failures,
		kind:        ports.JobKindMail,
		process:     w.process,
		interval:    cfg.Interval,
		batchSize:   cfg.BatchSize,
		claimTTL:    cfg.ClaimTTL,
		concurrency: cfg.Concurrency,
		backoffBase: cfg.BackoffBase,
	}
	return w
}

// Run executes the claim loop until context cancellation.
func (w *MailWorker) Run(ctx context.Context) error {
	return w.runner.Run(ctx)
}

func (w *MailWorker) process(ctx context.Context, job ports.Job) error {
	var request ports.MailRequested
	if err := json.Unmarshal(job.Payload, &request); err != nil {
		return permanent(fmt.Errorf("decode mail payload: %w", err))
	}
	if request.GranteeEmail == "" {
		return permanent(fmt.Errorf("mail payload has no recipient"))
	}

	msg, err := renderMail(request)
	if err != nil {
		return permanent(err)
	}
	if err := w.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	w.logger.InfoContext(ctx, "notification sent",
		"module", "events.mail_worker",
		"layer", "adapter",
		"operation", "process_mail",
		"outcome", "success",
		"mail_operation", string(request.Operation),
		"grantee_email", request.GranteeEmail,
	)
	return nil
}

func renderMail(request ports.MailRequested) (ports.MailMessage, error) {
	granter := request.GranterName
	if granter == "" {
		granter = request.GranterEmail
	}

	switch request.Operation {
	case ports.MailShared:
		body := fmt.Sprintf(
			"Hello,\n\n%s (%s) shared a file with you.\n\nDownload link:\n%s\n\nThe link stays valid until the owner revokes your access.\n",
			granter, request.GranterEmail, request.ShareableURL,
		)
		return ports.MailMessage{
			To:      request.GranteeEmail,
			Subject: fmt.Sprintf("%s shared a file with you", granter),
			Body:    body,
		}, nil
	case ports.MailRevoked:
		body := fmt.Sprintf(
			"Hello,\n\n%s (%s) revoked your access to a shared file. Any previously issued links no longer work.\n",
			granter, request.GranterEmail,
		)
		return ports.MailMessage{
			To:      request.GranteeEmail,
			Subject: fmt.Sprintf("%s revoked your file access", granter),
			Body:    body,
		}, nil
	default:
		return ports.MailMessage{}, fmt.Errorf("unknown mail operation %q", request.Operation)
	}
}
