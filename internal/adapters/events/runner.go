package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// permanentError marks a job failure that retrying cannot fix, such as a
// malformed payload or a file record that no longer exists. The runner
// drops these immediately instead of burning the retry budget.
type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// queueRunner is the shared claim loop behind the scan and mail workers.
// It claims due jobs in batches, fans them out to a bounded pool, and
// applies the exponential backoff and dead-letter policy uniformly.
type queueRunner struct {
	logger      *slog.Logger
	queue       ports.JobQueue
	failures    ports.FailurePublisher
	kind        ports.JobKind
	process     func(ctx context.Context, job ports.Job) error
	interval    time.Duration
	batchSize   int
	claimTTL    time.Duration
	concurrency int
	backoffBase time.Duration
}

func (r *queueRunner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.processOnce(ctx); err != nil {
			r.logger.ErrorContext(ctx, "queue iteration failed",
				"module", "events.runner",
				"layer", "adapter",
				"operation", "queue_process_once",
				"outcome", "failure",
				"job_kind", string(r.kind),
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *queueRunner) processOnce(ctx context.Context) error {
	claimToken := uuid.NewString()
	jobs, err := r.queue.ClaimDue(ctx, r.kind, r.batchSize, claimToken, time.Now().UTC().Add(r.claimTTL))
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(job ports.Job) {
			defer wg.Done()
			defer func() { <-sem }()
			r.runJob(ctx, job, claimToken)
		}(job)
	}
	wg.Wait()
	return nil
}

func (r *queueRunner) runJob(ctx context.Context, job ports.Job, claimToken string) {
	err := r.process(ctx, job)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		// Shutdown interrupted the run; hand the job back with its budget
		// intact. The release must outlive the canceled context.
		releaseCtx := context.WithoutCancel(ctx)
		if releaseErr := r.queue.Release(releaseCtx, job.JobID, claimToken); releaseErr != nil {
			r.logger.ErrorContext(releaseCtx, "failed to release interrupted job",
				"module", "events.runner",
				"layer", "adapter",
				"operation", "release_job",
				"outcome", "failure",
				"job_kind", string(r.kind),
				"job_id", job.JobID,
				"error", releaseErr,
			)
		}
		return
	}
	if err == nil {
		if completeErr := r.queue.Complete(ctx, job.JobID, claimToken); completeErr != nil {
			r.logger.ErrorContext(ctx, "failed to complete job",
				"module", "events.runner",
				"layer", "adapter",
				"operation", "complete_job",
				"outcome", "failure",
				"job_kind", string(r.kind),
				"job_id", job.JobID,
				"error", completeErr,
			)
		}
		return
	}

	var perm permanentError
	attempts := job.Attempts + 1
	exhausted := attempts >= job.MaxAttempts
	if errors.As(err, &perm) || exhausted {
		r.deadLetter(ctx, job, claimToken, err)
		return
	}

	next := time.Now().UTC().Add(r.backoff(job.Attempts))
	r.logger.WarnContext(ctx, "job failed; retry scheduled",
		"module", "events.runner",
		"layer", "adapter",
		"operation", "run_job",
		"outcome", "failure",
		"job_kind", string(r.kind),
		"job_id", job.JobID,
		"attempts", attempts,
		"max_attempts", job.MaxAttempts,
		"next_run_at", next,
		"error", err,
	)
	if rescheduleErr := r.queue.Reschedule(ctx, job.JobID, claimToken, err.Error(), next); rescheduleErr != nil {
		r.logger.ErrorContext(ctx, "failed to reschedule job",
			"module", "events.runner",
			"layer", "adapter",
			"operation", "reschedule_job",
			"outcome", "failure",
			"job_kind", string(r.kind),
			"job_id", job.JobID,
			"error", rescheduleErr,
		)
	}
}

func (r *queueRunner) deadLetter(ctx context.Context, job ports.Job, claimToken string, cause error) {
	r.logger.ErrorContext(ctx, "job exhausted; moved to failure stream",
		"module", "events.runner",
		"layer", "adapter",
		"operation", "dead_letter_job",
		"outcome", "failure",
		"job_kind", string(r.kind),
		"job_id", job.JobID,
		"attempts", job.Attempts+1,
		"error", cause,
	)
	if publishErr := r.failures.Publish(ctx, r.kind, job.JobID, job.Payload, cause.Error()); publishErr != nil {
		// Leave the job claimed; the claim TTL will release it and the next
		// runner gets another chance to record the failure.
		r.logger.ErrorContext(ctx, "failed to publish to failure stream",
			"module", "events.runner",
			"layer", "adapter",
			"operation", "dead_letter_job",
			"outcome", "failure",
			"job_kind", string(r.kind),
			"job_id", job.JobID,
			"error", publishErr,
		)
		return
	}
	if completeErr := r.queue.Complete(ctx, job.JobID, claimToken); completeErr != nil {
		r.logger.ErrorContext(ctx, "failed to remove exhausted job",
			"module", "events.runner",
			"layer", "adapter",
			"operation", "dead_letter_job",
			"outcome", "failure",
			"job_kind", string(r.kind),
			"job_id", job.JobID,
			"error", completeErr,
		)
	}
}

// backoff doubles per completed attempt starting from the configured base.
func (r *queueRunner) backoff(completedAttempts int) time.Duration {
	delay := r.backoffBase
	for i := 0; i < completedAttempts; i++ {
		delay *= 2
	}
	return delay
}
