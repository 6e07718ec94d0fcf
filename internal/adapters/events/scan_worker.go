package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// ScanWorkerConfig bounds the scan pipeline. PollInterval and PollAttempts
// cap how long one job run waits on the external service before the run is
// declared failed and handed back to the queue.
type ScanWorkerConfig struct {
	Interval     time.Duration
	BatchSize    int
	ClaimTTL     time.Duration
	Concurrency  int
	BackoffBase  time.Duration
	PollInterval time.Duration
	PollAttempts int
}

func (c *ScanWorkerConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = 5 * time.Minute
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 5 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = 20
	}
	// A claim must outlive the worst-case poll loop, or a live job gets
	// reclaimed and scanned twice in parallel.
	if minTTL := c.PollInterval*time.Duration(c.PollAttempts) + time.Minute; c.ClaimTTL < minTTL {
		c.ClaimTTL = minTTL
	}
}

// ScanWorker drains the scan queue: it submits stored bytes to the external
// scan service, polls for the verdict, records it, and quarantines dangerous
// files by deleting their bytes while keeping the metadata row.
type ScanWorker struct {
	runner   *queueRunner
	logger   *slog.Logger
	files    ports.FileRepository
	analyses ports.AnalysisRepository
	scanner  ports.ScanService
	blobs    ports.BlobStore
	cfg      ScanWorkerConfig
	nowFn    func() time.Time
}

func NewScanWorker(
	logger *slog.Logger,
	queue ports.JobQueue,
	failures ports.FailurePublisher,
	files ports.FileRepository,
	analyses ports.AnalysisRepository,
	scanner ports.ScanService,
	blobs ports.BlobStore,
	cfg ScanWorkerConfig,
) *ScanWorker {
	cfg.applyDefaults()
	w := &ScanWorker{
		logger:   logger,
		files:    files,
		analyses: analyses,
		scanner:  scanner,
		blobs:    blobs,
		cfg:      cfg,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	w.runner = &queueRunner{
		logger:      logger,
		queue:       queue,
		failures:    failures,
		kind:        ports.JobKindScan,
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
func (w *ScanWorker) Run(ctx context.Context) error {
	return w.runner.Run(ctx)
}

func (w *ScanWorker) process(ctx context.Context, job ports.Job) error {
	var request ports.ScanRequested
	if err := json.Unmarshal(job.Payload, &request); err != nil {
		return permanent(fmt.Errorf("decode scan payload: %w", err))
	}
	if request.FileID == uuid.Nil {
		return permanent(fmt.Errorf("scan payload has no file id"))
	}

	file, err := w.files.GetByID(ctx, request.FileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Owner deleted the file before the scan ran. Nothing to verify.
			return nil
		}
		return err
	}
	if file.ScanStatus != domain.ScanPending {
		// A previous run finished the verdict but crashed before the job was
		// removed. Re-running must not flip the status again; the only
		// leftover work is quarantined bytes whose delete failed last time.
		if file.ScanStatus == domain.ScanDangerous && w.blobs.Exists(ctx, file.StoragePath) {
			if err := w.blobs.Delete(ctx, file.StoragePath); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrStorageDelete, err)
			}
		}
		return nil
	}

	content, err := w.blobs.Open(ctx, file.StoragePath)
	if err != nil {
		return permanent(fmt.Errorf("open stored bytes: %w", err))
	}
	submission, err := w.scanner.Submit(ctx, file.StoredName, content)
	content.Close()
	if err != nil {
		return fmt.Errorf("submit for analysis: %w", err)
	}

	stats, err := w.poll(ctx, submission.AnalysisID)
	if err != nil {
		return err
	}

	verdict := domain.ScanSafe
	if stats.Dangerous() {
		verdict = domain.ScanDangerous
	}

	record := domain.AnalysisRecord{
		AnalysisID:         uuid.New(),
		FileID:             file.FileID,
		OwnerID:            file.OwnerID,
		ScanDate:           w.nowFn(),
		Stats:              stats,
		ExternalAnalysisID: submission.AnalysisID,
		Status:             verdict,
	}
	if err := w.analyses.Insert(ctx, record); err != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("record verdict: %w", err)
	}

	if err := w.files.SetScanStatus(ctx, file.FileID, verdict); err != nil {
		return fmt.Errorf("set scan status: %w", err)
	}
	if verdict == domain.ScanDangerous {
		// Quarantine flips the status before touching the bytes. If the
		// delete fails the retry reconciles the leftover bytes without
		// resubmitting the file for analysis.
		if err := w.blobs.Delete(ctx, file.StoragePath); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageDelete, err)
		}
	}

	w.logger.InfoContext(ctx, "scan verdict recorded",
		"module", "events.scan_worker",
		"layer", "adapter",
		"operation", "process_scan",
		"outcome", "success",
		"file_id", file.FileID,
		"verdict", string(verdict),
		"malicious", stats.Malicious,
		"suspicious", stats.Suspicious,
	)
	return nil
}

// poll fetches the analysis until the service reports it complete or the
// bounded attempt budget runs out.
func (w *ScanWorker) poll(ctx context.Context, analysisID string) (domain.ScanStats, error) {
	for attempt := 0; attempt < w.cfg.PollAttempts; attempt++ {
		report, err := w.scanner.FetchAnalysis(ctx, analysisID)
		if err != nil {
			return domain.ScanStats{}, fmt.Errorf("fetch analysis: %w", err)
		}
		if report.Completed {
			return report.Stats, nil
		}

		select {
		case <-ctx.Done():
			return domain.ScanStats{}, ctx.Err()
		case <-time.After(w.cfg.PollInterval):
		}
	}
	return domain.ScanStats{}, fmt.Errorf("%w: analysis %s not complete after %d polls", domain.ErrScanTimeout, analysisID, w.cfg.PollAttempts)
}
