package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

type scanFixture struct {
	worker   *ScanWorker
	queue    *memQueue
	files    *memFiles
	analyses *memAnalyses
	scanner  *scriptedScanner
	blobs    *memBlobs
	failures *memFailures
}

func newScanFixture(scanner *scriptedScanner) *scanFixture {
	queue := newMemQueue()
	files := newMemFiles()
	analyses := &memAnalyses{}
	blobs := newMemBlobs()
	failures := &memFailures{}
	worker := NewScanWorker(discardLogger(), queue, failures, files, analyses, scanner, blobs, ScanWorkerConfig{
		PollInterval: time.Millisecond,
		PollAttempts: 3,
	})
	return &scanFixture{
		worker:   worker,
		queue:    queue,
		files:    files,
		analyses: analyses,
		scanner:  scanner,
		blobs:    blobs,
		failures: failures,
	}
}

func (f *scanFixture) seedPendingFile(t *testing.T, content string) domain.File {
	t.Helper()
	ownerID := uuid.New()
	file := domain.File{
		FileID:      uuid.New(),
		OwnerID:     ownerID,
		StoredName:  "sample.bin",
		StoragePath: "uploads/" + ownerID.String() + "/sample.bin",
		ScanStatus:  domain.ScanPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := f.files.Create(context.Background(), file); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	f.blobs.blobs[file.StoragePath] = []byte(content)
	return file
}

func scanJob(t *testing.T, file domain.File) ports.Job {
	t.Helper()
	payload, err := json.Marshal(ports.ScanRequested{
		Name:        ports.EventVirusScan,
		FileID:      file.FileID,
		OwnerID:     file.OwnerID,
		StoragePath: file.StoragePath,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return ports.Job{JobID: uuid.New(), Kind: ports.JobKindScan, Payload: payload, MaxAttempts: 4}
}

func TestScanWorkerCleanVerdict(t *testing.T) {
	t.Parallel()

	f := newScanFixture(&scriptedScanner{stats: domain.ScanStats{Harmless: 60, Undetected: 10}})
	file := f.seedPendingFile(t, "harmless bytes")
	ctx := context.Background()

	if err := f.worker.process(ctx, scanJob(t, file)); err != nil {
		t.Fatalf("process: %v", err)
	}

	updated, _ := f.files.GetByID(ctx, file.FileID)
	if updated.ScanStatus != domain.ScanSafe {
		t.Fatalf("scan status = %q, want safe", updated.ScanStatus)
	}
	if !f.blobs.Exists(ctx, file.StoragePath) {
		t.Fatal("clean file bytes were deleted")
	}
	records, _ := f.analyses.ListByFile(ctx, file.FileID)
	if len(records) != 1 {
		t.Fatalf("recorded %d analyses, want 1", len(records))
	}
	if records[0].Status != domain.ScanSafe || records[0].Stats.Harmless != 60 {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestScanWorkerQuarantinesMaliciousFile(t *testing.T) {
	t.Parallel()

	f := newScanFixture(&scriptedScanner{stats: domain.ScanStats{Malicious: 3, Harmless: 50}})
	file := f.seedPendingFile(t, "malicious bytes")
	ctx := context.Background()

	if err := f.worker.process(ctx, scanJob(t, file)); err != nil {
		t.Fatalf("process: %v", err)
	}

	updated, _ := f.files.GetByID(ctx, file.FileID)
	if updated.ScanStatus != domain.ScanDangerous {
		t.Fatalf("scan status = %q, want dangerous", updated.ScanStatus)
	}
	if f.blobs.Exists(ctx, file.StoragePath) {
		t.Fatal("malicious bytes survived quarantine")
	}
	records, _ := f.analyses.ListByFile(ctx, file.FileID)
	if len(records) != 1 || records[0].Status != domain.ScanDangerous {
		t.Fatalf("unexpected analysis records %+v", records)
	}
}

func TestScanWorkerSuspiciousAloneIsDangerous(t *testing.T) {
	t.Parallel()

	f := newScanFixture(&scriptedScanner{stats: domain.ScanStats{Suspicious: 1, Harmless: 70}})
	file := f.seedPendingFile(t, "x")
	ctx := context.Background()

	if err := f.worker.process(ctx, scanJob(t, file)); err != nil {
		t.Fatalf("process: %v", err)
	}
	updated, _ := f.files.GetByID(ctx, file.FileID)
	if updated.ScanStatus != domain.ScanDangerous {
		t.Fatalf("scan status = %q, want dangerous", updated.ScanStatus)
	}
}

func TestScanWorkerWaitsForIncompleteAnalysis(t *testing.T) {
	t.Parallel()

	scanner := &scriptedScanner{stats: domain.ScanStats{Harmless: 70}, pendingPolls: 2}
	f := newScanFixture(scanner)
	file := f.seedPendingFile(t, "x")
	ctx := context.Background()

	if err := f.worker.process(ctx, scanJob(t, file)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if scanner.fetchRequests != 3 {
		t.Fatalf("polled %d times, want 3", scanner.fetchRequests)
	}
	updated, _ := f.files.GetByID(ctx, file.FileID)
	if updated.ScanStatus != domain.ScanSafe {
		t.Fatalf("scan status = %q, want safe", updated.ScanStatus)
	}
}

func TestScanWorkerPollBudgetExhausted(t *testing.T) {
	t.Parallel()

	// Never completes within the three configured polls.
	scanner := &scriptedScanner{pendingPolls: 100}
	f := newScanFixture(scanner)
	file := f.seedPendingFile(t, "x")
	ctx := context.Background()

	err := f.worker.process(ctx, scanJob(t, file))
	if !errors.Is(err, domain.ErrScanTimeout) {
		t.Fatalf("got %v, want ErrScanTimeout", err)
	}
	var perm permanentError
	if errors.As(err, &perm) {
		t.Fatal("poll exhaustion must stay retryable")
	}

	// Nothing was decided: the file stays pending for the retry.
	updated, _ := f.files.GetByID(ctx, file.FileID)
	if updated.ScanStatus != domain.ScanPending {
		t.Fatalf("scan status = %q, want pending", updated.ScanStatus)
	}
	if !f.blobs.Exists(ctx, file.StoragePath) {
		t.Fatal("bytes deleted before a verdict")
	}
}

func TestScanWorkerSkipsDeletedFile(t *testing.T) {
	t.Parallel()

	f := newScanFixture(&scriptedScanner{})
	ctx := context.Background()

	ghost := domain.File{FileID: uuid.New(), OwnerID: uuid.New(), StoragePath: "uploads/gone"}
	if err := f.worker.process(ctx, scanJob(t, ghost)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(f.scanner.submissions) != 0 {
		t.Fatal("a deleted file was submitted for analysis")
	}
}

func TestScanWorkerReconcilesLeftoverQuarantine(t *testing.T) {
	t.Parallel()

	f := newScanFixture(&scriptedScanner{})
	file := f.seedPendingFile(t, "leftover")
	ctx := context.Background()

	// A previous run flipped the status but crashed before deleting the bytes.
	if err := f.files.SetScanStatus(ctx, file.FileID, domain.ScanDangerous); err != nil {
		t.Fatalf("seed status: %v", err)
	}

	if err := f.worker.process(ctx, scanJob(t, file)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if f.blobs.Exists(ctx, file.StoragePath) {
		t.Fatal("leftover quarantined bytes were not removed")
	}
	if len(f.scanner.submissions) != 0 {
		t.Fatal("an already-decided file was resubmitted for analysis")
	}
}

func TestScanWorkerMalformedPayloadIsPermanent(t *testing.T) {
	t.Parallel()

	f := newScanFixture(&scriptedScanner{})
	ctx := context.Background()

	cases := []struct {
		name    string
		payload []byte
	}{
		{"not json", []byte("garbage")},
		{"missing file id", []byte(`{"name":"virusScan"}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.worker.process(ctx, ports.Job{JobID: uuid.New(), Kind: ports.JobKindScan, Payload: tc.payload, MaxAttempts: 4})
			var perm permanentError
			if !errors.As(err, &perm) {
				t.Fatalf("got %v, want permanent error", err)
			}
		})
	}
}

func TestScanWorkerClaimTTLCoversPollBudget(t *testing.T) {
	t.Parallel()

	cfg := ScanWorkerConfig{
		ClaimTTL:     time.Second,
		PollInterval: 3 * time.Second,
		PollAttempts: 20,
	}
	cfg.applyDefaults()
	if cfg.ClaimTTL < cfg.PollInterval*time.Duration(cfg.PollAttempts) {
		t.Fatalf("claim ttl %s shorter than worst-case poll budget", cfg.ClaimTTL)
	}
}
