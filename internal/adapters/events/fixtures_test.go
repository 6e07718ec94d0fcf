package events

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memQueue implements the durable queue contract in memory, claim tokens and
// TTLs included, so runner behavior can be asserted without Postgres.
type memQueue struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]ports.Job
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: map[uuid.UUID]ports.Job{}}
}

func (q *memQueue) Enqueue(_ context.Context, kind ports.JobKind, payload []byte, maxAttempts int, runAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job := ports.Job{
		JobID:       uuid.New(),
		Kind:        kind,
		Payload:     payload,
		MaxAttempts: maxAttempts,
		NextRunAt:   runAt,
		CreatedAt:   time.Now().UTC(),
	}
	q.jobs[job.JobID] = job
	return nil
}

func (q *memQueue) ClaimDue(_ context.Context, kind ports.JobKind, limit int, claimToken string, claimUntil time.Time) ([]ports.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now().UTC()
	var claimed []ports.Job
	for id, job := range q.jobs {
		if len(claimed) >= limit {
			break
		}
		if job.Kind != kind || job.NextRunAt.After(now) {
			continue
		}
		if job.ClaimUntil != nil && job.ClaimUntil.After(now) {
			continue
		}
		token := claimToken
		until := claimUntil
		job.ClaimToken = &token
		job.ClaimUntil = &until
		q.jobs[id] = job
		claimed = append(claimed, job)
	}
	return claimed, nil
}

func (q *memQueue) Complete(_ context.Context, jobID uuid.UUID, claimToken string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.ClaimToken == nil || *job.ClaimToken != claimToken {
		return fmt.Errorf("job %s not held by token", jobID)
	}
	delete(q.jobs, jobID)
	return nil
}

func (q *memQueue) Reschedule(_ context.Context, jobID uuid.UUID, claimToken, errMsg string, nextRunAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.ClaimToken == nil || *job.ClaimToken != claimToken {
		return fmt.Errorf("job %s not held by token", jobID)
	}
	job.Attempts++
	job.LastError = &errMsg
	job.NextRunAt = nextRunAt
	job.ClaimToken = nil
	job.ClaimUntil = nil
	q.jobs[jobID] = job
	return nil
}

func (q *memQueue) Release(_ context.Context, jobID uuid.UUID, claimToken string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[jobID]
	if !ok || job.ClaimToken == nil || *job.ClaimToken != claimToken {
		return fmt.Errorf("job %s not held by token", jobID)
	}
	job.ClaimToken = nil
	job.ClaimUntil = nil
	q.jobs[jobID] = job
	return nil
}

func (q *memQueue) snapshot() []ports.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]ports.Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		out = append(out, job)
	}
	return out
}

type memFiles struct {
	mu    sync.Mutex
	files map[uuid.UUID]domain.File
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[uuid.UUID]domain.File{}}
}

func (f *memFiles) Create(_ context.Context, file domain.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[file.FileID] = file
	return nil
}

func (f *memFiles) GetByID(_ context.Context, fileID uuid.UUID) (domain.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.files[fileID]; ok {
		return file, nil
	}
	return domain.File{}, domain.ErrNotFound
}

func (f *memFiles) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.File
	for _, file := range f.files {
		if file.OwnerID == ownerID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *memFiles) SetScanStatus(_ context.Context, fileID uuid.UUID, status domain.ScanStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[fileID]
	if !ok {
		return domain.ErrNotFound
	}
	file.ScanStatus = status
	f.files[fileID] = file
	return nil
}

func (f *memFiles) Delete(_ context.Context, fileID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, fileID)
	return nil
}

func (f *memFiles) GrantTx(_ context.Context, _ domain.Grant) (bool, error) {
	return false, fmt.Errorf("not used in worker tests")
}

func (f *memFiles) RevokeTx(_ context.Context, _ uuid.UUID, _ string, _ uuid.UUID) (domain.Grant, error) {
	return domain.Grant{}, fmt.Errorf("not used in worker tests")
}

func (f *memFiles) FindGrant(_ context.Context, _ uuid.UUID, _, _ string) (domain.Grant, error) {
	return domain.Grant{}, fmt.Errorf("not used in worker tests")
}

type memAnalyses struct {
	mu      sync.Mutex
	records []domain.AnalysisRecord
}

func (a *memAnalyses) Insert(_ context.Context, record domain.AnalysisRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
	return nil
}

func (a *memAnalyses) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.AnalysisRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.AnalysisRecord
	for _, r := range a.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *memAnalyses) ListByFile(_ context.Context, fileID uuid.UUID) ([]domain.AnalysisRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.AnalysisRecord
	for _, r := range a.records {
		if r.FileID == fileID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: map[string][]byte{}}
}

func (b *memBlobs) Save(_ context.Context, path string, content io.Reader) (int64, bool, error) {
	raw, err := io.ReadAll(content)
	if err != nil {
		return 0, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blobs[path]; ok {
		return 0, false, fmt.Errorf("blob %q: %w", path, fs.ErrExist)
	}
	b.blobs[path] = raw
	return int64(len(raw)), false, nil
}

func (b *memBlobs) Open(_ context.Context, path string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.blobs[path]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", path)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (b *memBlobs) Exists(_ context.Context, path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[path]
	return ok
}

func (b *memBlobs) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, path)
	return nil
}

func (b *memBlobs) DeleteDir(_ context.Context, _ string) error { return nil }

// scriptedScanner returns a fixed verdict, optionally after a number of
// incomplete polls.
type scriptedScanner struct {
	mu            sync.Mutex
	stats         domain.ScanStats
	pendingPolls  int
	submitErr     error
	fetchErr      error
	submissions   []string
	fetchRequests int
}

func (s *scriptedScanner) Submit(_ context.Context, filename string, content io.Reader) (ports.ScanSubmission, error) {
	if s.submitErr != nil {
		return ports.ScanSubmission{}, s.submitErr
	}
	_, _ = io.Copy(io.Discard, content)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, filename)
	return ports.ScanSubmission{AnalysisID: fmt.Sprintf("analysis-%d", len(s.submissions))}, nil
}

func (s *scriptedScanner) FetchAnalysis(_ context.Context, _ string) (ports.AnalysisReport, error) {
	if s.fetchErr != nil {
		return ports.AnalysisReport{}, s.fetchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchRequests++
	if s.fetchRequests <= s.pendingPolls {
		return ports.AnalysisReport{Completed: false}, nil
	}
	return ports.AnalysisReport{Completed: true, Stats: s.stats}, nil
}

type failureRecordEntry struct {
	Kind   ports.JobKind
	JobID  uuid.UUID
	Reason string
}

type memFailures struct {
	mu      sync.Mutex
	entries []failureRecordEntry
	failErr error
}

func (f *memFailures) Publish(_ context.Context, kind ports.JobKind, jobID uuid.UUID, _ []byte, reason string) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, failureRecordEntry{Kind: kind, JobID: jobID, Reason: reason})
	return nil
}

type memMailer struct {
	mu      sync.Mutex
	sent    []ports.MailMessage
	failErr error
}

func (m *memMailer) Send(_ context.Context, msg ports.MailMessage) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}
