package ports

import (
	"context"
	"io"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

// ScanSubmission is the handle returned by the external scan service.
type ScanSubmission struct {
	AnalysisID string
}

// AnalysisReport is one poll result. Completed is false while the service is
// still working; Stats are only meaningful once it is true.
type AnalysisReport struct {
	Completed bool
	Stats     domain.ScanStats
}

// ScanService is the external malware-scanning collaborator. Submit uploads
// raw bytes; FetchAnalysis reads the verdict for a prior submission.
// Network failures surface as domain.ErrScanTransient wraps so the queue can
// retry them.
type ScanService interface {
	Submit(ctx context.Context, filename string, content io.Reader) (ScanSubmission, error)
	FetchAnalysis(ctx context.Context, analysisID string) (AnalysisReport, error)
}

// BlobStore is the raw byte storage collaborator. Paths are relative to the
// store's root; Save creates intermediate directories as needed.
//
// Save never overwrites: an occupied destination fails with an error
// wrapping fs.ErrExist. The returned bool reports whether this call created
// the blob's parent directory, so a caller rolling back an upload knows
// whether the directory is its own to remove.
type BlobStore interface {
	Save(ctx context.Context, path string, content io.Reader) (int64, bool, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	// DeleteDir removes a directory only once it is empty; used to roll back
	// a directory created for an upload that failed verification. A directory
	// that picked up another upload's blob in the meantime is left alone.
	DeleteDir(ctx context.Context, dir string) error
}

// MailMessage is one outbound notification.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer is the outbound mail transport collaborator.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}
