package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

// CreateUserTxParams captures atomic account-creation inputs. The API
// credential is written in the same transaction so a user can never exist
// without the secret material the capability codec needs.
type CreateUserTxParams struct {
	Email        string
	Name         string
	PasswordHash string
	APIKey       string
	SecretHash   string
	CreatedAtUTC time.Time
}

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	CreateWithCredentialTx(ctx context.Context, params CreateUserTxParams) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error)
}

// CredentialRepository is the credential-store contract the capability
// issuer and verifier consume. Issuance resolves the secret by API key;
// verification re-derives it by subject id.
type CredentialRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (domain.APICredential, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (domain.APICredential, error)
}

// FileRepository manages file metadata and the embedded grant list.
// GrantTx and RevokeTx serialize concurrent mutation of the same file's
// grant list with a per-row pessimistic lock; the read-modify-write is not
// safe without one.
type FileRepository interface {
	Create(ctx context.Context, file domain.File) error
	GetByID(ctx context.Context, fileID uuid.UUID) (domain.File, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.File, error)
	SetScanStatus(ctx context.Context, fileID uuid.UUID, status domain.ScanStatus) error
	Delete(ctx context.Context, fileID uuid.UUID) error

	// GrantTx appends the grant to its file's list unless a grant for the
	// same grantee email already exists; the bool reports whether the list
	// changed.
	GrantTx(ctx context.Context, grant domain.Grant) (bool, error)
	// RevokeTx removes the grant matching both email and grantee id from any
	// of the owner's files, or returns domain.ErrGrantNotFound.
	RevokeTx(ctx context.Context, ownerID uuid.UUID, granteeEmail string, granteeID uuid.UUID) (domain.Grant, error)
	// FindGrant is the read-only permit check used by share-link downloads.
	FindGrant(ctx context.Context, fileID uuid.UUID, filePath, granteeEmail string) (domain.Grant, error)
}

// AnalysisRepository stores immutable scan verdicts.
type AnalysisRepository interface {
	Insert(ctx context.Context, record domain.AnalysisRecord) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.AnalysisRecord, error)
	ListByFile(ctx context.Context, fileID uuid.UUID) ([]domain.AnalysisRecord, error)
}

// JobKind routes a durable job to its worker pool.
type JobKind string

const (
	JobKindScan JobKind = "scan"
	JobKindMail JobKind = "mail"
)

// Job is one durable queue entry. Attempts counts completed runs; NextRunAt
// implements the backoff schedule.
type Job struct {
	JobID       uuid.UUID
	Kind        JobKind
	Payload     []byte
	Attempts    int
	MaxAttempts int
	LastError   *string
	NextRunAt   time.Time
	CreatedAt   time.Time
	ClaimToken  *string
	ClaimUntil  *time.Time
}

// JobQueue is the durable at-least-once queue fed by the event relay.
// Claiming uses a token + TTL so crashed workers release their batch, and
// terminal jobs are deleted rather than kept: the queue never piles up.
type JobQueue interface {
	Enqueue(ctx context.Context, kind JobKind, payload []byte, maxAttempts int, runAt time.Time) error
	ClaimDue(ctx context.Context, kind JobKind, limit int, claimToken string, claimUntil time.Time) ([]Job, error)
	// Complete removes a finished job, whether it succeeded or was given up on.
	Complete(ctx context.Context, jobID uuid.UUID, claimToken string) error
	// Reschedule records a failed run and pushes the job to its next backoff slot.
	Reschedule(ctx context.Context, jobID uuid.UUID, claimToken, errMsg string, nextRunAt time.Time) error
	// Release hands a claimed job back untouched. A run interrupted by
	// shutdown is not a failed run and must not count against the budget.
	Release(ctx context.Context, jobID uuid.UUID, claimToken string) error
}
