package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Envelope kinds carried on the pub/sub channel. One logical channel carries
// both; the relay fans them out to the right queue.
const (
	EventVirusScan = "virusScan"
	EventMailSend  = "mailSend"
)

// EventEnvelope is the typed wrapper every published message carries. Name
// selects the payload shape; the payload fields ride alongside it in the
// same JSON object.
type EventEnvelope struct {
	Name string `json:"name"`
}

// ScanRequested is published when an upload has been accepted and its bytes
// persisted. It doubles as the scan job payload.
type ScanRequested struct {
	Name           string    `json:"name"`
	FileID         uuid.UUID `json:"file_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	StoredFilename string    `json:"stored_filename"`
	StoragePath    string    `json:"storage_path"`
	MimeType       string    `json:"mime_type"`
	SharedWith     string    `json:"shared_with"`
	Visibility     string    `json:"visibility"`
	OriginalName   string    `json:"original_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// MailOperation selects the notification template.
type MailOperation string

const (
	MailShared  MailOperation = "Shared"
	MailRevoked MailOperation = "Revoked"
)

// MailRequested is published on grant/revoke. It doubles as the mail job
// payload.
type MailRequested struct {
	Name         string        `json:"name"`
	Operation    MailOperation `json:"operation"`
	GranterEmail string        `json:"granter_email"`
	GranteeEmail string        `json:"grantee_email"`
	GranterName  string        `json:"granter_name"`
	ShareableURL string        `json:"shareable_url,omitempty"`
}

// EventPublisher is the fire-and-forget side of the pub/sub channel.
// Delivery is at-most-once: a subscriber that is down loses the message.
type EventPublisher interface {
	Publish(ctx context.Context, payload any) error
}

// EventSubscriber delivers raw channel messages to the relay.
type EventSubscriber interface {
	// Subscribe blocks until ctx is done, invoking handle for each message.
	Subscribe(ctx context.Context, handle func(ctx context.Context, payload []byte)) error
}

// FailurePublisher is the operator-visible stream for jobs that exhausted
// their retry budget. Exhausted jobs are never silently dropped.
type FailurePublisher interface {
	Publish(ctx context.Context, kind JobKind, jobID uuid.UUID, payload []byte, reason string) error
}
