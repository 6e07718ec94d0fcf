package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScanStatus tracks a file's position in the scan pipeline. Files are visible
// to their owner while still pending; download and share paths must check it.
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanSafe      ScanStatus = "safe"
	ScanDangerous ScanStatus = "dangerous"
)

// File is the metadata record for one stored object. StoragePath is immutable
// once set; the bytes it points at are deleted when the scan verdict is
// dangerous, but the record survives as the quarantine marker.
type File struct {
	FileID       uuid.UUID
	OwnerID      uuid.UUID
	StoredName   string
	StoragePath  string
	SizeBytes    int64
	MimeType     string
	OriginalName string
	Visibility   string
	ScanStatus   ScanStatus
	SharedWith   []Grant
	CreatedAt    time.Time
}

// Grant records that a file owner authorized one grantee for one file.
// The list attached to a File is the single canonical representation; the
// persistence layer serializes it, nothing else branches on its shape.
type Grant struct {
	GranterID    uuid.UUID `json:"granter_id"`
	FileID       uuid.UUID `json:"file_id"`
	FilePath     string    `json:"file_path"`
	GranteeEmail string    `json:"grantee_email"`
	GranteeID    uuid.UUID `json:"grantee_id"`
}
