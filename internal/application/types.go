package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RegisterResponse carries the API secret in the clear exactly once; only
// its hash is stored, so it cannot be shown again.
type RegisterResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	APIKey    string    `json:"api_key"`
	APISecret string    `json:"api_secret"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SignURLRequest struct {
	FileName  string `json:"fileName"`
	Operation string `json:"operation"`
	APIKey    string `json:"api_key"`
}

type SignURLResponse struct {
	SignedURL string    `json:"signed_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CapabilityRequest is the decoded query of a capability-guarded request.
// CanonicalURL is the full URL as the client presented it, signature
// included; it doubles as the cache key suffix.
type CapabilityRequest struct {
	SubjectID    uuid.UUID
	Path         string
	Operation    domain.Operation
	Exp          int64
	Signature    string
	CanonicalURL string
}

type FileView struct {
	FileID       uuid.UUID         `json:"file_id"`
	OwnerID      uuid.UUID         `json:"owner_id"`
	StoredName   string            `json:"stored_name"`
	StoragePath  string            `json:"storage_path"`
	SizeBytes    int64             `json:"size_bytes"`
	MimeType     string            `json:"mime_type"`
	OriginalName string            `json:"original_name"`
	Visibility   string            `json:"visibility"`
	ScanStatus   domain.ScanStatus `json:"scan_status"`
	SharedWith   []domain.Grant    `json:"shared_with"`
	CreatedAt    time.Time         `json:"created_at"`
}

type DownloadOwnRequest struct {
	OwnerID     uuid.UUID
	FileID      uuid.UUID
	StoragePath string
}

// ShareLinkRequest carries the query parameters of a share link.
type ShareLinkRequest struct {
	FileID       uuid.UUID
	FilePath     string
	GranteeEmail string
}

type ShareRequest struct {
	GranterID    uuid.UUID
	GranteeEmail string
	FileID       uuid.UUID
	FilePath     string
}

type ShareResponse struct {
	ShareableURL  string `json:"shareable_url"`
	AlreadyShared bool   `json:"already_shared"`
}

type RevokeRequest struct {
	GranterID    uuid.UUID
	GranteeEmail string
	GranteeID    uuid.UUID
}

type AnalysisView struct {
	AnalysisID         uuid.UUID         `json:"analysis_id"`
	FileID             uuid.UUID         `json:"file_id"`
	ScanDate           time.Time         `json:"scan_date"`
	Malicious          int               `json:"malicious"`
	Suspicious         int               `json:"suspicious"`
	Harmless           int               `json:"harmless"`
	Undetected         int               `json:"undetected"`
	ExternalAnalysisID string            `json:"external_analysis_id"`
	Status             domain.ScanStatus `json:"status"`
}

func toFileView(file domain.File) FileView {
	return FileView{
		FileID:       file.FileID,
		OwnerID:      file.OwnerID,
		StoredName:   file.StoredName,
		StoragePath:  file.StoragePath,
		SizeBytes:    file.SizeBytes,
		MimeType:     file.MimeType,
		OriginalName: file.OriginalName,
		Visibility:   file.Visibility,
		ScanStatus:   file.ScanStatus,
		SharedWith:   file.SharedWith,
		CreatedAt:    file.CreatedAt,
	}
}

func toAnalysisView(record domain.AnalysisRecord) AnalysisView {
	return AnalysisView{
		AnalysisID:         record.AnalysisID,
		FileID:             record.FileID,
		ScanDate:           record.ScanDate,
		Malicious:          record.Stats.Malicious,
		Suspicious:         record.Stats.Suspicious,
		Harmless:           record.Stats.Harmless,
		Undetected:         record.Stats.Undetected,
		ExternalAnalysisID: record.ExternalAnalysisID,
		Status:             record.Status,
	}
}
