package postgres

import (
	"time"

	"github.com/google/uuid"
)

type userModel struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Email        string    `gorm:"column:email"`
	Name         string    `gorm:"column:name"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string { return "users" }

type apiCredentialModel struct {
	CredentialID uuid.UUID `gorm:"column:credential_id;type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id"`
	APIKey       string    `gorm:"column:api_key"`
	SecretHash   string    `gorm:"column:api_secret_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (apiCredentialModel) TableName() string { return "api_credentials" }

type fileModel struct {
	FileID       uuid.UUID `gorm:"column:file_id;type:uuid;primaryKey"`
	OwnerID      uuid.UUID `gorm:"column:owner_id"`
	StoredName   string    `gorm:"column:stored_name"`
	StoragePath  string    `gorm:"column:storage_path"`
	SizeBytes    int64     `gorm:"column:size_bytes"`
	MimeType     string    `gorm:"column:mime_type"`
	OriginalName string    `gorm:"column:original_name"`
	Visibility   string    `gorm:"column:visibility"`
	ScanStatus   string    `gorm:"column:scan_status"`
	SharedWith   string    `gorm:"column:shared_with;type:jsonb"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (fileModel) TableName() string { return "files" }

type analysisModel struct {
	AnalysisID         uuid.UUID `gorm:"column:analysis_id;type:uuid;primaryKey"`
	FileID             uuid.UUID `gorm:"column:file_id"`
	OwnerID            uuid.UUID `gorm:"column:owner_id"`
	ScanDate           time.Time `gorm:"column:scan_date"`
	Malicious          int       `gorm:"column:malicious"`
	Suspicious         int       `gorm:"column:suspicious"`
	Harmless           int       `gorm:"column:harmless"`
	Undetected         int       `gorm:"column:undetected"`
	ExternalAnalysisID string    `gorm:"column:external_analysis_id"`
	Status             string    `gorm:"column:status"`
}

func (analysisModel) TableName() string { return "analyses" }

type jobModel struct {
	JobID       uuid.UUID  `gorm:"column:job_id;type:uuid;primaryKey"`
	Kind        string     `gorm:"column:kind"`
	Payload     string     `gorm:"column:payload;type:jsonb"`
	Attempts    int        `gorm:"column:attempts"`
	MaxAttempts int        `gorm:"column:max_attempts"`
	LastError   *string    `gorm:"column:last_error"`
	NextRunAt   time.Time  `gorm:"column:next_run_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	ClaimToken  *string    `gorm:"column:claim_token"`
	ClaimUntil  *time.Time `gorm:"column:claim_until"`
}

func (jobModel) TableName() string { return "jobs" }
