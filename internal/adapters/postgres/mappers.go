package postgres

import (
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

func toDomainUser(rec userModel) domain.User {
	return domain.User{
		UserID:       rec.UserID,
		Email:        rec.Email,
		Name:         rec.Name,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}
}

func toDomainCredential(rec apiCredentialModel) domain.APICredential {
	return domain.APICredential{
		CredentialID: rec.CredentialID,
		UserID:       rec.UserID,
		APIKey:       rec.APIKey,
		SecretHash:   rec.SecretHash,
		CreatedAt:    rec.CreatedAt,
	}
}

func toDomainFile(rec fileModel) (domain.File, error) {
	grants, err := decodeGrants(rec.SharedWith)
	if err != nil {
		return domain.File{}, err
	}
	return domain.File{
		FileID:       rec.FileID,
		OwnerID:      rec.OwnerID,
		StoredName:   rec.StoredName,
		StoragePath:  rec.StoragePath,
		SizeBytes:    rec.SizeBytes,
		MimeType:     rec.MimeType,
		OriginalName: rec.OriginalName,
		Visibility:   rec.Visibility,
		ScanStatus:   domain.ScanStatus(rec.ScanStatus),
		SharedWith:   grants,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

func toDomainAnalysis(rec analysisModel) domain.AnalysisRecord {
	return domain.AnalysisRecord{
		AnalysisID: rec.AnalysisID,
		FileID:     rec.FileID,
		OwnerID:    rec.OwnerID,
		ScanDate:   rec.ScanDate,
		Stats: domain.ScanStats{
			Malicious:  rec.Malicious,
			Suspicious: rec.Suspicious,
			Harmless:   rec.Harmless,
			Undetected: rec.Undetected,
		},
		ExternalAnalysisID: rec.ExternalAnalysisID,
		Status:             domain.ScanStatus(rec.Status),
	}
}

// decodeGrants and encodeGrants are the only place the grant list changes
// shape. Everything above the repository works with []domain.Grant.
func decodeGrants(raw string) ([]domain.Grant, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return []domain.Grant{}, nil
	}
	var grants []domain.Grant
	if err := json.Unmarshal([]byte(trimmed), &grants); err != nil {
		return nil, err
	}
	if grants == nil {
		grants = []domain.Grant{}
	}
	return grants, nil
}

func encodeGrants(grants []domain.Grant) (string, error) {
	if grants == nil {
		grants = []domain.Grant{}
	}
	raw, err := json.Marshal(grants)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
