package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

type analysisRepository struct {
	db *gorm.DB
}

func (r *analysisRepository) Insert(ctx context.Context, record domain.AnalysisRecord) error {
	rec := analysisModel{
		AnalysisID:         record.AnalysisID,
		FileID:             record.FileID,
		OwnerID:            record.OwnerID,
		ScanDate:           record.ScanDate,
		Malicious:          record.Stats.Malicious,
		Suspicious:         record.Stats.Suspicious,
		Harmless:           record.Stats.Harmless,
		Undetected:         record.Stats.Undetected,
		ExternalAnalysisID: record.ExternalAnalysisID,
		Status:             string(record.Status),
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *analysisRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.AnalysisRecord, error) {
	var rows []analysisModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("scan_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]domain.AnalysisRecord, 0, len(rows))
	for _, rec := range rows {
		records = append(records, toDomainAnalysis(rec))
	}
	return records, nil
}

func (r *analysisRepository) ListByFile(ctx context.Context, fileID uuid.UUID) ([]domain.AnalysisRecord, error) {
	var rows []analysisModel
	if err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("scan_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]domain.AnalysisRecord, 0, len(rows))
	for _, rec := range rows {
		records = append(records, toDomainAnalysis(rec))
	}
	return records, nil
}
