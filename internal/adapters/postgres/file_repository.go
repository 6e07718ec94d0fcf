package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

type fileRepository struct {
	db *gorm.DB
}

func (r *fileRepository) Create(ctx context.Context, file domain.File) error {
	sharedWith, err := encodeGrants(file.SharedWith)
	if err != nil {
		return err
	}
	rec := fileModel{
		FileID:       file.FileID,
		OwnerID:      file.OwnerID,
		StoredName:   file.StoredName,
		StoragePath:  file.StoragePath,
		SizeBytes:    file.SizeBytes,
		MimeType:     file.MimeType,
		OriginalName: file.OriginalName,
		Visibility:   file.Visibility,
		ScanStatus:   string(file.ScanStatus),
		SharedWith:   sharedWith,
		CreatedAt:    file.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, fileID uuid.UUID) (domain.File, error) {
	var rec fileModel
	if err := r.db.WithContext(ctx).Where("file_id = ?", fileID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.File{}, domain.ErrNotFound
		}
		return domain.File{}, err
	}
	return toDomainFile(rec)
}

func (r *fileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.File, error) {
	var rows []fileModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	files := make([]domain.File, 0, len(rows))
	for _, rec := range rows {
		file, err := toDomainFile(rec)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (r *fileRepository) SetScanStatus(ctx context.Context, fileID uuid.UUID, status domain.ScanStatus) error {
	res := r.db.WithContext(ctx).
		Model(&fileModel{}).
		Where("file_id = ?", fileID).
		Update("scan_status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *fileRepository) Delete(ctx context.Context, fileID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&fileModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GrantTx serializes the read-modify-write on the grant list with a row lock.
// Without FOR UPDATE two concurrent granters lose one of the appends.
func (r *fileRepository) GrantTx(ctx context.Context, grant domain.Grant) (bool, error) {
	appended := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec fileModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("file_id = ? AND owner_id = ?", grant.FileID, grant.GranterID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		grants, err := decodeGrants(rec.SharedWith)
		if err != nil {
			return err
		}
		for _, existing := range grants {
			if existing.GranteeEmail == grant.GranteeEmail {
				return nil // already shared, idempotent
			}
		}

		grants = append(grants, grant)
		encoded, err := encodeGrants(grants)
		if err != nil {
			return err
		}
		if err := tx.Model(&fileModel{}).
			Where("file_id = ?", grant.FileID).
			Update("shared_with", encoded).Error; err != nil {
			return err
		}
		appended = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return appended, nil
}

// RevokeTx scans the owner's files for the matching grant under row locks.
// The revoke request carries no file id, so the owner's whole set is the
// search space.
func (r *fileRepository) RevokeTx(ctx context.Context, ownerID uuid.UUID, granteeEmail string, granteeID uuid.UUID) (domain.Grant, error) {
	var removed domain.Grant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []fileModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ?", ownerID).
			Order("created_at ASC").
			Find(&rows).Error; err != nil {
			return err
		}

		for _, rec := range rows {
			grants, err := decodeGrants(rec.SharedWith)
			if err != nil {
				return err
			}
			for i, g := range grants {
				if g.GranteeEmail != granteeEmail || g.GranteeID != granteeID {
					continue
				}
				removed = g
				grants = append(grants[:i], grants[i+1:]...)
				encoded, err := encodeGrants(grants)
				if err != nil {
					return err
				}
				return tx.Model(&fileModel{}).
					Where("file_id = ?", rec.FileID).
					Update("shared_with", encoded).Error
			}
		}
		return domain.ErrGrantNotFound
	})
	if err != nil {
		return domain.Grant{}, err
	}
	return removed, nil
}

func (r *fileRepository) FindGrant(ctx context.Context, fileID uuid.UUID, filePath, granteeEmail string) (domain.Grant, error) {
	var rec fileModel
	if err := r.db.WithContext(ctx).Where("file_id = ?", fileID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Grant{}, domain.ErrNotFound
		}
		return domain.Grant{}, err
	}
	grants, err := decodeGrants(rec.SharedWith)
	if err != nil {
		return domain.Grant{}, err
	}
	for _, g := range grants {
		if g.FileID == fileID && g.FilePath == filePath && g.GranteeEmail == granteeEmail {
			return g, nil
		}
	}
	return domain.Grant{}, domain.ErrGrantNotFound
}
