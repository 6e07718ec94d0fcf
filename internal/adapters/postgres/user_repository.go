package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) CreateWithCredentialTx(ctx context.Context, params ports.CreateUserTxParams) (domain.User, error) {
	var result domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := userModel{
			UserID:       uuid.New(),
			Email:        params.Email,
			Name:         params.Name,
			PasswordHash: params.PasswordHash,
			CreatedAt:    params.CreatedAtUTC,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}

		cred := apiCredentialModel{
			CredentialID: uuid.New(),
			UserID:       rec.UserID,
			APIKey:       params.APIKey,
			SecretHash:   params.SecretHash,
			CreatedAt:    params.CreatedAtUTC,
		}
		if err := tx.Create(&cred).Error; err != nil {
			return err
		}

		result = toDomainUser(rec)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return result, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return toDomainUser(rec), nil
}

func (r *userRepository) GetByID(ctx context.Context, userID uuid.UUID) (domain.User, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	return toDomainUser(rec), nil
}

type credentialRepository struct {
	db *gorm.DB
}

func (r *credentialRepository) GetByAPIKey(ctx context.Context, apiKey string) (domain.APICredential, error) {
	var rec apiCredentialModel
	if err := r.db.WithContext(ctx).Where("api_key = ?", apiKey).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.APICredential{}, domain.ErrNotFound
		}
		return domain.APICredential{}, err
	}
	return toDomainCredential(rec), nil
}

func (r *credentialRepository) GetByUser(ctx context.Context, userID uuid.UUID) (domain.APICredential, error) {
	var rec apiCredentialModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.APICredential{}, domain.ErrNotFound
		}
		return domain.APICredential{}, err
	}
	return toDomainCredential(rec), nil
}
