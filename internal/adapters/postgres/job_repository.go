package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

type jobRepository struct {
	db *gorm.DB
}

func (r *jobRepository) Enqueue(ctx context.Context, kind ports.JobKind, payload []byte, maxAttempts int, runAt time.Time) error {
	if maxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	rec := jobModel{
		JobID:       uuid.New(),
		Kind:        string(kind),
		Payload:     string(payload),
		Attempts:    0,
		MaxAttempts: maxAttempts,
		NextRunAt:   runAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

// ClaimDue marks a batch of runnable jobs with the caller's claim token and
// returns them. Stale claims expire through claim_until, so a worker that
// died mid-batch only delays its jobs instead of losing them.
func (r *jobRepository) ClaimDue(ctx context.Context, kind ports.JobKind, limit int, claimToken string, claimUntil time.Time) ([]ports.Job, error) {
	if limit <= 0 {
		return nil, nil
	}
	if claimToken == "" {
		return nil, fmt.Errorf("claim token is required")
	}

	now := time.Now().UTC()
	var rows []jobModel
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subquery := tx.Model(&jobModel{}).
			Select("job_id").
			Where("kind = ?", string(kind)).
			Where("next_run_at <= ?", now).
			Where("claim_until IS NULL OR claim_until < ?", now).
			Order("next_run_at ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})

		if err := tx.Model(&jobModel{}).
			Where("job_id IN (?)", subquery).
			Updates(map[string]any{
				"claim_token": claimToken,
				"claim_until": claimUntil,
			}).Error; err != nil {
			return err
		}

		return tx.Where("claim_token = ?", claimToken).
			Where("kind = ?", string(kind)).
			Where("claim_until = ?", claimUntil).
			Order("next_run_at ASC").
			Find(&rows).Error
	}); err != nil {
		return nil, err
	}

	jobs := make([]ports.Job, 0, len(rows))
	for _, rec := range rows {
		jobs = append(jobs, ports.Job{
			JobID:       rec.JobID,
			Kind:        ports.JobKind(rec.Kind),
			Payload:     []byte(rec.Payload),
			Attempts:    rec.Attempts,
			MaxAttempts: rec.MaxAttempts,
			LastError:   rec.LastError,
			NextRunAt:   rec.NextRunAt,
			CreatedAt:   rec.CreatedAt,
			ClaimToken:  rec.ClaimToken,
			ClaimUntil:  rec.ClaimUntil,
		})
	}
	return jobs, nil
}

func (r *jobRepository) Complete(ctx context.Context, jobID uuid.UUID, claimToken string) error {
	res := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Where("claim_token = ?", claimToken).
		Delete(&jobModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %s not held by this claim", jobID)
	}
	return nil
}

// Release clears the claim without recording a failed attempt. The job
// becomes runnable again at its unchanged next_run_at.
func (r *jobRepository) Release(ctx context.Context, jobID uuid.UUID, claimToken string) error {
	res := r.db.WithContext(ctx).Model(&jobModel{}).
		Where("job_id = ?", jobID).
		Where("claim_token = ?", claimToken).
		Updates(map[string]any{
			"claim_token": nil,
			"claim_until": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %s not held by this claim", jobID)
	}
	return nil
}

func (r *jobRepository) Reschedule(ctx context.Context, jobID uuid.UUID, claimToken, errMsg string, nextRunAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&jobModel{}).
		Where("job_id = ?", jobID).
		Where("claim_token = ?", claimToken).
		Updates(map[string]any{
			"attempts":    gorm.Expr("attempts + 1"),
			"last_error":  errMsg,
			"next_run_at": nextRunAt.UTC(),
			"claim_token": nil,
			"claim_until": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("job %s not held by this claim", jobID)
	}
	return nil
}
