package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

// ListAnalyses returns every scan verdict recorded for the caller's files.
func (s *Service) ListAnalyses(ctx context.Context, ownerID uuid.UUID) ([]AnalysisView, error) {
	records, err := s.analyses.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	views := make([]AnalysisView, 0, len(records))
	for _, record := range records {
		views = append(views, toAnalysisView(record))
	}
	return views, nil
}

// ListFileAnalyses returns the verdicts for one file the caller owns. The
// file record may already be deleted; verdicts outlive it, so ownership is
// enforced on the records themselves.
func (s *Service) ListFileAnalyses(ctx context.Context, ownerID, fileID uuid.UUID) ([]AnalysisView, error) {
	records, err := s.analyses.ListByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	views := make([]AnalysisView, 0, len(records))
	for _, record := range records {
		if record.OwnerID != ownerID {
			return nil, domain.ErrNotFound
		}
		views = append(views, toAnalysisView(record))
	}
	return views, nil
}
