package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// Share grants one registered user access to one of the caller's files and
// notifies them by mail. Granting again for the same file and email is a
// no-op that still returns the shareable link.
func (s *Service) Share(ctx context.Context, req ShareRequest) (ShareResponse, error) {
	granteeEmail, err := normalizeEmail(req.GranteeEmail)
	if err != nil {
		return ShareResponse{}, err
	}
	if req.FileID == uuid.Nil || strings.TrimSpace(req.FilePath) == "" {
		return ShareResponse{}, fmt.Errorf("%w: file id and path are required", domain.ErrInvalidInput)
	}

	grantee, err := s.users.GetByEmail(ctx, granteeEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ShareResponse{}, domain.ErrGranteeNotFound
		}
		return ShareResponse{}, err
	}
	if grantee.UserID == req.GranterID {
		return ShareResponse{}, fmt.Errorf("%w: cannot share a file with yourself", domain.ErrInvalidInput)
	}

	granter, err := s.users.GetByID(ctx, req.GranterID)
	if err != nil {
		return ShareResponse{}, err
	}

	file, err := s.files.GetByID(ctx, req.FileID)
	if err != nil {
		return ShareResponse{}, err
	}
	if file.OwnerID != req.GranterID {
		return ShareResponse{}, domain.ErrNotFound
	}
	if file.StoragePath != req.FilePath {
		return ShareResponse{}, fmt.Errorf("%w: storage path does not match", domain.ErrInvalidInput)
	}
	if file.ScanStatus == domain.ScanDangerous {
		return ShareResponse{}, domain.ErrFileQuarantined
	}

	appended, err := s.files.GrantTx(ctx, domain.Grant{
		GranterID:    req.GranterID,
		FileID:       req.FileID,
		FilePath:     req.FilePath,
		GranteeEmail: granteeEmail,
		GranteeID:    grantee.UserID,
	})
	if err != nil {
		return ShareResponse{}, err
	}

	shareableURL := s.shareableURL(req.FileID, req.FilePath, granteeEmail)
	if appended {
		event := ports.MailRequested{
			Name:         ports.EventMailSend,
			Operation:    ports.MailShared,
			GranterEmail: granter.Email,
			GranteeEmail: granteeEmail,
			GranterName:  granter.Name,
			ShareableURL: shareableURL,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			// The grant is durable; only the notification is lost.
			return ShareResponse{ShareableURL: shareableURL}, fmt.Errorf("request notification: %w", err)
		}
	}
	return ShareResponse{ShareableURL: shareableURL, AlreadyShared: !appended}, nil
}

// Revoke withdraws a previously granted share and notifies the grantee.
func (s *Service) Revoke(ctx context.Context, req RevokeRequest) error {
	granteeEmail, err := normalizeEmail(req.GranteeEmail)
	if err != nil {
		return err
	}
	if req.GranteeID == uuid.Nil {
		return fmt.Errorf("%w: grantee id is required", domain.ErrInvalidInput)
	}

	if _, err := s.files.RevokeTx(ctx, req.GranterID, granteeEmail, req.GranteeID); err != nil {
		return err
	}

	granter, err := s.users.GetByID(ctx, req.GranterID)
	if err != nil {
		return err
	}
	event := ports.MailRequested{
		Name:         ports.EventMailSend,
		Operation:    ports.MailRevoked,
		GranterEmail: granter.Email,
		GranteeEmail: granteeEmail,
		GranterName:  granter.Name,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("request notification: %w", err)
	}
	return nil
}

func (s *Service) shareableURL(fileID uuid.UUID, filePath, granteeEmail string) string {
	query := url.Values{}
	query.Set("file_id", fileID.String())
	query.Set("file_path", filePath)
	query.Set("grantee_email", granteeEmail)
	return s.cfg.PublicBaseURL + "/api/v1/files/download?" + query.Encode()
}
