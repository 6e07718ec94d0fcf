package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// UploadInput is the multipart file content accompanying a capability URL.
type UploadInput struct {
	Content      io.Reader
	OriginalName string
	MimeType     string
}

// AcceptUpload persists the uploaded bytes, then verifies the capability,
// then registers the file and requests its scan. The bytes land on disk
// before verification, mirroring how multipart bodies stream; a failed
// verification rolls back exactly what this request wrote. The blob store
// refuses occupied paths, so a request carrying a stale or forged capability
// fails before it can touch bytes some earlier upload stored.
func (s *Service) AcceptUpload(ctx context.Context, capability CapabilityRequest, upload UploadInput) (FileView, error) {
	if capability.Operation != domain.OperationUpload {
		return FileView{}, fmt.Errorf("%w: capability does not permit upload", domain.ErrUnauthorized)
	}
	ownerDir := path.Join("uploads", capability.SubjectID.String())
	if !strings.HasPrefix(capability.Path, ownerDir+"/") {
		return FileView{}, fmt.Errorf("%w: path outside subject directory", domain.ErrInvalidInput)
	}

	size, dirCreated, err := s.blobs.Save(ctx, capability.Path, upload.Content)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return FileView{}, fmt.Errorf("%w: destination path already holds a file", domain.ErrConflict)
		}
		return FileView{}, fmt.Errorf("persist upload: %w", err)
	}

	if err := s.VerifyCapability(ctx, capability); err != nil {
		s.rollbackUpload(ctx, capability.Path, ownerDir, dirCreated)
		return FileView{}, err
	}

	now := s.nowFn()
	file := domain.File{
		FileID:       uuid.New(),
		OwnerID:      capability.SubjectID,
		StoredName:   path.Base(capability.Path),
		StoragePath:  capability.Path,
		SizeBytes:    size,
		MimeType:     upload.MimeType,
		OriginalName: upload.OriginalName,
		Visibility:   "private",
		ScanStatus:   domain.ScanPending,
		SharedWith:   []domain.Grant{},
		CreatedAt:    now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		s.rollbackUpload(ctx, capability.Path, ownerDir, dirCreated)
		return FileView{}, fmt.Errorf("register file: %w", err)
	}

	event := ports.ScanRequested{
		Name:           ports.EventVirusScan,
		FileID:         file.FileID,
		OwnerID:        file.OwnerID,
		StoredFilename: file.StoredName,
		StoragePath:    file.StoragePath,
		MimeType:       file.MimeType,
		SharedWith:     "[]",
		Visibility:     file.Visibility,
		OriginalName:   file.OriginalName,
		CreatedAt:      file.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// The file is registered and stays pending; the failure is surfaced
		// so the caller knows the scan was not requested.
		return toFileView(file), fmt.Errorf("request scan: %w", err)
	}
	return toFileView(file), nil
}

func (s *Service) rollbackUpload(ctx context.Context, blobPath, ownerDir string, dirCreated bool) {
	_ = s.blobs.Delete(ctx, blobPath)
	if dirCreated {
		_ = s.blobs.DeleteDir(ctx, ownerDir)
	}
}

// ListFiles returns the caller's files, newest first, scan status included.
func (s *Service) ListFiles(ctx context.Context, ownerID uuid.UUID) ([]FileView, error) {
	files, err := s.files.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	views := make([]FileView, 0, len(files))
	for _, file := range files {
		views = append(views, toFileView(file))
	}
	return views, nil
}

// GetFile returns one of the caller's files. Files belonging to anyone else
// are indistinguishable from missing ones.
func (s *Service) GetFile(ctx context.Context, ownerID, fileID uuid.UUID) (FileView, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return FileView{}, err
	}
	if file.OwnerID != ownerID {
		return FileView{}, domain.ErrNotFound
	}
	return toFileView(file), nil
}

// DownloadOwn opens one of the caller's files for streaming. Quarantined
// files are refused; their bytes are gone anyway.
func (s *Service) DownloadOwn(ctx context.Context, req DownloadOwnRequest) (io.ReadCloser, FileView, error) {
	file, err := s.files.GetByID(ctx, req.FileID)
	if err != nil {
		return nil, FileView{}, err
	}
	if file.OwnerID != req.OwnerID {
		return nil, FileView{}, domain.ErrNotFound
	}
	if file.StoragePath != req.StoragePath {
		return nil, FileView{}, fmt.Errorf("%w: storage path does not match", domain.ErrInvalidInput)
	}
	if file.ScanStatus == domain.ScanDangerous {
		return nil, FileView{}, domain.ErrFileQuarantined
	}

	content, err := s.blobs.Open(ctx, file.StoragePath)
	if err != nil {
		return nil, FileView{}, fmt.Errorf("open stored bytes: %w", err)
	}
	return content, toFileView(file), nil
}

// DownloadShared serves a share link. Only files with a completed clean scan
// are served to grantees; the owner's fail-open window does not extend to
// third parties.
func (s *Service) DownloadShared(ctx context.Context, req ShareLinkRequest) (io.ReadCloser, FileView, error) {
	if _, err := s.files.FindGrant(ctx, req.FileID, req.FilePath, strings.ToLower(strings.TrimSpace(req.GranteeEmail))); err != nil {
		if errors.Is(err, domain.ErrGrantNotFound) || errors.Is(err, domain.ErrNotFound) {
			return nil, FileView{}, domain.ErrUnauthorized
		}
		return nil, FileView{}, err
	}

	file, err := s.files.GetByID(ctx, req.FileID)
	if err != nil {
		return nil, FileView{}, err
	}
	switch file.ScanStatus {
	case domain.ScanDangerous:
		return nil, FileView{}, domain.ErrFileQuarantined
	case domain.ScanPending:
		return nil, FileView{}, domain.ErrScanPending
	}

	content, err := s.blobs.Open(ctx, file.StoragePath)
	if err != nil {
		return nil, FileView{}, fmt.Errorf("open stored bytes: %w", err)
	}
	return content, toFileView(file), nil
}

// DeleteFile removes the record and its bytes. The caller must present the
// stored path as a second factor against deleting by guessed id.
func (s *Service) DeleteFile(ctx context.Context, ownerID, fileID uuid.UUID, storagePath string) error {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if file.StoragePath != storagePath {
		return fmt.Errorf("%w: storage path does not match", domain.ErrInvalidInput)
	}

	if err := s.blobs.Delete(ctx, file.StoragePath); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageDelete, err)
	}
	return s.files.Delete(ctx, fileID)
}
