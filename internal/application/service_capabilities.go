package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
)

// IssueCapability signs a short-lived single-use URL for one operation on
// one path. The signature is cached keyed by the complete URL, so the URL
// handed back is the only byte sequence that will ever verify. The stored
// name carries an issuance-time prefix, so no two capabilities ever point at
// the same path: an upload can only create, never replace.
func (s *Service) IssueCapability(ctx context.Context, req SignURLRequest) (SignURLResponse, error) {
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" || fileName != path.Base(fileName) {
		return SignURLResponse{}, fmt.Errorf("%w: invalid file name", domain.ErrInvalidInput)
	}
	op, ok := domain.ParseOperation(req.Operation)
	if !ok {
		return SignURLResponse{}, fmt.Errorf("%w: operation must be upload or download", domain.ErrInvalidInput)
	}

	cred, err := s.credentials.GetByAPIKey(ctx, strings.TrimSpace(req.APIKey))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return SignURLResponse{}, fmt.Errorf("%w: unknown api key", domain.ErrUnauthorized)
		}
		return SignURLResponse{}, err
	}

	subjectID := cred.UserID.String()
	now := s.nowFn()
	storedName := strconv.FormatInt(now.UnixMilli(), 10) + "-" + fileName
	resourcePath := path.Join("uploads", subjectID, storedName)
	expiresAt := now.Add(s.cfg.CapabilityTTL)

	signature := s.capSigner.Sign(domain.CapabilityPayload{
		Path:      resourcePath,
		Operation: op,
		Exp:       expiresAt.UnixMilli(),
		SubjectID: subjectID,
		Secret:    cred.SecretHash,
	})

	query := url.Values{}
	query.Set("uid", subjectID)
	query.Set("path", resourcePath)
	query.Set("op", string(op))
	query.Set("exp", strconv.FormatInt(expiresAt.UnixMilli(), 10))
	query.Set("signature", signature)
	signedURL := s.cfg.PublicBaseURL + "/api/v1/files/access?" + query.Encode()

	if err := s.capStore.Put(ctx, subjectID, signedURL, signature, s.cfg.CapabilityTTL); err != nil {
		return SignURLResponse{}, fmt.Errorf("cache capability: %w", err)
	}

	return SignURLResponse{SignedURL: signedURL, ExpiresAt: expiresAt}, nil
}

// VerifyCapability consumes and checks a presented capability. The order is
// deliberate: the cache entry is taken first, so every outcome below,
// success or failure, burns the single use.
func (s *Service) VerifyCapability(ctx context.Context, req CapabilityRequest) error {
	stored, ok, err := s.capStore.Take(ctx, req.SubjectID.String(), req.CanonicalURL)
	if err != nil {
		return fmt.Errorf("consume capability: %w", err)
	}
	if !ok {
		return domain.ErrCapabilityExpired
	}

	// Expiry is re-checked against the payload even while the cache entry
	// lives; the cache TTL is an upper bound, not the contract. The deadline
	// itself is already too late.
	if s.nowFn().UnixMilli() >= req.Exp {
		return domain.ErrCapabilityExpired
	}

	cred, err := s.credentials.GetByUser(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCapabilityInvalid
		}
		return err
	}

	expected := s.capSigner.Sign(domain.CapabilityPayload{
		Path:      req.Path,
		Operation: req.Operation,
		Exp:       req.Exp,
		SubjectID: req.SubjectID.String(),
		Secret:    cred.SecretHash,
	})
	if subtle.ConstantTimeCompare([]byte(expected), []byte(req.Signature)) != 1 ||
		subtle.ConstantTimeCompare([]byte(expected), []byte(stored)) != 1 {
		return domain.ErrCapabilityInvalid
	}
	return nil
}
