package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether email or password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")

	// ErrCapabilityExpired covers both a missing and an evicted cache entry;
	// the verifier cannot distinguish the two and must not try.
	ErrCapabilityExpired = errors.New("capability expired or unknown")
	// ErrCapabilityInvalid means the recomputed signature did not match the
	// one stored at issuance. The cache entry is already consumed by the time
	// this is returned, so a retry with the same URL fails with ErrCapabilityExpired.
	ErrCapabilityInvalid = errors.New("capability signature invalid")

	// ErrGranteeNotFound is returned when a share target email resolves to no account.
	ErrGranteeNotFound = errors.New("grantee not found")
	// ErrGrantNotFound is returned when a revoke matches no existing grant.
	ErrGrantNotFound = errors.New("grant not found")

	// ErrFileQuarantined marks a file whose scan verdict was dangerous;
	// its bytes are gone and it can never be downloaded or shared again.
	ErrFileQuarantined = errors.New("file quarantined")
	// ErrScanPending rejects share-link downloads of files that have not
	// finished scanning yet.
	ErrScanPending = errors.New("scan not completed")

	// ErrScanTimeout is returned when the poll attempt cap is exhausted
	// before the scan service reports a terminal verdict. The job is retried
	// by the queue; the file stays pending.
	ErrScanTimeout = errors.New("scan polling attempts exhausted")
	// ErrScanTransient marks a scan-service network failure worth retrying.
	ErrScanTransient = errors.New("scan service unavailable")

	// ErrStorageDelete reports a failed delete of quarantined bytes. The file
	// record is still flipped to dangerous so a later sweep can reconcile.
	ErrStorageDelete = errors.New("stored bytes could not be deleted")
)
