package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
	creds map[uuid.UUID]domain.APICredential
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users: map[uuid.UUID]domain.User{},
		creds: map[uuid.UUID]domain.APICredential{},
	}
}

func (f *fakeUsers) CreateWithCredentialTx(_ context.Context, params ports.CreateUserTxParams) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == params.Email {
			return domain.User{}, domain.ErrConflict
		}
	}
	user := domain.User{
		UserID:       uuid.New(),
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: params.PasswordHash,
		CreatedAt:    params.CreatedAtUTC,
	}
	f.users[user.UserID] = user
	f.creds[user.UserID] = domain.APICredential{
		CredentialID: uuid.New(),
		UserID:       user.UserID,
		APIKey:       params.APIKey,
		SecretHash:   params.SecretHash,
		CreatedAt:    params.CreatedAtUTC,
	}
	return user, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrNotFound
}

func (f *fakeUsers) GetByAPIKey(_ context.Context, apiKey string) (domain.APICredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.creds {
		if c.APIKey == apiKey {
			return c, nil
		}
	}
	return domain.APICredential{}, domain.ErrNotFound
}

func (f *fakeUsers) GetByUser(_ context.Context, userID uuid.UUID) (domain.APICredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.creds[userID]; ok {
		return c, nil
	}
	return domain.APICredential{}, domain.ErrNotFound
}

type fakeFiles struct {
	mu    sync.Mutex
	files map[uuid.UUID]domain.File
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: map[uuid.UUID]domain.File{}}
}

func (f *fakeFiles) Create(_ context.Context, file domain.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[file.FileID]; ok {
		return domain.ErrConflict
	}
	f.files[file.FileID] = file
	return nil
}

func (f *fakeFiles) GetByID(_ context.Context, fileID uuid.UUID) (domain.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.files[fileID]; ok {
		return file, nil
	}
	return domain.File{}, domain.ErrNotFound
}

func (f *fakeFiles) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.File
	for _, file := range f.files {
		if file.OwnerID == ownerID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeFiles) SetScanStatus(_ context.Context, fileID uuid.UUID, status domain.ScanStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[fileID]
	if !ok {
		return domain.ErrNotFound
	}
	file.ScanStatus = status
	f.files[fileID] = file
	return nil
}

func (f *fakeFiles) Delete(_ context.Context, fileID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[fileID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.files, fileID)
	return nil
}

func (f *fakeFiles) GrantTx(_ context.Context, grant domain.Grant) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[grant.FileID]
	if !ok || file.OwnerID != grant.GranterID {
		return false, domain.ErrNotFound
	}
	for _, existing := range file.SharedWith {
		if existing.GranteeEmail == grant.GranteeEmail {
			return false, nil
		}
	}
	file.SharedWith = append(file.SharedWith, grant)
	f.files[grant.FileID] = file
	return true, nil
}

func (f *fakeFiles) RevokeTx(_ context.Context, ownerID uuid.UUID, granteeEmail string, granteeID uuid.UUID) (domain.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, file := range f.files {
		if file.OwnerID != ownerID {
			continue
		}
		for i, g := range file.SharedWith {
			if g.GranteeEmail == granteeEmail && g.GranteeID == granteeID {
				file.SharedWith = append(file.SharedWith[:i], file.SharedWith[i+1:]...)
				f.files[id] = file
				return g, nil
			}
		}
	}
	return domain.Grant{}, domain.ErrGrantNotFound
}

func (f *fakeFiles) FindGrant(_ context.Context, fileID uuid.UUID, filePath, granteeEmail string) (domain.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[fileID]
	if !ok {
		return domain.Grant{}, domain.ErrNotFound
	}
	for _, g := range file.SharedWith {
		if g.FilePath == filePath && g.GranteeEmail == granteeEmail {
			return g, nil
		}
	}
	return domain.Grant{}, domain.ErrGrantNotFound
}

type fakeAnalyses struct {
	mu      sync.Mutex
	records []domain.AnalysisRecord
}

func (f *fakeAnalyses) Insert(_ context.Context, record domain.AnalysisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeAnalyses) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AnalysisRecord
	for _, r := range f.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAnalyses) ListByFile(_ context.Context, fileID uuid.UUID) ([]domain.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AnalysisRecord
	for _, r := range f.records {
		if r.FileID == fileID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memCapStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemCapStore() *memCapStore {
	return &memCapStore{entries: map[string]string{}}
}

func (s *memCapStore) Put(_ context.Context, subjectID, canonicalURL, signature string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[subjectID+"|"+canonicalURL] = signature
	return nil
}

func (s *memCapStore) Take(_ context.Context, subjectID, canonicalURL string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subjectID + "|" + canonicalURL
	signature, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	delete(s.entries, key)
	return signature, true, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []any
	failWith  error
}

func (p *fakePublisher) Publish(_ context.Context, payload any) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, payload)
	return nil
}

func (p *fakePublisher) events() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.published...)
}

type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
	dirs  map[string]bool
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: map[string][]byte{}, dirs: map[string]bool{}}
}

func (b *fakeBlobs) Save(_ context.Context, blobPath string, content io.Reader) (int64, bool, error) {
	raw, err := io.ReadAll(content)
	if err != nil {
		return 0, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	dir := path.Dir(blobPath)
	dirCreated := !b.dirs[dir]
	b.dirs[dir] = true
	if _, ok := b.blobs[blobPath]; ok {
		return 0, dirCreated, fmt.Errorf("blob %q: %w", blobPath, fs.ErrExist)
	}
	b.blobs[blobPath] = raw
	return int64(len(raw)), dirCreated, nil
}

func (b *fakeBlobs) Open(_ context.Context, path string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.blobs[path]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", path)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (b *fakeBlobs) Exists(_ context.Context, path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[path]
	return ok
}

func (b *fakeBlobs) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, path)
	return nil
}

func (b *fakeBlobs) DeleteDir(_ context.Context, dir string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for blobPath := range b.blobs {
		if strings.HasPrefix(blobPath, dir+"/") {
			// Not empty, matching the disk store contract.
			return nil
		}
	}
	delete(b.dirs, dir)
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return fmt.Errorf("hash mismatch")
	}
	return nil
}

type staticTokenSigner struct {
	mu     sync.Mutex
	tokens map[string]ports.AuthClaims
}

func newStaticTokenSigner() *staticTokenSigner {
	return &staticTokenSigner{tokens: map[string]ports.AuthClaims{}}
}

func (s *staticTokenSigner) Sign(claims ports.AuthClaims) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := "token-" + uuid.NewString()
	s.tokens[token] = claims
	return token, nil
}

func (s *staticTokenSigner) ParseAndValidate(raw string) (ports.AuthClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims, ok := s.tokens[raw]
	if !ok {
		return ports.AuthClaims{}, fmt.Errorf("unknown token")
	}
	return claims, nil
}

type testHarness struct {
	svc       *Service
	users     *fakeUsers
	files     *fakeFiles
	analyses  *fakeAnalyses
	capStore  *memCapStore
	publisher *fakePublisher
	blobs     *fakeBlobs
	signer    ports.CapabilitySigner
}

type testSigner struct{}

func (testSigner) Sign(payload domain.CapabilityPayload) string {
	return fmt.Sprintf("sig(%s|%s|%d|%s|%s)", payload.Path, payload.Operation, payload.Exp, payload.SubjectID, payload.Secret)
}

func newTestHarness() *testHarness {
	users := newFakeUsers()
	files := newFakeFiles()
	analyses := &fakeAnalyses{}
	capStore := newMemCapStore()
	publisher := &fakePublisher{}
	blobs := newFakeBlobs()
	signer := testSigner{}

	svc := NewService(Dependencies{
		Config: Config{
			PublicBaseURL: "http://localhost:8080",
			CapabilityTTL: 5 * time.Minute,
			TokenTTL:      48 * time.Hour,
		},
		Users:       users,
		Credentials: users,
		Files:       files,
		Analyses:    analyses,
		CapStore:    capStore,
		CapSigner:   signer,
		Publisher:   publisher,
		Blobs:       blobs,
		Hasher:      plainHasher{},
		TokenSigner: newStaticTokenSigner(),
	})

	return &testHarness{
		svc:       svc,
		users:     users,
		files:     files,
		analyses:  analyses,
		capStore:  capStore,
		publisher: publisher,
		blobs:     blobs,
		signer:    signer,
	}
}

func (h *testHarness) register(ctx context.Context, email, name string) RegisterResponse {
	res, err := h.svc.Register(ctx, RegisterRequest{Email: email, Password: "correct-horse", Name: name})
	if err != nil {
		panic(err)
	}
	return res
}
