// Package application implements the use cases over the ports layer. It
// holds no transport or storage detail; adapters are injected at bootstrap.
package application

import (
	"time"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// Config is the slice of runtime configuration the use cases need.
type Config struct {
	// PublicBaseURL prefixes every issued capability URL. The verifier
	// reconstructs the canonical URL from the same base, so issue and verify
	// must agree on it.
	PublicBaseURL string
	CapabilityTTL time.Duration
	TokenTTL      time.Duration
}

type Service struct {
	cfg         Config
	users       ports.UserRepository
	credentials ports.CredentialRepository
	files       ports.FileRepository
	analyses    ports.AnalysisRepository
	capStore    ports.CapabilityStore
	capSigner   ports.CapabilitySigner
	publisher   ports.EventPublisher
	blobs       ports.BlobStore
	hasher      ports.PasswordHasher
	tokenSigner ports.TokenSigner
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Users       ports.UserRepository
	Credentials ports.CredentialRepository
	Files       ports.FileRepository
	Analyses    ports.AnalysisRepository
	CapStore    ports.CapabilityStore
	CapSigner   ports.CapabilitySigner
	Publisher   ports.EventPublisher
	Blobs       ports.BlobStore
	Hasher      ports.PasswordHasher
	TokenSigner ports.TokenSigner
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.CapabilityTTL <= 0 {
		cfg.CapabilityTTL = 5 * time.Minute
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 48 * time.Hour
	}
	return &Service{
		cfg:         cfg,
		users:       deps.Users,
		credentials: deps.Credentials,
		files:       deps.Files,
		analyses:    deps.Analyses,
		capStore:    deps.CapStore,
		capSigner:   deps.CapSigner,
		publisher:   deps.Publisher,
		blobs:       deps.Blobs,
		hasher:      deps.Hasher,
		tokenSigner: deps.TokenSigner,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}
