package postgres

import (
	"gorm.io/gorm"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

type Repositories struct {
	Users       ports.UserRepository
	Credentials ports.CredentialRepository
	Files       ports.FileRepository
	Analyses    ports.AnalysisRepository
	Jobs        ports.JobQueue
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:       &userRepository{db: db},
		Credentials: &credentialRepository{db: db},
		Files:       &fileRepository{db: db},
		Analyses:    &analysisRepository{db: db},
		Jobs:        &jobRepository{db: db},
	}
}
