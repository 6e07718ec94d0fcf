package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScanStats are the verdict counters reported by the external scan service.
type ScanStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
}

// Dangerous classifies a terminal verdict: any nonzero malicious or
// suspicious count quarantines the file.
func (s ScanStats) Dangerous() bool {
	return s.Malicious > 0 || s.Suspicious > 0
}

// AnalysisRecord is the durable verdict of one completed scan. Records are
// immutable after insertion; a superseding verdict is a new record.
type AnalysisRecord struct {
	AnalysisID         uuid.UUID
	FileID             uuid.UUID
	OwnerID            uuid.UUID
	ScanDate           time.Time
	Stats              ScanStats
	ExternalAnalysisID string
	Status             ScanStatus
}
