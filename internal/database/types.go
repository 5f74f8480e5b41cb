package database

import "time"

// StoredScan represents a persisted scan result together with the
// perceptual fingerprint used for near-duplicate detection.
type StoredScan struct {
	ScanID          string
	TemplateID      string
	Fingerprint     []float32 // bit-expanded pHash+dHash vector, see FingerprintDim
	PHashBits       uint64
	DHashBits       uint64
	DetectedAnswers map[string]string
	Score           *float64
	CreatedAt       time.Time
}

// StoredTemplate is a named sheet template saved for reuse across scan
// requests, so callers can reference it by ID instead of resubmitting the
// full template JSON on every scan.
type StoredTemplate struct {
	TemplateID string
	Name       string
	Config     []byte // raw template.Config JSON
	CreatedAt  time.Time
}
