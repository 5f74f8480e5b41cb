package database

import "context"

// ScanReader provides read-only access to persisted scan results.
type ScanReader interface {
	// Get retrieves a stored scan by ID, returns nil if not found.
	Get(ctx context.Context, scanID string) (*StoredScan, error)
	// Count returns the total number of scans stored.
	Count(ctx context.Context) (int, error)
	// FindNearDuplicates finds stored scans whose fingerprint is within
	// maxDistance of the given fingerprint, ordered nearest-first.
	FindNearDuplicates(ctx context.Context, fingerprint []float32, limit int, maxDistance float64) ([]StoredScan, []float64, error)
}

// ScanWriter provides write access to scan results.
type ScanWriter interface {
	ScanReader

	// Save stores a scan result (upsert by ScanID).
	Save(ctx context.Context, scan StoredScan) error
	// Delete removes a scan result.
	Delete(ctx context.Context, scanID string) error
}

// TemplateWriter provides read/write access to saved sheet templates.
type TemplateWriter interface {
	// Get retrieves a saved template by ID, returns nil if not found.
	Get(ctx context.Context, templateID string) (*StoredTemplate, error)
	// Save stores a template (upsert by TemplateID).
	Save(ctx context.Context, tpl StoredTemplate) error
}

// HNSWRebuilder is implemented by repositories backing an in-memory HNSW
// index, so the index can be rebuilt or persisted without the caller
// knowing the concrete repository type.
type HNSWRebuilder interface {
	RebuildHNSW(ctx context.Context) error
	HNSWCount() int
	IsHNSWEnabled() bool
	SaveHNSWIndex() error
}
