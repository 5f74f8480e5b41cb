// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// File upload constants
const (
	// MaxUploadSize is the maximum sheet-image upload size in bytes (25MB).
	MaxUploadSize = 25 << 20
)

// Near-duplicate detection constants
const (
	// DefaultDuplicateSearchLimit bounds how many near-duplicate candidates
	// a single scan lookup returns.
	DefaultDuplicateSearchLimit = 10
)
