package database

import (
	"context"
	"fmt"
)

// Registration hooks that avoid an import cycle between internal/database
// and internal/database/postgres: the caller that builds the concrete
// backend (cmd/serve.go at startup) registers its constructor here instead
// of this package importing it directly.
var (
	postgresScanWriter     func() ScanWriter
	postgresTemplateWriter func() TemplateWriter
	postgresScanHNSW       HNSWRebuilder
	postgresInitialized    bool
)

// RegisterPostgresBackend registers the PostgreSQL-backed scan repository
// constructor.
func RegisterPostgresBackend(writer func() ScanWriter) {
	postgresScanWriter = writer
	postgresInitialized = true
}

// RegisterTemplateBackend registers the PostgreSQL-backed template
// repository constructor.
func RegisterTemplateBackend(writer func() TemplateWriter) {
	postgresTemplateWriter = writer
}

// GetTemplateWriter returns a TemplateWriter from the PostgreSQL backend.
func GetTemplateWriter(ctx context.Context) (TemplateWriter, error) {
	if !postgresInitialized {
		return nil, fmt.Errorf("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	if postgresTemplateWriter == nil {
		return nil, fmt.Errorf("PostgreSQL template writer not registered")
	}
	return postgresTemplateWriter(), nil
}

// RegisterScanHNSWRebuilder registers the HNSW rebuilder for the scan
// repository, so the index can be rebuilt/persisted without a concrete
// type reference.
func RegisterScanHNSWRebuilder(rebuilder HNSWRebuilder) {
	postgresScanHNSW = rebuilder
}

// GetScanHNSWRebuilder returns the registered scan HNSW rebuilder, or nil
// if none is registered.
func GetScanHNSWRebuilder() HNSWRebuilder {
	return postgresScanHNSW
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	return postgresInitialized
}

// GetScanWriter returns a ScanWriter from the PostgreSQL backend.
func GetScanWriter(ctx context.Context) (ScanWriter, error) {
	if !postgresInitialized {
		return nil, fmt.Errorf("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	if postgresScanWriter == nil {
		return nil, fmt.Errorf("PostgreSQL scan writer not registered")
	}
	return postgresScanWriter(), nil
}
