//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kozaktomas/omrscanner/internal/config"
	"github.com/kozaktomas/omrscanner/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testFingerprint(seed int) []float32 {
	v := make([]float32, database.FingerprintDim)
	v[seed%database.FingerprintDim] = 1
	return v
}

func TestScanRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewScanRepository(pool)

	score := 0.85
	scan := database.StoredScan{
		ScanID:          "scan-1",
		TemplateID:      "template-a",
		Fingerprint:     testFingerprint(0),
		PHashBits:       0x1,
		DHashBits:       0x2,
		DetectedAnswers: map[string]string{"q1": "a"},
		Score:           &score,
	}

	t.Run("SaveAndGet", func(t *testing.T) {
		if err := repo.Save(ctx, scan); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := repo.Get(ctx, "scan-1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got == nil {
			t.Fatal("expected a stored scan, got nil")
		}
		if got.TemplateID != "template-a" {
			t.Errorf("TemplateID = %q, want template-a", got.TemplateID)
		}
		if got.DetectedAnswers["q1"] != "a" {
			t.Errorf("DetectedAnswers[q1] = %q, want a", got.DetectedAnswers["q1"])
		}
		if got.Score == nil || *got.Score != score {
			t.Errorf("Score = %v, want %v", got.Score, score)
		}
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if count != 1 {
			t.Errorf("Count() = %d, want 1", count)
		}
	})

	t.Run("FindNearDuplicates", func(t *testing.T) {
		dup := scan
		dup.ScanID = "scan-2"
		dup.Fingerprint = testFingerprint(0)
		if err := repo.Save(ctx, dup); err != nil {
			t.Fatalf("Save duplicate: %v", err)
		}

		far := scan
		far.ScanID = "scan-3"
		far.Fingerprint = testFingerprint(64)
		if err := repo.Save(ctx, far); err != nil {
			t.Fatalf("Save far scan: %v", err)
		}

		matches, distances, err := repo.FindNearDuplicates(ctx, testFingerprint(0), 10, 0.5)
		if err != nil {
			t.Fatalf("FindNearDuplicates: %v", err)
		}
		if len(matches) != len(distances) {
			t.Fatalf("matches/distances length mismatch: %d vs %d", len(matches), len(distances))
		}
		for _, m := range matches {
			if m.ScanID == "scan-3" {
				t.Error("far scan should not be within 0.5 distance")
			}
		}
	})

	t.Run("EnableHNSW", func(t *testing.T) {
		if err := repo.EnableHNSW(ctx, ""); err != nil {
			t.Fatalf("EnableHNSW: %v", err)
		}
		if !repo.IsHNSWEnabled() {
			t.Fatal("expected HNSW to be enabled")
		}
		if repo.HNSWCount() != 3 {
			t.Errorf("HNSWCount() = %d, want 3", repo.HNSWCount())
		}

		matches, _, err := repo.FindNearDuplicates(ctx, testFingerprint(0), 10, 0.5)
		if err != nil {
			t.Fatalf("FindNearDuplicates via HNSW: %v", err)
		}
		if len(matches) == 0 {
			t.Error("expected at least one near-duplicate match via HNSW")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete(ctx, "scan-3"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		got, err := repo.Get(ctx, "scan-3")
		if err != nil {
			t.Fatalf("Get after delete: %v", err)
		}
		if got != nil {
			t.Error("expected scan to be deleted")
		}
	})
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	applied, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}

	expectedMigrations := []string{"0001_init.sql"}
	if len(applied) != len(expectedMigrations) {
		t.Fatalf("Expected %d migrations, got %d", len(expectedMigrations), len(applied))
	}
	for i, expected := range expectedMigrations {
		if applied[i] != expected {
			t.Errorf("Migration %d: expected '%s', got '%s'", i, expected, applied[i])
		}
	}
}
