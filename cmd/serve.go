package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/omrscanner/internal/config"
	"github.com/kozaktomas/omrscanner/internal/database"
	"github.com/kozaktomas/omrscanner/internal/database/postgres"
	"github.com/kozaktomas/omrscanner/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scanning service",
	Long: `Start the omrscanner web server.
The web server exposes the bubble-sheet scanning pipeline over HTTP and
persists each scan's perceptual fingerprint for near-duplicate submission
detection. DATABASE_URL must be set; serve exits with an error otherwise.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// initScanHNSW builds or loads the near-duplicate-scan HNSW index for fast
// fingerprint lookups.
func initScanHNSW(ctx context.Context, scanRepo *postgres.ScanRepository, indexPath string) {
	if indexPath != "" {
		fmt.Printf("Loading scan fingerprint HNSW index from %s...\n", indexPath)
	} else {
		fmt.Printf("Building in-memory HNSW index for scan fingerprints...\n")
	}
	if err := scanRepo.EnableHNSW(ctx, indexPath); err != nil {
		fmt.Printf("Warning: Failed to build scan fingerprint HNSW index: %v\n", err)
		fmt.Printf("Near-duplicate detection will use PostgreSQL queries (slower)\n")
	} else if indexPath != "" {
		fmt.Printf("Scan fingerprint HNSW index ready with %d scans (persisted to %s)\n", scanRepo.HNSWCount(), indexPath)
	} else {
		fmt.Printf("Scan fingerprint HNSW index built with %d scans (in-memory only)\n", scanRepo.HNSWCount())
	}
}

// registerServeBackends registers the PostgreSQL-backed scan and template
// repositories as the active storage backends.
func registerServeBackends(scanRepo *postgres.ScanRepository, templateRepo *postgres.TemplateRepository) {
	database.RegisterPostgresBackend(func() database.ScanWriter { return scanRepo })
	database.RegisterScanHNSWRebuilder(scanRepo)
	database.RegisterTemplateBackend(func() database.TemplateWriter { return templateRepo })
	fmt.Printf("Using PostgreSQL backend\n")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// saveHNSWIndexes saves the scan fingerprint HNSW index to disk during shutdown.
func saveHNSWIndexes() {
	if rebuilder := database.GetScanHNSWRebuilder(); rebuilder != nil {
		if err := rebuilder.SaveHNSWIndex(); err != nil {
			fmt.Printf("Warning: failed to save scan fingerprint HNSW index: %v\n", err)
		} else {
			fmt.Println("Scan fingerprint HNSW index saved to disk")
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	pool := postgres.GetGlobalPool()
	scanRepo := postgres.NewScanRepository(pool)
	templateRepo := postgres.NewTemplateRepository(pool)
	ctx := context.Background()

	initScanHNSW(ctx, scanRepo, cfg.Database.HNSWFingerprintIndexPath)
	registerServeBackends(scanRepo, templateRepo)

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		saveHNSWIndexes()

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting omrscanner on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
