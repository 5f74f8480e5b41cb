package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Scan     ScanConfig
}

type HTTPConfig struct {
	Host string // defaults to 0.0.0.0
	Port int    // defaults to 8080
}

func (c *HTTPConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

type DatabaseConfig struct {
	URL                      string // PostgreSQL connection URL
	MaxOpenConns             int    // Maximum open connections (default 25)
	MaxIdleConns             int    // Maximum idle connections (default 5)
	HNSWFingerprintIndexPath string // Path to persist the near-duplicate-scan HNSW index (optional, if empty index is rebuilt on startup)
}

// ScanConfig holds the tuning knobs for the scanning pipeline that are
// reasonable to override per deployment without touching a sheet template.
// Defaults live in the embedded defaults.yaml; env vars win when set.
type ScanConfig struct {
	DefaultMarkerWidthRatio int `yaml:"defaultMarkerWidthRatio"` // loaded but not read by the scan pipeline; a template without sheetToMarkerWidthRatio gets the template package's built-in 17
	AnnotatedJPEGQuality    int `yaml:"annotatedJpegQuality"`    // loaded but not read by the scan pipeline; the scanner encodes the annotated overlay at a fixed quality of 90
	DuplicateHammingRadius  int `yaml:"duplicateHammingRadius"`  // Hamming-distance bound over the combined pHash+dHash bits; prior scans strictly below it are near-duplicates
}

type scanDefaults struct {
	Scan ScanConfig `yaml:"scan"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults scanDefaults
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// Embedded file; a parse failure here means the binary itself is
		// broken, not a deployment misconfiguration.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		HTTP: HTTPConfig{
			Host: envString("HTTP_HOST", "0.0.0.0"),
			Port: envInt("HTTP_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:                      os.Getenv("DATABASE_URL"),
			MaxOpenConns:             envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:             envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HNSWFingerprintIndexPath: os.Getenv("HNSW_FINGERPRINT_INDEX_PATH"),
		},
		Scan: ScanConfig{
			DefaultMarkerWidthRatio: envInt("SCAN_DEFAULT_MARKER_WIDTH_RATIO", defaults.Scan.DefaultMarkerWidthRatio),
			AnnotatedJPEGQuality:    envInt("SCAN_ANNOTATED_JPEG_QUALITY", defaults.Scan.AnnotatedJPEGQuality),
			DuplicateHammingRadius:  envInt("SCAN_DUPLICATE_HAMMING_RADIUS", defaults.Scan.DuplicateHammingRadius),
		},
	}
}
