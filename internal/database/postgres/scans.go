package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/kozaktomas/omrscanner/internal/database"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// ScanRepository provides PostgreSQL-backed scan-result storage with an
// optional in-memory HNSW index over each scan's perceptual fingerprint,
// used to flag near-duplicate sheet submissions.
type ScanRepository struct {
	pool          *Pool
	hnswIndex     *database.HNSWFingerprintIndex
	hnswEnabled   bool
	hnswIndexPath string
	hnswMu        sync.RWMutex
}

// NewScanRepository creates a new PostgreSQL scan repository.
func NewScanRepository(pool *Pool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

// Get retrieves a stored scan by ID, returns nil if not found.
func (r *ScanRepository) Get(ctx context.Context, scanID string) (*database.StoredScan, error) {
	query := `
		SELECT scan_id, template_id, fingerprint, phash_bits, dhash_bits,
		       detected_answers, score, created_at
		FROM scan_results
		WHERE scan_id = $1
	`

	var s database.StoredScan
	var vec pgvector.Vector
	var detectedAnswers []byte
	var score sql.NullFloat64

	err := r.pool.QueryRow(ctx, query, scanID).Scan(
		&s.ScanID, &s.TemplateID, &vec, &s.PHashBits, &s.DHashBits,
		&detectedAnswers, &score, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query scan: %w", err)
	}

	s.Fingerprint = vec.Slice()
	if err := json.Unmarshal(detectedAnswers, &s.DetectedAnswers); err != nil {
		return nil, fmt.Errorf("decode detected answers: %w", err)
	}
	if score.Valid {
		s.Score = &score.Float64
	}
	return &s, nil
}

// Count returns the total number of scans stored.
func (r *ScanRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM scan_results").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scans: %w", err)
	}
	return count, nil
}

// Save stores a scan result (upsert by ScanID).
func (r *ScanRepository) Save(ctx context.Context, s database.StoredScan) error {
	detectedAnswers, err := json.Marshal(s.DetectedAnswers)
	if err != nil {
		return fmt.Errorf("encode detected answers: %w", err)
	}

	query := `
		INSERT INTO scan_results
			(scan_id, template_id, fingerprint, phash_bits, dhash_bits, detected_answers, score)
		VALUES ($1, $2, $3::vector, $4, $5, $6, $7)
		ON CONFLICT (scan_id) DO UPDATE SET
			template_id      = EXCLUDED.template_id,
			fingerprint      = EXCLUDED.fingerprint,
			phash_bits       = EXCLUDED.phash_bits,
			dhash_bits       = EXCLUDED.dhash_bits,
			detected_answers = EXCLUDED.detected_answers,
			score            = EXCLUDED.score
	`

	vec := pgvector.NewVector(s.Fingerprint)
	_, err = r.pool.Exec(ctx, query, s.ScanID, s.TemplateID, vec, s.PHashBits, s.DHashBits, detectedAnswers, s.Score)
	if err != nil {
		return fmt.Errorf("save scan: %w", err)
	}

	r.hnswMu.RLock()
	hnswEnabled := r.hnswEnabled && r.hnswIndex != nil
	r.hnswMu.RUnlock()
	if hnswEnabled {
		_ = r.RebuildHNSW(ctx)
	}
	return nil
}

// Delete removes a scan result.
func (r *ScanRepository) Delete(ctx context.Context, scanID string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM scan_results WHERE scan_id = $1", scanID); err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}

	r.hnswMu.RLock()
	hnswEnabled := r.hnswEnabled && r.hnswIndex != nil
	r.hnswMu.RUnlock()
	if hnswEnabled {
		_ = r.RebuildHNSW(ctx)
	}
	return nil
}

// FindNearDuplicates finds stored scans whose fingerprint is within
// maxDistance of the given fingerprint. Uses the in-memory HNSW index if
// enabled, otherwise falls back to a pgvector query.
func (r *ScanRepository) FindNearDuplicates(ctx context.Context, fingerprint []float32, limit int, maxDistance float64) ([]database.StoredScan, []float64, error) {
	r.hnswMu.RLock()
	hnswEnabled := r.hnswEnabled && r.hnswIndex != nil
	r.hnswMu.RUnlock()

	if hnswEnabled {
		return r.findNearDuplicatesHNSW(fingerprint, limit, maxDistance)
	}
	return r.findNearDuplicatesPostgres(ctx, fingerprint, limit, maxDistance)
}

func (r *ScanRepository) findNearDuplicatesHNSW(fingerprint []float32, limit int, maxDistance float64) ([]database.StoredScan, []float64, error) {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()

	if r.hnswIndex == nil {
		return nil, nil, errors.New("HNSW index not initialized")
	}

	searchK := max(limit*database.HNSWSearchMultiplier, 100)
	ids, distances, err := r.hnswIndex.SearchWithDistance(fingerprint, searchK, maxDistance)
	if err != nil {
		return nil, nil, fmt.Errorf("HNSW search: %w", err)
	}

	results := make([]database.StoredScan, 0, limit)
	distancesOut := make([]float64, 0, limit)
	for i, id := range ids {
		s := r.hnswIndex.GetScan(id)
		if s == nil {
			continue
		}
		results = append(results, *s)
		distancesOut = append(distancesOut, distances[i])
		if len(results) >= limit {
			break
		}
	}
	return results, distancesOut, nil
}

func (r *ScanRepository) findNearDuplicatesPostgres(ctx context.Context, fingerprint []float32, limit int, maxDistance float64) ([]database.StoredScan, []float64, error) {
	tx, err := r.pool.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", database.HNSWEfSearch)); err != nil {
		return nil, nil, fmt.Errorf("set ef_search: %w", err)
	}

	query := `
		SELECT scan_id, template_id, fingerprint, phash_bits, dhash_bits,
		       detected_answers, score, created_at,
		       fingerprint <-> $1::vector AS distance
		FROM scan_results
		WHERE fingerprint <-> $1::vector < $2
		ORDER BY distance
		LIMIT $3
	`

	vec := pgvector.NewVector(fingerprint)
	rows, err := tx.QueryContext(ctx, query, vec, maxDistance, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query near-duplicate scans: %w", err)
	}
	defer rows.Close()

	var results []database.StoredScan
	var distances []float64
	for rows.Next() {
		var s database.StoredScan
		var fpVec pgvector.Vector
		var detectedAnswers []byte
		var score sql.NullFloat64
		var dist float64

		if err := rows.Scan(
			&s.ScanID, &s.TemplateID, &fpVec, &s.PHashBits, &s.DHashBits,
			&detectedAnswers, &score, &s.CreatedAt, &dist,
		); err != nil {
			return nil, nil, fmt.Errorf("scan result row: %w", err)
		}
		s.Fingerprint = fpVec.Slice()
		if err := json.Unmarshal(detectedAnswers, &s.DetectedAnswers); err != nil {
			return nil, nil, fmt.Errorf("decode detected answers: %w", err)
		}
		if score.Valid {
			s.Score = &score.Float64
		}
		results = append(results, s)
		distances = append(distances, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate near-duplicate scans: %w", err)
	}

	return results, distances, nil
}

// GetAllScans retrieves every stored scan, used to (re)build the in-memory
// HNSW index.
func (r *ScanRepository) GetAllScans(ctx context.Context) ([]database.StoredScan, error) {
	query := `
		SELECT scan_id, template_id, fingerprint, phash_bits, dhash_bits,
		       detected_answers, score, created_at
		FROM scan_results
		ORDER BY scan_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all scans: %w", err)
	}
	defer rows.Close()

	var scans []database.StoredScan
	for rows.Next() {
		var s database.StoredScan
		var vec pgvector.Vector
		var detectedAnswers []byte
		var score sql.NullFloat64

		if err := rows.Scan(
			&s.ScanID, &s.TemplateID, &vec, &s.PHashBits, &s.DHashBits,
			&detectedAnswers, &score, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		s.Fingerprint = vec.Slice()
		if err := json.Unmarshal(detectedAnswers, &s.DetectedAnswers); err != nil {
			return nil, fmt.Errorf("decode detected answers: %w", err)
		}
		if score.Valid {
			s.Score = &score.Float64
		}
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}

	return scans, nil
}

// EnableHNSW builds (or loads from disk) an in-memory HNSW index for
// O(log N) near-duplicate lookups. Should be called once at startup.
func (r *ScanRepository) EnableHNSW(ctx context.Context, indexPath string) error {
	r.hnswMu.Lock()
	defer r.hnswMu.Unlock()

	r.hnswIndexPath = indexPath

	var dbCount int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM scan_results").Scan(&dbCount); err != nil {
		return fmt.Errorf("failed to get scan count: %w", err)
	}

	if indexPath != "" {
		if metadata, err := database.LoadHNSWFingerprintMetadata(indexPath); err == nil && metadata.ScanCount == dbCount {
			idx := database.NewHNSWFingerprintIndex()
			if err := idx.LoadWithScanMetadata(indexPath); err == nil && !idx.IsEmpty() {
				r.hnswIndex = idx
				r.hnswEnabled = true
				return nil
			}
		}
	}

	scans, err := r.GetAllScans(ctx)
	if err != nil {
		return fmt.Errorf("failed to load scans: %w", err)
	}

	r.hnswIndex = database.NewHNSWFingerprintIndex()
	if err := r.hnswIndex.BuildFromScans(scans); err != nil {
		return fmt.Errorf("failed to build HNSW fingerprint index: %w", err)
	}

	if indexPath != "" && len(scans) > 0 {
		metadata := database.HNSWFingerprintIndexMetadata{ScanCount: dbCount}
		if err := r.hnswIndex.SaveWithScanMetadata(indexPath, metadata); err != nil {
			fmt.Printf("Warning: failed to save HNSW fingerprint index to disk: %v\n", err)
		}
	}

	r.hnswEnabled = true
	return nil
}

// DisableHNSW disables the in-memory HNSW index, falling back to pgvector
// queries.
func (r *ScanRepository) DisableHNSW() {
	r.hnswMu.Lock()
	defer r.hnswMu.Unlock()
	r.hnswEnabled = false
	r.hnswIndex = nil
}

// IsHNSWEnabled returns whether the in-memory HNSW index is enabled.
func (r *ScanRepository) IsHNSWEnabled() bool {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	return r.hnswEnabled && r.hnswIndex != nil
}

// HNSWCount returns the number of scans in the HNSW index.
func (r *ScanRepository) HNSWCount() int {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	if r.hnswIndex == nil {
		return 0
	}
	return r.hnswIndex.Count()
}

// RebuildHNSW rebuilds the HNSW index from PostgreSQL data.
func (r *ScanRepository) RebuildHNSW(ctx context.Context) error {
	r.hnswMu.RLock()
	indexPath := r.hnswIndexPath
	r.hnswMu.RUnlock()
	return r.EnableHNSW(ctx, indexPath)
}

// SaveHNSWIndex saves the current HNSW index to disk (if path configured).
func (r *ScanRepository) SaveHNSWIndex() error {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()

	if r.hnswIndexPath == "" || r.hnswIndex == nil {
		return nil
	}

	ctx := context.Background()
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM scan_results").Scan(&count); err != nil {
		return fmt.Errorf("failed to get scan count: %w", err)
	}

	metadata := database.HNSWFingerprintIndexMetadata{ScanCount: count}
	if err := r.hnswIndex.SaveWithScanMetadata(r.hnswIndexPath, metadata); err != nil {
		return fmt.Errorf("saving HNSW fingerprint index: %w", err)
	}
	return nil
}

// CountByTemplateIDs returns the number of scans whose template_id is in
// the given list, mirroring the teacher's CountByUIDs pattern for ANY($1)
// membership queries.
func (r *ScanRepository) CountByTemplateIDs(ctx context.Context, templateIDs []string) (int, error) {
	if len(templateIDs) == 0 {
		return 0, nil
	}
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM scan_results WHERE template_id = ANY($1)", pq.Array(templateIDs)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scans by template IDs: %w", err)
	}
	return count, nil
}

var _ database.ScanWriter = (*ScanRepository)(nil)
var _ database.HNSWRebuilder = (*ScanRepository)(nil)
