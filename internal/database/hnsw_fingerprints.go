package database

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWFingerprintIndex wraps an HNSW graph for near-duplicate scan lookup,
// keyed by ScanID rather than a photo UID.
type HNSWFingerprintIndex struct {
	graph      *hnsw.Graph[string]
	savedGraph *hnsw.SavedGraph[string] // For persistence
	idToScan   map[string]*StoredScan
	mu         sync.RWMutex
	path       string // Path to save/load index
}

// euclideanDistance32 adapts EuclideanDistance to the float32 signature
// hnsw.Graph.Distance expects.
func euclideanDistance32(a, b []float32) float32 {
	return float32(EuclideanDistance(a, b))
}

// NewHNSWFingerprintIndex creates a new empty fingerprint index.
func NewHNSWFingerprintIndex() *HNSWFingerprintIndex {
	return &HNSWFingerprintIndex{
		idToScan: make(map[string]*StoredScan),
	}
}

// BuildFromScans builds the index from a slice of stored scans.
func (h *HNSWFingerprintIndex) BuildFromScans(scans []StoredScan) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(scans) == 0 {
		h.graph = nil
		h.savedGraph = nil
		h.idToScan = make(map[string]*StoredScan)
		return nil
	}

	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	// Fingerprint vectors are unnormalized 0/1 Hamming-distance encodings,
	// not normalized embeddings, so cosine distance doesn't track
	// nearness the way it does for the teacher's embedding graphs. Use
	// Euclidean distance to agree with the Postgres backend's
	// vector_l2_ops index and <-> queries (see fingerprint_vector.go).
	g.Distance = euclideanDistance32

	h.idToScan = make(map[string]*StoredScan, len(scans))

	for i := range scans {
		s := &scans[i]
		if len(s.Fingerprint) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(s.ScanID, s.Fingerprint))
		h.idToScan[s.ScanID] = s
	}

	h.graph = g
	return nil
}

// Search finds the k nearest neighbors to the query fingerprint. Returns
// scan IDs and their distances.
func (h *HNSWFingerprintIndex) Search(query []float32, k int) ([]string, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil && h.savedGraph == nil {
		return nil, nil, fmt.Errorf("index not initialized")
	}

	var neighbors []hnsw.Node[string]
	if h.savedGraph != nil {
		neighbors = h.savedGraph.Search(query, k)
	} else {
		neighbors = h.graph.Search(query, k)
	}

	ids := make([]string, len(neighbors))
	distances := make([]float64, len(neighbors))

	for i, n := range neighbors {
		ids[i] = n.Key
		if s, ok := h.idToScan[n.Key]; ok && len(s.Fingerprint) > 0 {
			distances[i] = EuclideanDistance(query, s.Fingerprint)
		}
	}

	return ids, distances, nil
}

// SearchWithDistance finds the k nearest neighbors with distance filtering.
// Returns scan IDs and distances, filtered to ones within maxDistance —
// the near-duplicate test per spec section 8's dedupe expectations.
func (h *HNSWFingerprintIndex) SearchWithDistance(query []float32, k int, maxDistance float64) ([]string, []float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil && h.savedGraph == nil {
		return nil, nil, fmt.Errorf("index not initialized")
	}

	searchK := k * HNSWSearchMultiplier
	if searchK < 100 {
		searchK = 100
	}

	var neighbors []hnsw.Node[string]
	if h.savedGraph != nil {
		neighbors = h.savedGraph.Search(query, searchK)
	} else {
		neighbors = h.graph.Search(query, searchK)
	}

	ids := make([]string, 0, k)
	distances := make([]float64, 0, k)

	for _, n := range neighbors {
		s, ok := h.idToScan[n.Key]
		if !ok || len(s.Fingerprint) == 0 {
			continue
		}
		dist := EuclideanDistance(query, s.Fingerprint)
		if dist >= maxDistance {
			continue
		}
		ids = append(ids, n.Key)
		distances = append(distances, dist)
		if len(ids) >= k {
			break
		}
	}

	return ids, distances, nil
}

// GetScan returns the stored scan for a given scan ID.
func (h *HNSWFingerprintIndex) GetScan(scanID string) *StoredScan {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.idToScan[scanID]
}

// SetPath sets the path for saving/loading the index.
func (h *HNSWFingerprintIndex) SetPath(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.path = path
}

// Save persists the index to disk.
func (h *HNSWFingerprintIndex) Save() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.path == "" {
		return nil // No path set
	}

	if h.graph == nil && h.savedGraph == nil {
		os.Remove(h.path)
		return nil
	}

	f, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("failed to create HNSW fingerprint index file: %w", err)
	}
	defer f.Close()

	if h.savedGraph != nil {
		return h.savedGraph.Export(f)
	}
	return h.graph.Export(f)
}

// Load loads the index from disk.
func (h *HNSWFingerprintIndex) Load(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("index file not found: %s", path)
	}

	saved, err := hnsw.LoadSavedGraph[string](path)
	if err != nil {
		return fmt.Errorf("failed to load HNSW fingerprint index: %w", err)
	}

	h.savedGraph = saved
	return nil
}

// Count returns the number of indexed scans.
func (h *HNSWFingerprintIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToScan)
}

// IsEmpty returns true if the index has no graph data loaded.
func (h *HNSWFingerprintIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil && h.savedGraph == nil
}

// RebuildFromScans rebuilds the idToScan map, used after loading the graph
// from disk (the graph itself carries only keys and vectors).
func (h *HNSWFingerprintIndex) RebuildFromScans(scans []StoredScan) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.idToScan = make(map[string]*StoredScan, len(scans))
	for i := range scans {
		h.idToScan[scans[i].ScanID] = &scans[i]
	}
}

// HNSWFingerprintIndexMetadata stores metadata for freshness checking.
type HNSWFingerprintIndexMetadata struct {
	ScanCount int64 `json:"scan_count"`
}

// LoadHNSWFingerprintMetadata loads just the metadata file for staleness
// checking.
func LoadHNSWFingerprintMetadata(basePath string) (*HNSWFingerprintIndexMetadata, error) {
	metaPath := basePath + ".meta"
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}
	var meta HNSWFingerprintIndexMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SaveWithScanMetadata saves the index and scan metadata to disk.
func (h *HNSWFingerprintIndex) SaveWithScanMetadata(basePath string, metadata HNSWFingerprintIndexMetadata) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil && h.savedGraph == nil {
		os.Remove(basePath)
		os.Remove(basePath + ".meta")
		os.Remove(basePath + ".scans")
		return nil
	}

	f, err := os.Create(basePath)
	if err != nil {
		return fmt.Errorf("failed to create HNSW fingerprint index file: %w", err)
	}
	if h.savedGraph != nil {
		if err := h.savedGraph.Export(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to export HNSW graph from savedGraph: %w", err)
		}
	} else {
		if err := h.graph.Export(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to export HNSW graph: %w", err)
		}
	}
	f.Close()

	metaPath := basePath + ".meta"
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, metaData, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	scanPath := basePath + ".scans"
	scanFile, err := os.Create(scanPath)
	if err != nil {
		return fmt.Errorf("failed to create scans file: %w", err)
	}
	defer scanFile.Close()

	scans := make([]StoredScan, 0, len(h.idToScan))
	for _, s := range h.idToScan {
		scans = append(scans, *s)
	}

	encoder := gob.NewEncoder(scanFile)
	if err := encoder.Encode(scans); err != nil {
		return fmt.Errorf("failed to encode scans: %w", err)
	}

	return nil
}

// LoadWithScanMetadata loads the index and scan metadata from disk.
func (h *HNSWFingerprintIndex) LoadWithScanMetadata(basePath string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.path = basePath

	saved, err := hnsw.LoadSavedGraph[string](basePath)
	if err != nil {
		return fmt.Errorf("failed to load HNSW fingerprint index: %w", err)
	}
	h.savedGraph = saved

	scanPath := basePath + ".scans"
	scanFile, err := os.Open(scanPath)
	if err != nil {
		return fmt.Errorf("failed to open scans file: %w", err)
	}
	defer scanFile.Close()

	var scans []StoredScan
	decoder := gob.NewDecoder(scanFile)
	if err := decoder.Decode(&scans); err != nil {
		return fmt.Errorf("failed to decode scans: %w", err)
	}

	h.idToScan = make(map[string]*StoredScan, len(scans))
	for i := range scans {
		h.idToScan[scans[i].ScanID] = &scans[i]
	}

	return nil
}
