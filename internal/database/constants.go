package database

// FingerprintDim is the length of the bit-expanded fingerprint vector: 64
// pHash bits followed by 64 dHash bits, each expanded to 0/1, so Euclidean
// distance over the vector tracks Hamming distance over the two hashes.
const FingerprintDim = 128

// HNSW index parameters for the 128-dim scan fingerprint vectors.
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100

	// HNSWEfConstruction is used during index building.
	// Higher values improve index quality but slow down construction.
	HNSWEfConstruction = 200

	// HNSWSearchMultiplier is the factor to request more candidates from HNSW
	// to ensure we have enough after distance filtering.
	HNSWSearchMultiplier = 3
)
