package database

import "github.com/kozaktomas/omrscanner/internal/fingerprint"

// FingerprintVector expands a pHash/dHash pair into a fixed-length 0/1
// vector suitable for an ANN index (HNSW or pgvector), so near-duplicate
// scanned-sheet lookups can reuse the same vector-search infrastructure as
// a cosine/Euclidean embedding index instead of a bespoke Hamming-distance
// scan of every stored hash.
func FingerprintVector(h *fingerprint.HashResult) []float32 {
	v := make([]float32, FingerprintDim)
	for i := range 64 {
		if h.PHashBits&(1<<(63-i)) != 0 {
			v[i] = 1
		}
		if h.DHashBits&(1<<(63-i)) != 0 {
			v[64+i] = 1
		}
	}
	return v
}
