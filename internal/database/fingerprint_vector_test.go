package database

import (
	"testing"

	"github.com/kozaktomas/omrscanner/internal/fingerprint"
)

func TestFingerprintVectorLength(t *testing.T) {
	h := &fingerprint.HashResult{PHashBits: 0, DHashBits: 0}
	v := FingerprintVector(h)
	if len(v) != FingerprintDim {
		t.Fatalf("len(v) = %d, want %d", len(v), FingerprintDim)
	}
}

func TestFingerprintVectorBitExpansion(t *testing.T) {
	h := &fingerprint.HashResult{
		PHashBits: 1 << 63, // top bit set -> v[0] == 1
		DHashBits: 1,       // bottom bit set -> v[127] == 1
	}
	v := FingerprintVector(h)

	if v[0] != 1 {
		t.Errorf("v[0] = %v, want 1 (pHash top bit)", v[0])
	}
	for i := 1; i < 64; i++ {
		if v[i] != 0 {
			t.Errorf("v[%d] = %v, want 0", i, v[i])
		}
	}
	if v[127] != 1 {
		t.Errorf("v[127] = %v, want 1 (dHash bottom bit)", v[127])
	}
	for i := 64; i < 127; i++ {
		if v[i] != 0 {
			t.Errorf("v[%d] = %v, want 0", i, v[i])
		}
	}
}

func TestFingerprintVectorDistanceTracksHammingDistance(t *testing.T) {
	// Two hashes one bit apart should produce a Euclidean distance of
	// exactly 1 over their bit-expanded vectors.
	a := &fingerprint.HashResult{PHashBits: 0b1010, DHashBits: 0}
	b := &fingerprint.HashResult{PHashBits: 0b1011, DHashBits: 0}

	va, vb := FingerprintVector(a), FingerprintVector(b)
	dist := EuclideanDistance(va, vb)
	if dist != 1 {
		t.Errorf("EuclideanDistance = %v, want 1", dist)
	}

	hamming := fingerprint.HammingDistance(a.PHashBits, b.PHashBits)
	if hamming != 1 {
		t.Fatalf("sanity check failed: HammingDistance = %d, want 1", hamming)
	}
}
