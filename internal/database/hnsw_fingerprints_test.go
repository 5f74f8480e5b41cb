package database

import (
	"testing"
)

func vec(bits ...float32) []float32 {
	v := make([]float32, FingerprintDim)
	copy(v, bits)
	return v
}

func TestHNSWFingerprintIndexEmptyBeforeBuild(t *testing.T) {
	idx := NewHNSWFingerprintIndex()
	if !idx.IsEmpty() {
		t.Fatal("expected a fresh index to be empty")
	}
	if idx.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", idx.Count())
	}
}

func TestHNSWFingerprintIndexBuildAndSearch(t *testing.T) {
	idx := NewHNSWFingerprintIndex()
	scans := []StoredScan{
		{ScanID: "a", Fingerprint: vec(1, 0, 0)},
		{ScanID: "b", Fingerprint: vec(1, 0, 0.01)},
		{ScanID: "c", Fingerprint: vec(0, 1, 1)},
	}
	if err := idx.BuildFromScans(scans); err != nil {
		t.Fatalf("BuildFromScans: %v", err)
	}
	if idx.IsEmpty() {
		t.Fatal("expected a built index to be non-empty")
	}
	if idx.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", idx.Count())
	}

	ids, _, err := idx.Search(vec(1, 0, 0), 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("Search nearest = %v, want [a]", ids)
	}
}

func TestHNSWFingerprintIndexSearchWithDistanceFiltersFarNeighbors(t *testing.T) {
	idx := NewHNSWFingerprintIndex()
	scans := []StoredScan{
		{ScanID: "near", Fingerprint: vec(1, 0, 0)},
		{ScanID: "far", Fingerprint: vec(0, 1, 1)},
	}
	if err := idx.BuildFromScans(scans); err != nil {
		t.Fatalf("BuildFromScans: %v", err)
	}

	ids, distances, err := idx.SearchWithDistance(vec(1, 0, 0), 5, 0.5)
	if err != nil {
		t.Fatalf("SearchWithDistance: %v", err)
	}
	if len(ids) != 1 || ids[0] != "near" {
		t.Fatalf("ids = %v, want [near]", ids)
	}
	if len(distances) != 1 || distances[0] != 0 {
		t.Fatalf("distances = %v, want [0]", distances)
	}
}

func TestHNSWFingerprintIndexSearchBeforeBuildErrors(t *testing.T) {
	idx := NewHNSWFingerprintIndex()
	if _, _, err := idx.Search(vec(1, 0, 0), 1); err == nil {
		t.Fatal("expected an error searching an uninitialized index")
	}
}

func TestHNSWFingerprintIndexGetScan(t *testing.T) {
	idx := NewHNSWFingerprintIndex()
	scans := []StoredScan{{ScanID: "a", Fingerprint: vec(1, 2, 3)}}
	if err := idx.BuildFromScans(scans); err != nil {
		t.Fatalf("BuildFromScans: %v", err)
	}
	if got := idx.GetScan("a"); got == nil || got.ScanID != "a" {
		t.Fatalf("GetScan(a) = %v, want ScanID a", got)
	}
	if got := idx.GetScan("missing"); got != nil {
		t.Fatalf("GetScan(missing) = %v, want nil", got)
	}
}

func TestHNSWFingerprintIndexBuildFromEmptyScansResetsIndex(t *testing.T) {
	idx := NewHNSWFingerprintIndex()
	if err := idx.BuildFromScans([]StoredScan{{ScanID: "a", Fingerprint: vec(1)}}); err != nil {
		t.Fatalf("BuildFromScans: %v", err)
	}
	if err := idx.BuildFromScans(nil); err != nil {
		t.Fatalf("BuildFromScans(nil): %v", err)
	}
	if !idx.IsEmpty() {
		t.Fatal("expected the index to be empty after rebuilding from no scans")
	}
}
