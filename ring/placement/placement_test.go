package placement

import (
	"reflect"
	"testing"
)

// TestReplicasDeterminism verifies repeated calls return identical sequences
func TestReplicasDeterminism(t *testing.T) {
	keys := []string{"A", "K", "some-longer-key", "", "key:with:colons"}

	for _, key := range keys {
		for ringSize := 1; ringSize <= 8; ringSize++ {
			first := Replicas(key, ringSize, 2)
			for i := 0; i < 10; i++ {
				again := Replicas(key, ringSize, 2)
				if !reflect.DeepEqual(first, again) {
					t.Fatalf("Replicas(%q, %d, 2) not deterministic: %v vs %v",
						key, ringSize, first, again)
				}
			}
		}
	}
}

// TestReplicasLength verifies the min(ringSize, replicationFactor) contract
func TestReplicasLength(t *testing.T) {
	testCases := []struct {
		ringSize          int
		replicationFactor int
		want              int
	}{
		{1, 2, 1},
		{2, 2, 2},
		{3, 2, 2},
		{5, 3, 3},
		{2, 5, 2},
		{10, 1, 1},
	}

	for _, tc := range testCases {
		got := Replicas("K", tc.ringSize, tc.replicationFactor)
		if len(got) != tc.want {
			t.Errorf("Replicas(K, %d, %d) returned %d positions, want %d",
				tc.ringSize, tc.replicationFactor, len(got), tc.want)
		}
	}
}

// TestReplicasDistinctAndAdmissible verifies all positions are unique and in range
func TestReplicasDistinctAndAdmissible(t *testing.T) {
	keys := []string{"A", "B", "C", "hello", "world", "0", "1", "2"}

	for _, key := range keys {
		for ringSize := 1; ringSize <= 10; ringSize++ {
			for factor := 1; factor <= ringSize; factor++ {
				positions := Replicas(key, ringSize, factor)

				seen := make(map[int]bool)
				for _, pos := range positions {
					if pos < 0 || pos >= ringSize {
						t.Fatalf("Replicas(%q, %d, %d) returned out-of-range position %d",
							key, ringSize, factor, pos)
					}
					if seen[pos] {
						t.Fatalf("Replicas(%q, %d, %d) returned duplicate position %d",
							key, ringSize, factor, pos)
					}
					seen[pos] = true
				}
			}
		}
	}
}

// TestReplicasFullRing verifies a replication factor equal to the ring size
// eventually covers every position
func TestReplicasFullRing(t *testing.T) {
	const ringSize = 6
	positions := Replicas("coverage-key", ringSize, ringSize)

	if len(positions) != ringSize {
		t.Fatalf("Expected %d positions, got %d", ringSize, len(positions))
	}

	seen := make(map[int]bool)
	for _, pos := range positions {
		seen[pos] = true
	}
	if len(seen) != ringSize {
		t.Errorf("Expected all %d positions covered, got %v", ringSize, positions)
	}
}

// TestReplicasInvalidInput verifies degenerate parameters yield no placements
func TestReplicasInvalidInput(t *testing.T) {
	if got := Replicas("K", 0, 2); got != nil {
		t.Errorf("Expected nil for zero ring size, got %v", got)
	}
	if got := Replicas("K", 3, 0); got != nil {
		t.Errorf("Expected nil for zero replication factor, got %v", got)
	}
}
