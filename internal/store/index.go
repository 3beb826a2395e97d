package store

import (
	"fmt"
	"sort"
)

// flatIndex is an exact brute-force vector index over squared L2 distance.
// Vectors occupy stable ordinal positions (0, 1, 2, ... in insertion order);
// positions are never reused and there is no delete.
type flatIndex struct {
	dimensions int
	vectors    [][]float32
}

// hit is one nearest-neighbor match from the index.
type hit struct {
	ordinal  int
	distance float64
}

func newFlatIndex(dimensions int) (*flatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &flatIndex{
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
	}, nil
}

// insert appends vectors at the next ordinal positions. Every vector must
// have exactly the index dimension; a mismatch means the embedding service
// and the store were configured inconsistently.
func (ix *flatIndex) insert(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	for i, vec := range vectors {
		if len(vec) != ix.dimensions {
			return fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(vec), ix.dimensions)
		}
	}
	for _, vec := range vectors {
		v := make([]float32, ix.dimensions)
		copy(v, vec)
		ix.vectors = append(ix.vectors, v)
	}
	return nil
}

// search returns up to min(k, size) hits ordered by ascending distance.
// Ties keep insertion order, so repeated identical queries are stable.
func (ix *flatIndex) search(query []float32, k int) ([]hit, error) {
	if len(query) != ix.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), ix.dimensions)
	}
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}

	hits := make([]hit, len(ix.vectors))
	for i, vec := range ix.vectors {
		hits[i] = hit{ordinal: i, distance: squaredL2(query, vec)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// size returns the number of stored vectors.
func (ix *flatIndex) size() int {
	return len(ix.vectors)
}

// squaredL2 returns the squared Euclidean distance between two vectors of
// equal length.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
