package vectorstore

import (
	"math"
	"sort"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

// flatIndex is an exact nearest-neighbour index: brute-force L2 search
// over L2-normalised vectors, which ranks identically to cosine
// similarity. Entries are append-only; the store resets the whole
// index on clear or session change.
type flatIndex struct {
	dims    int
	ids     []int
	vectors [][]float32
}

// newFlatIndex creates an empty index bound to the given dimension.
func newFlatIndex(dims int) *flatIndex {
	return &flatIndex{dims: dims}
}

// add inserts a vector under the given id. The vector is normalised
// into a private copy; the caller's slice is never retained.
func (ix *flatIndex) add(id int, vec []float32) error {
	if len(vec) != ix.dims {
		return domain.ErrDimensionMismatch
	}
	ix.ids = append(ix.ids, id)
	ix.vectors = append(ix.vectors, normalize(vec))
	return nil
}

// size returns the number of indexed vectors.
func (ix *flatIndex) size() int {
	return len(ix.ids)
}

// search returns the ids of the k nearest vectors to the query in
// ascending distance order, padded with -1 sentinels when fewer than k
// vectors are indexed. The query is normalised before comparison.
func (ix *flatIndex) search(query []float32, k int) (ids []int, distances []float32) {
	if k <= 0 {
		return nil, nil
	}

	q := normalize(query)

	type hit struct {
		id   int
		dist float32
	}
	hits := make([]hit, 0, len(ix.ids))
	for i, vec := range ix.vectors {
		hits = append(hits, hit{id: ix.ids[i], dist: l2Distance(q, vec)})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	ids = make([]int, k)
	distances = make([]float32, k)
	for i := 0; i < k; i++ {
		if i < len(hits) {
			ids[i] = hits[i].id
			distances[i] = hits[i].dist
			continue
		}
		// Sentinel for "fewer than k available", dropped by the caller.
		ids[i] = -1
		distances[i] = float32(math.MaxFloat32)
	}
	return ids, distances
}

// normalize returns a unit-length copy of v. Zero vectors are returned
// as copies unchanged.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// l2Distance returns the squared Euclidean distance between two
// vectors of equal length. Squared distance preserves ranking and
// avoids a sqrt per comparison.
func l2Distance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
