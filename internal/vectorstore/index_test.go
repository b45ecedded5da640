package vectorstore

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		v := normalize([]float32{3, 4})
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("expected unit length, got squared norm %v", sum)
		}
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		v := normalize([]float32{0, 0, 0})
		for i, x := range v {
			if x != 0 {
				t.Errorf("component %d changed: %v", i, x)
			}
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		normalize(in)
		if in[0] != 3 || in[1] != 4 {
			t.Errorf("input mutated: %v", in)
		}
	})
}

func TestFlatIndex_Add(t *testing.T) {
	ix := newFlatIndex(3)

	if err := ix.add(0, []float32{1, 0, 0}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ix.add(1, []float32{1, 0}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if ix.size() != 1 {
		t.Errorf("expected size 1, got %d", ix.size())
	}
}

func TestFlatIndex_Search(t *testing.T) {
	ix := newFlatIndex(3)
	// Identical direction, orthogonal, opposite.
	ix.add(10, []float32{2, 0, 0})
	ix.add(20, []float32{0, 5, 0})
	ix.add(30, []float32{-1, 0, 0})

	t.Run("ranking", func(t *testing.T) {
		ids, dists := ix.search([]float32{1, 0, 0}, 3)
		want := []int{10, 20, 30}
		for i, id := range ids {
			if id != want[i] {
				t.Errorf("rank %d: got id %d, want %d", i, id, want[i])
			}
		}
		for i := 1; i < len(dists); i++ {
			if dists[i] < dists[i-1] {
				t.Errorf("distances not ascending: %v", dists)
			}
		}
		if dists[0] > 1e-6 {
			t.Errorf("identical direction should be distance ~0, got %v", dists[0])
		}
	})

	t.Run("sentinel padding when k exceeds size", func(t *testing.T) {
		ids, _ := ix.search([]float32{1, 0, 0}, 5)
		if len(ids) != 5 {
			t.Fatalf("expected %d ids, got %d", 5, len(ids))
		}
		if ids[3] != -1 || ids[4] != -1 {
			t.Errorf("expected -1 sentinels in padded slots, got %v", ids)
		}
	})

	t.Run("k zero", func(t *testing.T) {
		ids, dists := ix.search([]float32{1, 0, 0}, 0)
		if ids != nil || dists != nil {
			t.Errorf("expected nil results for k=0")
		}
	})
}

func TestL2Distance(t *testing.T) {
	if d := l2Distance([]float32{0, 0}, []float32{3, 4}); math.Abs(float64(d)-25) > 1e-6 {
		t.Errorf("expected squared distance 25, got %v", d)
	}
}
