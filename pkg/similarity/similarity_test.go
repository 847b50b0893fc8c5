package similarity

import (
	"errors"
	"math"
	"testing"
)

func TestCosineBounds(t *testing.T) {
	v := []float32{0.3, -0.7, 0.2, 0.9}
	neg := make([]float32, len(v))
	for i, x := range v {
		neg[i] = -x
	}

	self, err := Cosine(v, v)
	if err != nil {
		t.Fatalf("Cosine: %v", err)
	}
	if math.Abs(self-1) > 1e-9 {
		t.Errorf("Cosine(v, v) = %v, want 1", self)
	}

	opposite, err := Cosine(v, neg)
	if err != nil {
		t.Fatalf("Cosine: %v", err)
	}
	if math.Abs(opposite+1) > 1e-9 {
		t.Errorf("Cosine(v, -v) = %v, want -1", opposite)
	}
}

func TestCosineZeroVector(t *testing.T) {
	got, err := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("Cosine: %v", err)
	}
	if got != 0 {
		t.Errorf("Cosine(zero, v) = %v, want 0", got)
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	if _, err := Cosine([]float32{1, 2}, []float32{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestRankOrdersDescending(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "low", Vector: []float32{0, 1}},       // 0
		{ID: "high", Vector: []float32{1, 0}},      // 1
		{ID: "mid", Vector: []float32{1, 1}},       // ~0.707
		{ID: "odd", Vector: []float32{1, 0, 0, 0}}, // skipped, wrong dims
	}

	ranked := Rank(query, candidates)
	if len(ranked) != 3 {
		t.Fatalf("ranked %d candidates, want 3 (mismatched dims skipped)", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Similarity > ranked[i-1].Similarity {
			t.Errorf("ranking not descending at %d: %v", i, ranked)
		}
	}
	if ranked[0].ID != "high" || ranked[1].ID != "mid" || ranked[2].ID != "low" {
		t.Errorf("order = %v, want high, mid, low", ranked)
	}
}

func TestRankStableOnTies(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "first", Vector: []float32{2, 0}},
		{ID: "second", Vector: []float32{3, 0}},
		{ID: "third", Vector: []float32{5, 0}},
	}

	ranked := Rank(query, candidates)
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if ranked[i].ID != w {
			t.Errorf("tied candidates reordered: got %v", ranked)
			break
		}
	}
}

func TestFilterByThreshold(t *testing.T) {
	ranked := []Scored{
		{ID: "a", Similarity: 0.9},
		{ID: "b", Similarity: 0.75},
		{ID: "c", Similarity: 0.3},
	}

	kept := FilterByThreshold(ranked, 0.5)
	if len(kept) != 2 || kept[0].ID != "a" || kept[1].ID != "b" {
		t.Errorf("kept = %v, want a and b in order", kept)
	}
	for _, s := range kept {
		if s.Similarity < 0.5 {
			t.Errorf("entry %q below threshold: %v", s.ID, s.Similarity)
		}
	}

	if empty := FilterByThreshold(ranked, 0.95); len(empty) != 0 {
		t.Errorf("kept = %v, want none above 0.95", empty)
	}
}
