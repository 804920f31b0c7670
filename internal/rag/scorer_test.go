package rag

import (
	"errors"
	"testing"
)

func TestDotScorer_ThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	s := NewDotScorer(0.5)
	query := []float32{1, 0}

	candidates := []Candidate{
		{DocumentID: 1, Content: "above", Vector: []float32{0.9, 0}},   // score 0.9
		{DocumentID: 2, Content: "exactly", Vector: []float32{0.5, 0}}, // score 0.5 — excluded
		{DocumentID: 3, Content: "below", Vector: []float32{0.1, 0}},   // score 0.1
	}

	got, err := s.Score(query, candidates)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 survivor, got %d", len(got))
	}
	if got[0].DocumentID != 1 || got[0].Content != "above" {
		t.Errorf("unexpected survivor: %+v", got[0])
	}
	for _, sc := range got {
		if float64(sc.Score) <= 0.5 {
			t.Errorf("document %d survived with score %v <= threshold", sc.DocumentID, sc.Score)
		}
	}
}

func TestDotScorer_DescendingOrder(t *testing.T) {
	t.Parallel()

	s := NewDotScorer(0)
	query := []float32{1, 1}

	candidates := []Candidate{
		{DocumentID: 1, Vector: []float32{0.5, 0.5}}, // 1.0
		{DocumentID: 2, Vector: []float32{2, 2}},     // 4.0
		{DocumentID: 3, Vector: []float32{1, 1}},     // 2.0
	}

	got, err := s.Score(query, candidates)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 survivors, got %d", len(got))
	}
	wantOrder := []int64{2, 3, 1}
	for i, id := range wantOrder {
		if got[i].DocumentID != id {
			t.Errorf("position %d: want document %d, got %d (score %v)", i, id, got[i].DocumentID, got[i].Score)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
}

func TestDotScorer_TiesBreakByDocumentID(t *testing.T) {
	t.Parallel()

	s := NewDotScorer(0)
	query := []float32{1}

	candidates := []Candidate{
		{DocumentID: 9, Vector: []float32{2}},
		{DocumentID: 3, Vector: []float32{2}},
	}

	got, err := s.Score(query, candidates)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(got) != 2 || got[0].DocumentID != 3 || got[1].DocumentID != 9 {
		t.Errorf("tie not broken by ascending document id: %+v", got)
	}
}

func TestDotScorer_Commutative(t *testing.T) {
	t.Parallel()

	a := []float32{0.3, -1.2, 4.5, 0.07}
	b := []float32{1.1, 0.4, -0.9, 2.2}

	s := NewDotScorer(-1000)

	ab, err := s.Score(a, []Candidate{{DocumentID: 1, Vector: b}})
	if err != nil {
		t.Fatalf("score a·b: %v", err)
	}
	ba, err := s.Score(b, []Candidate{{DocumentID: 1, Vector: a}})
	if err != nil {
		t.Fatalf("score b·a: %v", err)
	}
	if ab[0].Score != ba[0].Score {
		t.Errorf("dot product not commutative: a·b=%v b·a=%v", ab[0].Score, ba[0].Score)
	}
}

func TestDotScorer_DimensionMismatchIsExplicit(t *testing.T) {
	t.Parallel()

	s := NewDotScorer(0.5)
	query := []float32{1, 1, 1}

	candidates := []Candidate{
		{DocumentID: 1, Vector: []float32{1, 1, 1}},
		{DocumentID: 7, Vector: []float32{1, 1}}, // stored under an older model
	}

	_, err := s.Score(query, candidates)
	if err == nil {
		t.Fatal("want dimension mismatch error, got nil")
	}
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("error does not match ErrDimensionMismatch: %v", err)
	}

	var dimErr *DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("error is not a *DimensionError: %v", err)
	}
	if dimErr.DocumentID != 7 || dimErr.Want != 3 || dimErr.Got != 2 {
		t.Errorf("unexpected mismatch detail: %+v", dimErr)
	}
}

func TestDotScorer_EmptyCandidates(t *testing.T) {
	t.Parallel()

	s := NewDotScorer(0.5)
	got, err := s.Score([]float32{1, 2}, nil)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("want no survivors from empty candidate set, got %d", len(got))
	}
}

func TestDotScorer_NegativeSimilarityExcluded(t *testing.T) {
	t.Parallel()

	s := NewDotScorer(0.5)
	query := []float32{1, 0}

	got, err := s.Score(query, []Candidate{
		{DocumentID: 1, Vector: []float32{-3, 0}},
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("opposed vector survived the threshold: %+v", got)
	}
}
