package rag

import (
	"sort"
)

// DefaultThreshold is the relevance threshold applied when the operator does
// not configure one (RETRIEVAL_THRESHOLD).
const DefaultThreshold = 0.5

// DotScorer implements Scorer using a raw dot product. The metric is
// deliberately not cosine-normalized: vectors are compared by inner product,
// so magnitude matters. This matches the similarity contract the rest of the
// system is calibrated against.
type DotScorer struct {
	// threshold is the exclusive lower bound a score must exceed to survive.
	threshold float64
}

// NewDotScorer constructs a DotScorer with the given relevance threshold.
// A threshold of 0 is valid (everything with positive similarity survives);
// use DefaultThreshold for the standard cut.
func NewDotScorer(threshold float64) *DotScorer {
	return &DotScorer{threshold: threshold}
}

// Threshold returns the configured relevance threshold.
func (s *DotScorer) Threshold() float64 { return s.threshold }

// Score computes the dot product of query against every candidate vector and
// returns the candidates that score strictly above the threshold, ordered by
// descending score (ties broken by ascending document id for determinism).
//
// A candidate vector whose length disagrees with the query's aborts the call
// with a *DimensionError — a truncated comparison over the shorter prefix
// would silently corrupt the score.
func (s *DotScorer) Score(query []float32, candidates []Candidate) ([]ScoredContext, error) {
	var survivors []ScoredContext

	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			return nil, &DimensionError{
				DocumentID: c.DocumentID,
				Want:       len(query),
				Got:        len(c.Vector),
			}
		}

		// Accumulate in float64 to keep long sums stable.
		var sum float64
		for i := range query {
			sum += float64(query[i]) * float64(c.Vector[i])
		}

		if sum > s.threshold {
			survivors = append(survivors, ScoredContext{
				DocumentID: c.DocumentID,
				Content:    c.Content,
				Score:      float32(sum),
			})
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].Score != survivors[j].Score {
			return survivors[i].Score > survivors[j].Score
		}
		return survivors[i].DocumentID < survivors[j].DocumentID
	})

	return survivors, nil
}
