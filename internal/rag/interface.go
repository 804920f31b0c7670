// Package rag defines the contracts for the retrieval-and-answering core:
// embedding providers, embedding storage, relevance scoring, and answer
// generation. Concrete implementations (HTTP embedders, the SQLite store,
// eino-backed chat models) satisfy these interfaces so the question-answering
// pipeline never depends on a specific backend.
package rag

import (
	"context"
)

// Candidate is one stored embedding joined with the content of the document
// that owns it, as returned by a single consistent store read.
type Candidate struct {
	// DocumentID is the identity of the owning document.
	DocumentID int64

	// Content is the extracted plain-text content of the document.
	Content string

	// Vector is the stored embedding for the document.
	Vector []float32
}

// ScoredContext pairs document content with the similarity score that put it
// above the relevance threshold. ScoredContext values are ephemeral — they
// exist only for the duration of one pipeline invocation.
type ScoredContext struct {
	// DocumentID is the identity of the document the content came from.
	DocumentID int64

	// Content is the document content to be assembled into the context block.
	Content string

	// Score is the raw dot-product similarity against the query vector.
	Score float32
}

// Embedder converts text into dense vector embeddings of a fixed
// dimensionality. Implementations must be safe to call from multiple
// goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice. Empty input texts
	// are rejected with ErrInvalidInput before any remote call is made.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector length this embedder is configured to
	// produce. Stable for the lifetime of the embedder.
	Dimensions() int
}

// CandidateStore persists one embedding per document and serves candidate
// reads for scoring. Implementations must be safe for concurrent use;
// SaveEmbedding for one document must not interfere with concurrent saves
// for other documents.
type CandidateStore interface {
	// SaveEmbedding upserts the embedding for a document, overwriting any
	// prior vector (overwrite-latest policy — at most one current embedding
	// per document).
	SaveEmbedding(ctx context.Context, documentID int64, vector []float32) error

	// FetchCandidates returns all stored embeddings joined with their
	// document content under a single read. A nil filter means the whole
	// corpus; a non-nil filter restricts to the given document ids. A filter
	// that matches nothing yields an empty slice, not an error.
	FetchCandidates(ctx context.Context, filter []int64) ([]Candidate, error)
}

// Scorer computes similarity between a query vector and a set of candidates
// and returns those above the relevance threshold, highest score first.
type Scorer interface {
	// Score returns the candidates whose similarity to query exceeds the
	// threshold, ordered by descending score. A candidate whose vector
	// length disagrees with the query's is a *DimensionError — mismatched
	// vectors are never compared over a common prefix.
	Score(query []float32, candidates []Candidate) ([]ScoredContext, error)
}

// AnswerGenerator produces a natural-language answer grounded in the supplied
// context items. Implementations must be safe to call from multiple
// goroutines.
type AnswerGenerator interface {
	// Generate issues a single completion request carrying the question and
	// the context items joined by newlines. It never fabricates an answer
	// locally — provider failures surface as ErrProviderUnavailable.
	Generate(ctx context.Context, question string, contexts []string) (string, error)
}
