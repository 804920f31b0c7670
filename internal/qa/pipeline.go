// Package qa wires the retrieval stages into the ask operation: embed the
// question, score it against the stored corpus, and generate an answer from
// the passages that clear the relevance threshold.
package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docbase-ai/docqa-go/internal/logging"
	"github.com/docbase-ai/docqa-go/internal/rag"
)

// Pipeline runs question answering over the embedded document corpus.
// All collaborators are interfaces so each stage can be replaced in tests.
type Pipeline struct {
	embedder  rag.Embedder
	store     rag.CandidateStore
	scorer    rag.Scorer
	generator rag.AnswerGenerator
}

// Result is the outcome of one ask operation.
type Result struct {
	// Question is the question as asked.
	Question string `json:"question"`
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// Contexts are the document passages the answer was grounded on,
	// most relevant first. Omitted from the wire format by default.
	Contexts []rag.ScoredContext `json:"-"`
}

// New assembles a Pipeline from its stages.
func New(embedder rag.Embedder, store rag.CandidateStore, scorer rag.Scorer, generator rag.AnswerGenerator) *Pipeline {
	return &Pipeline{
		embedder:  embedder,
		store:     store,
		scorer:    scorer,
		generator: generator,
	}
}

// Ask answers a question from the stored corpus.
//
// A nil docFilter searches every embedded document; a non-empty filter
// restricts the search to those ids. An explicitly empty (non-nil,
// zero-length) filter is a caller error: the caller asked to search nothing.
//
// Failure modes, in stage order:
//   - rag.ErrInvalidInput for a blank question or empty filter, before any
//     remote call is made
//   - rag.ErrProviderUnavailable when the embedding backend fails
//   - rag.ErrDimensionMismatch when a stored vector disagrees with the
//     question vector's size
//   - rag.ErrNoRelevantContext when no passage clears the threshold; the
//     generator is never called in that case
func (p *Pipeline) Ask(ctx context.Context, question string, docFilter []int64) (*Result, error) {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("qa: empty question: %w", rag.ErrInvalidInput)
	}
	if docFilter != nil && len(docFilter) == 0 {
		return nil, fmt.Errorf("qa: document filter is empty: %w", rag.ErrInvalidInput)
	}

	vectors, err := p.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("qa: embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("qa: embedder returned %d vectors for one question: %w", len(vectors), rag.ErrProviderUnavailable)
	}

	candidates, err := p.store.FetchCandidates(ctx, docFilter)
	if err != nil {
		return nil, fmt.Errorf("qa: fetch candidates: %w", err)
	}

	contexts, err := p.scorer.Score(vectors[0], candidates)
	if err != nil {
		return nil, fmt.Errorf("qa: score candidates: %w", err)
	}

	log.Debug("qa: scored candidates",
		slog.Int("candidates", len(candidates)),
		slog.Int("relevant", len(contexts)),
	)

	if len(contexts) == 0 {
		return nil, fmt.Errorf("qa: %w", rag.ErrNoRelevantContext)
	}

	passages := make([]string, len(contexts))
	for i, c := range contexts {
		passages[i] = c.Content
	}

	answer, err := p.generator.Generate(ctx, question, passages)
	if err != nil {
		return nil, fmt.Errorf("qa: generate answer: %w", err)
	}

	return &Result{
		Question: question,
		Answer:   answer,
		Contexts: contexts,
	}, nil
}
