package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docbase-ai/docqa-go/internal/logging"
	"github.com/docbase-ai/docqa-go/internal/rag"
)

// DocumentStore is the slice of the store the ingestion pipeline needs:
// persisting the document record and its embedding.
type DocumentStore interface {
	InsertDocument(ctx context.Context, filename, content string) (int64, error)
	SaveEmbedding(ctx context.Context, documentID int64, vector []float32) error
}

// Pipeline orchestrates the extract, persist, embed, store flow for one
// uploaded file at a time.
type Pipeline struct {
	embedder rag.Embedder
	store    DocumentStore
}

// NewPipeline constructs a Pipeline from the provided dependencies.
func NewPipeline(embedder rag.Embedder, store DocumentStore) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	return &Pipeline{embedder: embedder, store: store}, nil
}

// Ingest extracts text from the file, persists it as a new document, embeds
// the full text, and stores the embedding. It returns the new document's id.
//
// The document row is written before the embed call, so an embedding failure
// leaves the document stored but unembedded. Re-ingesting the file creates a
// fresh document; FetchCandidates never serves documents without embeddings,
// so a half-ingested document can not surface in retrieval.
func (p *Pipeline) Ingest(ctx context.Context, filename string, data []byte) (int64, error) {
	log := logging.FromContext(ctx)

	text, err := ExtractText(filename, data)
	if err != nil {
		return 0, err
	}

	id, err := p.store.InsertDocument(ctx, filename, text)
	if err != nil {
		return 0, fmt.Errorf("ingestion: store document %s: %w", filename, err)
	}

	vectors, err := p.embedder.Embed(ctx, []string{text})
	if err != nil {
		return 0, fmt.Errorf("ingestion: embed %s: %w", filename, err)
	}
	if len(vectors) != 1 {
		return 0, fmt.Errorf("ingestion: embedder returned %d vectors for one document: %w",
			len(vectors), rag.ErrProviderUnavailable)
	}

	if err := p.store.SaveEmbedding(ctx, id, vectors[0]); err != nil {
		return 0, fmt.Errorf("ingestion: save embedding for %s: %w", filename, err)
	}

	log.Info("ingestion: document ingested",
		slog.Int64("document_id", id),
		slog.String("filename", filename),
		slog.Int("chars", len(text)),
		slog.Int("dims", len(vectors[0])),
	)
	return id, nil
}
