package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/docbase-ai/docqa-go/internal/embedder"
	"github.com/docbase-ai/docqa-go/internal/rag"
	"github.com/docbase-ai/docqa-go/internal/store"
)

// openStore opens the SQLite document store at the configured path.
// DOCQA_DB overrides the default location (~/.docqa/docqa.db).
func openStore() (*store.SQLiteStore, error) {
	path := os.Getenv("DOCQA_DB")
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("store: resolve default DB path: %w", err)
		}
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return st, nil
}

// embedderPreflight warns early about embedding configurations that will
// produce useless retrieval, e.g. a chat model set as EMBEDDING_MODEL.
func embedderPreflight(log *slog.Logger) error {
	return embedder.Validate(log) //nolint:wrapcheck // callers add command context
}

// buildEmbedder constructs the embedding client from environment variables.
func buildEmbedder() (rag.Embedder, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	return emb, nil
}

// parseDocumentIDs converts positional arguments to document IDs.
func parseDocumentIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid document id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
