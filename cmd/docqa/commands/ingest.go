package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docbase-ai/docqa-go/internal/ingestion"
	"github.com/docbase-ai/docqa-go/internal/logging"
)

// NewIngestCmd constructs the `docqa ingest` command, which reads local files,
// stores them in the document corpus, and embeds them for retrieval.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Ingest documents into the local corpus",
		Long: fmt.Sprintf(`Read one or more local files, store them in the SQLite corpus, and embed
their content for retrieval.

Supported file types: %s

Re-ingesting a file creates a new document; embeddings are keyed per
document, and re-embedding a document overwrites its previous vector.

Required environment variables:
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)
  DOCQA_DB             SQLite database path (default: ~/.docqa/docqa.db)

Examples:
  docqa ingest report.md
  docqa ingest notes/*.txt logs/app.log`, strings.Join(ingestion.SupportedExtensions(), ", ")),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if err := embedderPreflight(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			emb, err := buildEmbedder()
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			st, err := openStore()
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = st.Close() }()

			pipeline, err := ingestion.NewPipeline(emb, st)
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("ingest: read %s: %w", path, err)
				}

				id, err := pipeline.Ingest(ctx, filepath.Base(path), data)
				if err != nil {
					return fmt.Errorf("ingest: %s: %w", path, err)
				}

				log.Info("document ingested",
					slog.String("file", path),
					slog.Int64("document_id", id),
				)
				fmt.Fprintf(os.Stdout, "%d\t%s\n", id, path)
			}

			return nil
		},
	}

	return cmd
}
