package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/docbase-ai/docqa-go/internal/answerer"
	"github.com/docbase-ai/docqa-go/internal/config"
	"github.com/docbase-ai/docqa-go/internal/logging"
	"github.com/docbase-ai/docqa-go/internal/provider"
	"github.com/docbase-ai/docqa-go/internal/qa"
	"github.com/docbase-ai/docqa-go/internal/rag"
	"github.com/docbase-ai/docqa-go/internal/tracing"
)

// NewAskCmd constructs the `docqa ask` command, which answers a single
// natural language question from the ingested document corpus.
func NewAskCmd() *cobra.Command {
	var docIDs []int64
	var selectedOnly bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question over the ingested documents",
		Long: `Ask a natural language question answered from the ingested corpus.

The question is embedded, matched against stored document embeddings, and
the most relevant documents are passed to the model as context. By default
the whole corpus is searched; restrict the search with --doc or --selected.

Examples:
  docqa ask "what does the incident report say about the outage?"
  docqa ask --doc 3 --doc 7 "summarise the migration plan"
  docqa ask --selected "which hosts were affected?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Langfuse tracing is opt-in, a no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			if err := embedderPreflight(log); err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			emb, err := buildEmbedder()
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			st, err := openStore()
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer func() { _ = st.Close() }()

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			scorer := rag.NewDotScorer(config.Threshold(rag.DefaultThreshold))
			pipeline := qa.New(emb, st, scorer, answerer.New(chatModel))

			filter := docIDs
			if selectedOnly {
				filter, err = st.SelectedIDs(ctx)
				if err != nil {
					return fmt.Errorf("ask: %w", err)
				}
				if len(filter) == 0 {
					return fmt.Errorf("ask: --selected given but no documents are selected")
				}
			}

			question := strings.Join(args, " ")
			result, err := pipeline.Ask(ctx, question, filter)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Fprintln(os.Stdout, result.Answer)
			return nil
		},
	}

	cmd.Flags().Int64SliceVarP(&docIDs, "doc", "d", nil, "Restrict the search to a document ID (repeatable)")
	cmd.Flags().BoolVarP(&selectedOnly, "selected", "s", false, "Restrict the search to documents marked selected")

	return cmd
}
