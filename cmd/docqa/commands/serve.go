package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/docbase-ai/docqa-go/internal/answerer"
	"github.com/docbase-ai/docqa-go/internal/config"
	"github.com/docbase-ai/docqa-go/internal/ingestion"
	"github.com/docbase-ai/docqa-go/internal/logging"
	"github.com/docbase-ai/docqa-go/internal/provider"
	"github.com/docbase-ai/docqa-go/internal/qa"
	"github.com/docbase-ai/docqa-go/internal/rag"
	"github.com/docbase-ai/docqa-go/internal/server"
	"github.com/docbase-ai/docqa-go/internal/tracing"
)

// NewServeCmd constructs the `docqa serve` command, which starts the HTTP
// API for document ingestion and question answering.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the docqa HTTP API server",
		Long: `Start the docqa HTTP server on localhost.

The server exposes a REST API for ingesting documents, managing the
document selection, and asking questions, plus health, readiness, and
Prometheus metrics endpoints.

Set DOCQA_API_KEY to require Bearer authentication on the /api routes.

Examples:
  docqa serve
  docqa serve --port 9090
  MODEL_PROVIDER=azure docqa serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in, a no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			if err := embedderPreflight(log); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			emb, err := buildEmbedder()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			st, err := openStore()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = st.Close() }()

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			scorer := rag.NewDotScorer(config.Threshold(rag.DefaultThreshold))
			askPipeline := qa.New(emb, st, scorer, answerer.New(chatModel))

			ingestPipeline, err := ingestion.NewPipeline(emb, st)
			if err != nil {
				return fmt.Errorf("serve: failed to create ingestion pipeline: %w", err)
			}

			srv, err := server.New(askPipeline, ingestPipeline, st, &server.Config{
				Host:   host,
				Port:   port,
				Logger: log,
				Pingers: []server.Pinger{
					server.NewStorePinger(st),
					server.NewEmbedderPinger(emb),
					server.NewModelPinger(chatModel),
				},
				APIKey: os.Getenv("DOCQA_API_KEY"),
			}, prometheus.NewRegistry())
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
