// Package server implements the HTTP server that exposes document ingestion
// and question answering as a REST API. The server is started by the
// `docqa serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docbase-ai/docqa-go/internal/logging"
	"github.com/docbase-ai/docqa-go/internal/rag"
)

// defaultMaxUploadBytes caps document uploads at 10 MiB.
const defaultMaxUploadBytes = 10 << 20

// New constructs a Server from the provided pipelines and config.
// reg receives the server's Prometheus metrics; pass a fresh
// prometheus.NewRegistry in tests to keep them hermetic.
func New(ask asker, ing ingester, docs documentCatalog, cfg *Config, reg *prometheus.Registry) (*Server, error) {
	if ask == nil {
		return nil, fmt.Errorf("server: asker must not be nil")
	}
	if ing == nil {
		return nil, fmt.Errorf("server: ingester must not be nil")
	}
	if docs == nil {
		return nil, fmt.Errorf("server: document catalog must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Must cover embed + generate against a slow local model.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		asker:    ask,
		ingester: ing,
		docs:     docs,
		cfg:      cfg,
		log:      cfg.Logger,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(reg),
	}

	if cfg.APIKey == "" {
		s.log.Warn("server: DOCQA_API_KEY not set — API authentication is disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	// protect wraps a handler with the full middleware chain for API routes:
	// per-handler metrics, per-IP rate limiting, and Bearer auth.
	protect := func(name string, h http.HandlerFunc) http.Handler {
		return s.metrics.instrument(name, rl.middleware(authMiddleware(cfg.APIKey, h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/qa/ask", protect("ask", s.handleAsk))
	mux.Handle("POST /api/documents/ingest", protect("ingest", s.handleIngest))
	mux.Handle("POST /api/documents/selection", protect("selection", s.handleSelection))
	mux.Handle("GET /api/documents", protect("documents", s.handleListDocuments))
	// Liveness, readiness, and metrics stay outside auth so probes and
	// scrapers need no credentials.
	mux.Handle("GET /api/health", s.metrics.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.metrics.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("docqa server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleAsk handles POST /api/qa/ask. The document filter comes from the
// request body; selectedOnly resolves the current selection into a filter
// before asking.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	filter := req.DocumentIDs
	if filter == nil && req.SelectedOnly {
		ids, err := s.docs.SelectedIDs(r.Context())
		if err != nil {
			s.writeAskError(w, r, fmt.Errorf("resolve selection: %w", err))
			return
		}
		if len(ids) == 0 {
			http.Error(w, "no documents are selected", http.StatusBadRequest)
			s.metrics.askRequestsTotal.WithLabelValues("invalid").Inc()
			return
		}
		filter = ids
	}

	start := time.Now()
	res, err := s.asker.Ask(r.Context(), req.Question, filter)
	if err != nil {
		s.writeAskError(w, r, err)
		return
	}

	s.metrics.askRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.askDurationSeconds.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	log.Info("ask answered",
		slog.Int("filter_size", len(filter)),
		slog.Int("contexts", len(res.Contexts)),
		slog.Duration("duration", time.Since(start)),
	)

	writeJSON(w, http.StatusOK, askResponse{Question: res.Question, Answer: res.Answer})
}

// writeAskError maps a pipeline error to its HTTP status and records the
// outcome metric.
func (s *Server) writeAskError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	var status int
	var outcome, msg string
	switch {
	case errors.Is(err, rag.ErrInvalidInput):
		status, outcome, msg = http.StatusBadRequest, "invalid", err.Error()
	case errors.Is(err, rag.ErrNoRelevantContext):
		// The original UI treats this as "nothing found", not a failure.
		status, outcome, msg = http.StatusNotFound, "no_context", "No relevant documents found."
	case errors.Is(err, rag.ErrDimensionMismatch):
		status, outcome, msg = http.StatusInternalServerError, "error", err.Error()
	case errors.Is(err, rag.ErrProviderUnavailable):
		status, outcome, msg = http.StatusBadGateway, "unavailable", "model provider unavailable"
	default:
		status, outcome, msg = http.StatusInternalServerError, "error", "internal error"
	}

	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		log.Error("ask failed", slog.Any("error", err))
	} else {
		log.Info("ask rejected", slog.Any("error", err))
	}

	s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
	http.Error(w, msg, status)
}

// handleIngest handles POST /api/documents/ingest. The document arrives as a
// multipart form with a single "file" part.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `multipart form with a "file" part is required`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "could not read uploaded file", http.StatusBadRequest)
		return
	}

	id, err := s.ingester.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, rag.ErrInvalidInput):
			s.metrics.ingestTotal.WithLabelValues("invalid").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, rag.ErrProviderUnavailable):
			s.metrics.ingestTotal.WithLabelValues("unavailable").Inc()
			log.Error("ingest failed", slog.Any("error", err))
			http.Error(w, "embedding provider unavailable", http.StatusBadGateway)
		default:
			s.metrics.ingestTotal.WithLabelValues("error").Inc()
			log.Error("ingest failed", slog.Any("error", err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	s.metrics.ingestTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusCreated, ingestResponse{DocumentID: id, Filename: header.Filename})
}

// handleSelection handles POST /api/documents/selection.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.DocumentIDs) == 0 {
		http.Error(w, "documentIds is required", http.StatusBadRequest)
		return
	}

	updated, err := s.docs.SetSelected(r.Context(), req.DocumentIDs, req.Selected)
	if err != nil {
		logging.FromContext(r.Context()).Error("selection update failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		updated = []int64{}
	}

	writeJSON(w, http.StatusOK, selectionResponse{Updated: updated})
}

// handleListDocuments handles GET /api/documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.ListDocuments(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("document listing failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]documentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentInfo{
			ID:       d.ID,
			Filename: d.Filename,
			Selected: d.Selected,
			Chars:    len(d.Content),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("response encode error", slog.Any("error", err))
	}
}
