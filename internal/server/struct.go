package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/docbase-ai/docqa-go/internal/qa"
	"github.com/docbase-ai/docqa-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	// Must cover a full embed + generate round trip.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// MaxUploadBytes caps the size of an uploaded document. Defaults to 10 MiB.
	MaxUploadBytes int64
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
}

// asker answers questions over the document corpus. *qa.Pipeline satisfies
// it; tests inject a fake.
type asker interface {
	Ask(ctx context.Context, question string, docFilter []int64) (*qa.Result, error)
}

// ingester ingests one uploaded file. *ingestion.Pipeline satisfies it.
type ingester interface {
	Ingest(ctx context.Context, filename string, data []byte) (int64, error)
}

// documentCatalog is the slice of the store the document handlers need.
// *store.SQLiteStore satisfies it.
type documentCatalog interface {
	ListDocuments(ctx context.Context) ([]store.Document, error)
	SetSelected(ctx context.Context, ids []int64, selected bool) ([]int64, error)
	SelectedIDs(ctx context.Context) ([]int64, error)
}

// Server is the HTTP server exposing the document Q&A API.
type Server struct {
	// asker answers questions; the qa pipeline in production.
	asker asker
	// ingester processes document uploads; the ingestion pipeline in production.
	ingester ingester
	// docs serves the document listing and selection endpoints.
	docs documentCatalog
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds this server's Prometheus instruments.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /api/qa/ask.
type askRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
	// DocumentIDs optionally restricts retrieval to these documents.
	// Absent means the whole corpus; present but empty is rejected.
	DocumentIDs []int64 `json:"documentIds"`
	// SelectedOnly restricts retrieval to the currently selected documents.
	// Ignored when DocumentIDs is present.
	SelectedOnly bool `json:"selectedOnly,omitempty"`
}

// askResponse is the JSON response for POST /api/qa/ask.
type askResponse struct {
	// Question echoes the question as asked.
	Question string `json:"question"`
	// Answer is the generated answer text.
	Answer string `json:"answer"`
}

// ingestResponse is the JSON response for POST /api/documents/ingest.
type ingestResponse struct {
	// DocumentID is the id assigned to the newly ingested document.
	DocumentID int64 `json:"documentId"`
	// Filename echoes the uploaded file's name.
	Filename string `json:"filename"`
}

// selectionRequest is the JSON body for POST /api/documents/selection.
type selectionRequest struct {
	// DocumentIDs are the documents to mark.
	DocumentIDs []int64 `json:"documentIds"`
	// Selected is the new selection state for all listed documents.
	Selected bool `json:"selected"`
}

// selectionResponse is the JSON response for POST /api/documents/selection.
type selectionResponse struct {
	// Updated lists the ids whose selection state actually changed rows.
	Updated []int64 `json:"updated"`
}

// documentInfo is one entry in the GET /api/documents response.
type documentInfo struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Selected bool   `json:"selected"`
	// Chars is the length of the stored text; content itself is not returned.
	Chars int `json:"chars"`
}
