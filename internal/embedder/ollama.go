package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/docbase-ai/docqa-go/internal/rag"
)

// OllamaEmbedder implements rag.Embedder using the Ollama /api/embed endpoint.
// It is safe for concurrent use. No API key is required — Ollama runs locally.
type OllamaEmbedder struct {
	// host is the Ollama server base URL (e.g. "http://localhost:11434").
	host string
	// model is the embedding model name (e.g. "nomic-embed-text").
	model string
	// dimensions is the declared vector length for the configured model.
	dimensions int
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// OllamaConfig holds the settings for constructing an OllamaEmbedder.
type OllamaConfig struct {
	// Host is the Ollama server base URL (e.g. "http://localhost:11434").
	Host string
	// Model is the embedding model name (e.g. "nomic-embed-text").
	Model string
	// Dimensions is the vector length the configured model produces.
	Dimensions int
}

// NewOllamaEmbedder constructs an OllamaEmbedder from the given config.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	return &OllamaEmbedder{
		host:       cfg.Host,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Dimensions returns the declared vector length for the configured model.
func (e *OllamaEmbedder) Dimensions() int { return e.dimensions }

// ollamaEmbedRequest is the JSON body sent to the Ollama /api/embed endpoint.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the JSON body returned from the Ollama /api/embed endpoint.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed converts a batch of texts into their corresponding embeddings.
// The returned slice is parallel to the input slice.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: marshal request: %w", err)
	}

	var embeddings [][]float32
	err = retryTransient(ctx, func() error {
		var attemptErr error
		embeddings, attemptErr = e.embedOnce(ctx, payload, len(texts))
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	return embeddings, nil
}

// embedOnce performs a single embeddings request against the Ollama API.
func (e *OllamaEmbedder) embedOnce(ctx context.Context, payload []byte, want int) ([][]float32, error) {
	url := e.host + "/api/embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("ollama embedder: create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: request failed (%v): %w", err, rag.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	// Classify by status before touching the body: error bodies are
	// best-effort JSON only, since proxies and load balancers answer 5xx/429
	// with HTML pages.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var apiErr ollamaEmbedResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		wrapped := fmt.Errorf("ollama embedder: %s: %w", msg, rag.ErrProviderUnavailable)
		if retryableStatus(resp.StatusCode) {
			return nil, wrapped
		}
		return nil, backoff.Permanent(wrapped)
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("ollama embedder: decode response: %w", rag.ErrProviderUnavailable))
	}

	if len(result.Embeddings) != want {
		return nil, backoff.Permanent(fmt.Errorf("ollama embedder: expected %d embeddings, got %d: %w",
			want, len(result.Embeddings), rag.ErrProviderUnavailable))
	}

	return result.Embeddings, nil
}
