// Package embedder provides implementations of the rag.Embedder interface for
// converting document text and questions into dense vector embeddings. Each
// implementation talks to a different backend (OpenAI, Azure OpenAI, Ollama)
// via plain HTTP — no additional SDK dependencies are required.
//
// All implementations share the same failure contract: empty input is
// rejected as rag.ErrInvalidInput before any network call, and every remote
// failure — unreachable host, auth rejection, rate limiting — surfaces as
// rag.ErrProviderUnavailable so callers never mistake a provider outage for
// an empty result.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/docbase-ai/docqa-go/internal/rag"
)

// OpenAIEmbedder implements rag.Embedder using the OpenAI (or Azure OpenAI)
// embeddings REST API. It is safe for concurrent use.
type OpenAIEmbedder struct {
	// baseURL is the API base (e.g. "https://api.openai.com/v1" or an Azure endpoint).
	baseURL string
	// apiKey is the Bearer token (OpenAI) or api-key header value (Azure).
	apiKey string
	// model is the embedding model name (e.g. "text-embedding-3-small").
	model string
	// dimensions is the declared embedding vector length for this configuration.
	dimensions int
	// azure selects Azure-style auth (api-key header) over Bearer token.
	azure bool
	// apiVersion is the Azure OpenAI API version query param (ignored for OpenAI).
	apiVersion string
	// client is the shared HTTP client with a sensible timeout.
	client *http.Client
}

// OpenAIConfig holds the settings for constructing an OpenAIEmbedder.
type OpenAIConfig struct {
	// BaseURL is the API base URL. For OpenAI: "https://api.openai.com/v1".
	// For Azure: "https://<resource>.openai.azure.com/openai".
	BaseURL string
	// APIKey is the authentication key.
	APIKey string
	// Model is the embedding model name (e.g. "text-embedding-3-small").
	Model string
	// Dimensions is the vector length this configuration produces.
	Dimensions int
	// Azure enables Azure OpenAI mode (api-key header + api-version param).
	Azure bool
	// APIVersion is the Azure OpenAI API version (e.g. "2025-04-01-preview").
	// Ignored when Azure is false.
	APIVersion string
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder from the given config.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		azure:      cfg.Azure,
		apiVersion: cfg.APIVersion,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Dimensions returns the declared vector length for this configuration.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

// openaiEmbedRequest is the JSON body sent to the embeddings endpoint.
type openaiEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// openaiEmbedResponse is the JSON body returned from the embeddings endpoint.
type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed converts a batch of texts into their corresponding embeddings.
// The returned slice is parallel to the input slice. Transient provider
// failures (network, 429, 5xx) are retried once with backoff; auth failures
// are not.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}

	body := openaiEmbedRequest{
		Input: texts,
		Model: e.model,
	}
	if e.dimensions > 0 {
		body.Dimensions = e.dimensions
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: marshal request: %w", err)
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

// embedOnce performs a single embeddings request. Non-retryable failures are
// wrapped with backoff.Permanent so retryTransient aborts immediately.
func (e *OpenAIEmbedder) embedOnce(ctx context.Context, payload []byte, want int) ([][]float32, error) {
	url := e.baseURL + "/embeddings"
	if e.azure {
		url = e.baseURL + "/deployments/" + e.model + "/embeddings?api-version=" + e.apiVersion
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("openai embedder: create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if e.azure {
		req.Header.Set("api-key", e.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embedder: request failed (%v): %w", err, rag.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	// Classify by status before touching the body: error bodies are
	// best-effort JSON only, since proxies and load balancers answer 5xx/429
	// with HTML pages.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var apiErr openaiEmbedResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != nil {
			msg = apiErr.Error.Message
		}
		wrapped := fmt.Errorf("openai embedder: %s: %w", msg, rag.ErrProviderUnavailable)
		if retryableStatus(resp.StatusCode) {
			return nil, wrapped
		}
		return nil, backoff.Permanent(wrapped)
	}

	var result openaiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("openai embedder: decode response: %w", rag.ErrProviderUnavailable))
	}

	if len(result.Data) != want {
		return nil, backoff.Permanent(fmt.Errorf("openai embedder: expected %d embeddings, got %d: %w",
			want, len(result.Data), rag.ErrProviderUnavailable))
	}

	// The API may return data out of order; sort by index.
	embeddings := make([][]float32, want)
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= want {
			return nil, backoff.Permanent(fmt.Errorf("openai embedder: index %d out of range [0, %d): %w",
				d.Index, want, rag.ErrProviderUnavailable))
		}
		embeddings[d.Index] = d.Embedding
	}

	return embeddings, nil
}

// validateTexts rejects empty batches and empty texts before any remote call.
func validateTexts(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("embedder: no texts to embed: %w", rag.ErrInvalidInput)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("embedder: text %d is empty: %w", i, rag.ErrInvalidInput)
		}
	}
	return nil
}
