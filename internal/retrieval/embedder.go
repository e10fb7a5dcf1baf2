package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var _ Embedder = (*OllamaEmbedder)(nil)

// Ollama embedding defaults.
const (
	DefaultEmbedURL   = "http://localhost:11434"
	DefaultEmbedModel = "nomic-embed-text"
)

// OllamaEmbedder calls the Ollama /api/embeddings endpoint.
type OllamaEmbedder struct {
	baseURL string
	model   string
	dim     int
	http    *http.Client
}

// EmbedderOption configures an OllamaEmbedder.
type EmbedderOption func(*OllamaEmbedder)

// WithEmbedDimension rejects vectors whose length differs from dim.
func WithEmbedDimension(dim int) EmbedderOption {
	return func(e *OllamaEmbedder) {
		e.dim = dim
	}
}

// WithEmbedHTTPClient replaces the underlying *http.Client.
func WithEmbedHTTPClient(hc *http.Client) EmbedderOption {
	return func(e *OllamaEmbedder) {
		e.http = hc
	}
}

// NewOllamaEmbedder creates an embedder for the Ollama server at baseURL.
func NewOllamaEmbedder(baseURL, model string, opts ...EmbedderOption) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = DefaultEmbedURL
	}
	if model == "" {
		model = DefaultEmbedModel
	}
	e := &OllamaEmbedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the embedding vector for text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("retrieval: embed empty text")
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("retrieval: marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("retrieval: create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("retrieval: ollama embeddings: HTTP %d: %s", resp.StatusCode, string(b))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("retrieval: decode embed response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("retrieval: ollama returned an empty embedding")
	}
	if e.dim > 0 && len(out.Embedding) != e.dim {
		return nil, fmt.Errorf("retrieval: expected embedding dim %d, got %d", e.dim, len(out.Embedding))
	}
	return out.Embedding, nil
}
