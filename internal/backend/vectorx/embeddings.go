// Package vectorx wraps the Qdrant dense vector store and its Ollama
// embedding backend, used by the Vector Enhancer keyword-expansion pass
// (internal/vectorenhancer) and the RAG retriever.
package vectorx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/observability"
)

const (
	// DefaultEmbeddingModel produces 768-dimensional vectors.
	DefaultEmbeddingModel = "nomic-embed-text"

	// DefaultEmbeddingDimension is the vector dimension for the default model.
	DefaultEmbeddingDimension = 768

	// DefaultBatchSize bounds parallel embedding requests.
	DefaultBatchSize = 10
)

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	OllamaHost string
	Model      string
	Dimension  int
	BatchSize  int
}

// EmbeddingService generates dense vectors via Ollama.
type EmbeddingService struct {
	client    *api.Client
	model     string
	dimension int
	batchSize int
	logger    zerolog.Logger
	mu        sync.RWMutex
	ready     bool
}

// NewEmbeddingService constructs an embedding service.
func NewEmbeddingService(cfg EmbeddingConfig) (*EmbeddingService, error) {
	if cfg.OllamaHost == "" {
		cfg.OllamaHost = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultEmbeddingDimension
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	ollamaURL, err := url.Parse(cfg.OllamaHost)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host url: %w", err)
	}

	return &EmbeddingService{
		client:    api.NewClient(ollamaURL, http.DefaultClient),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		logger:    observability.Logger("vectorx.embeddings"),
	}, nil
}

// EnsureModel pulls the embedding model if it is not already available.
func (svc *EmbeddingService) EnsureModel(ctx context.Context) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.ready {
		return nil
	}

	if _, err := svc.client.Show(ctx, &api.ShowRequest{Model: svc.model}); err == nil {
		svc.ready = true
		return nil
	}

	svc.logger.Info().Str("model", svc.model).Msg("pulling embedding model")
	progressFn := func(resp api.ProgressResponse) error { return nil }
	if err := svc.client.Pull(ctx, &api.PullRequest{Model: svc.model}, progressFn); err != nil {
		return fmt.Errorf("pull embedding model %s: %w", svc.model, err)
	}
	svc.ready = true
	return nil
}

// Embed generates a single embedding.
func (svc *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := svc.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return out[0], nil
}

// EmbedBatch generates embeddings for multiple texts, bounded by batchSize
// concurrent requests.
func (svc *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := svc.EnsureModel(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	out := make([][]float32, len(texts))
	errs := make([]error, len(texts))

	var wg sync.WaitGroup
	sem := make(chan struct{}, svc.batchSize)
	for i, text := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, txt string) {
			defer wg.Done()
			defer func() { <-sem }()
			vec, err := svc.embedSingle(ctx, txt)
			if err != nil {
				errs[idx] = err
				return
			}
			out[idx] = vec
		}(i, text)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	svc.logger.Debug().Int("count", len(texts)).Dur("duration", time.Since(start)).Msg("embedded batch")
	return out, nil
}

func (svc *EmbeddingService) embedSingle(ctx context.Context, text string) ([]float32, error) {
	resp, err := svc.client.Embed(ctx, &api.EmbedRequest{Model: svc.model, Input: text})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	vec := make([]float32, len(resp.Embeddings[0]))
	for i, v := range resp.Embeddings[0] {
		vec[i] = float32(v)
	}
	return vec, nil
}
