package embeddings

import (
	"context"
	"fmt"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider generates embeddings using OpenAI's API. Embedding the same
// text twice is idempotent as far as this service cares, so failed calls are
// safe for callers to retry.
type OpenAIProvider struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	timeout time.Duration
}

// NewOpenAIProvider creates a new OpenAI embedding provider.
func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIProvider{
		client:  openai.NewClient(apiKey),
		model:   openai.EmbeddingModel(model),
		timeout: timeout,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Embed generates an embedding using the OpenAI API.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: p.model,
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("calling OpenAI embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return pgvector.Vector{}, fmt.Errorf("no embeddings returned")
	}

	vec := resp.Data[0].Embedding
	if len(vec) != Dimensions {
		return pgvector.Vector{}, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), Dimensions)
	}
	return pgvector.NewVector(vec), nil
}
