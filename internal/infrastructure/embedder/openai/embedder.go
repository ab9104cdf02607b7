// Package openai provides an Embedder implementation using OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/ersonp/legis/internal/infrastructure/config"
)

// VectorSize is the dimension of text-embedding-3-small vectors.
const VectorSize = 1536

// maxBatch is the number of inputs sent per embeddings request.
const maxBatch = 256

// Embedder implements the Embedder interface using OpenAI.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewEmbedder creates a new OpenAI embedder.
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := openai.SmallEmbedding3
	if cfg.Model != "" {
		model = openai.EmbeddingModel(cfg.Model)
	}

	return &Embedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}

	return embeddings[0], nil
}

// EmbedBatch generates vector embeddings for multiple texts, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: e.model,
			Input: texts[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("creating embeddings: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), end-start)
		}

		chunk := make([][]float32, end-start)
		for _, data := range resp.Data {
			if data.Index < 0 || data.Index >= len(chunk) {
				return nil, fmt.Errorf("embedding index %d out of range", data.Index)
			}
			chunk[data.Index] = data.Embedding
		}
		embeddings = append(embeddings, chunk...)
	}

	return embeddings, nil
}
