// Package crossencoder provides rerankers that score passages against a
// query. Rerankers refine the candidate set produced by embedding similarity
// search before an answer is synthesized.
package crossencoder

import (
	"context"
	"fmt"

	"github.com/soundprediction/recall/pkg/embedder"
	"github.com/soundprediction/recall/pkg/nlp"
)

// RankedPassage represents a passage with its relevance score.
type RankedPassage struct {
	Passage string  `json:"passage"`
	Score   float64 `json:"score"`
}

// Client is the interface rerankers implement.
type Client interface {
	// Rank scores passages against the query and returns them ordered by
	// descending relevance.
	Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error)

	// Close cleans up any resources.
	Close() error
}

// Config holds common reranker configuration.
type Config struct {
	Model          string `json:"model,omitempty"`
	BatchSize      int    `json:"batch_size,omitempty"`
	MaxConcurrency int    `json:"max_concurrency,omitempty"`
}

// Provider represents the type of reranker provider.
type Provider string

const (
	// ProviderOpenAI scores passages with a boolean classification prompt
	// against a language model.
	ProviderOpenAI Provider = "openai"

	// ProviderEmbedding scores passages by cosine similarity of embeddings.
	ProviderEmbedding Provider = "embedding"

	// ProviderLocal scores passages with term frequency cosine similarity,
	// requiring no external services.
	ProviderLocal Provider = "local"
)

// ClientConfig holds configuration for creating reranker clients.
type ClientConfig struct {
	Provider       Provider        `json:"provider"`
	Config         Config          `json:"config"`
	LLMClient      nlp.Client      `json:"-"`
	EmbedderClient embedder.Client `json:"-"`
}

// NewClient creates a reranker client for the configured provider.
func NewClient(clientConfig ClientConfig) (Client, error) {
	switch clientConfig.Provider {
	case ProviderOpenAI:
		if clientConfig.LLMClient == nil {
			return nil, fmt.Errorf("language model client is required for openai provider")
		}
		return NewOpenAIRerankerClient(clientConfig.LLMClient, clientConfig.Config), nil

	case ProviderEmbedding:
		if clientConfig.EmbedderClient == nil {
			return nil, fmt.Errorf("embedder client is required for embedding provider")
		}
		return NewEmbeddingRerankerClient(clientConfig.EmbedderClient, clientConfig.Config), nil

	case ProviderLocal:
		return NewLocalRerankerClient(clientConfig.Config), nil

	default:
		return nil, fmt.Errorf("unsupported reranker provider: %s", clientConfig.Provider)
	}
}

// DefaultConfig returns a default configuration for the given provider.
func DefaultConfig(provider Provider) Config {
	switch provider {
	case ProviderOpenAI:
		return Config{
			Model:          "gpt-4o-mini",
			BatchSize:      10,
			MaxConcurrency: 5,
		}
	case ProviderEmbedding:
		return Config{
			BatchSize:      50,
			MaxConcurrency: 10,
		}
	case ProviderLocal:
		return Config{
			BatchSize: 100,
		}
	default:
		return Config{}
	}
}
