package crossencoder

import (
	"context"
	"fmt"
	"sort"

	"github.com/soundprediction/recall/pkg/embedder"
	"github.com/soundprediction/recall/pkg/utils"
)

// EmbeddingRerankerClient scores passages by cosine similarity between the
// query embedding and each passage embedding. Not a true cross-encoder, but
// cheap and good enough when the language model reranker is unavailable.
type EmbeddingRerankerClient struct {
	embedder embedder.Client
	config   Config
}

// NewEmbeddingRerankerClient creates an embedding-based reranker.
func NewEmbeddingRerankerClient(embedderClient embedder.Client, config Config) *EmbeddingRerankerClient {
	return &EmbeddingRerankerClient{
		embedder: embedderClient,
		config:   config,
	}
}

// Rank implements the Client interface.
func (c *EmbeddingRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}
	if c.embedder == nil {
		return nil, fmt.Errorf("embedder client is nil")
	}

	queryEmbedding, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}
	if len(queryEmbedding) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}

	passageEmbeddings, err := c.embedder.Embed(ctx, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to create passage embeddings: %w", err)
	}
	if len(passageEmbeddings) != len(passages) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d passages", len(passageEmbeddings), len(passages))
	}

	ranked := make([]RankedPassage, 0, len(passages))
	for i, passage := range passages {
		ranked = append(ranked, RankedPassage{
			Passage: passage,
			Score:   utils.CosineSimilarity(queryEmbedding, passageEmbeddings[i]),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked, nil
}

// Close implements the Client interface.
func (c *EmbeddingRerankerClient) Close() error {
	if c.embedder != nil {
		return c.embedder.Close()
	}
	return nil
}
