package recall

import (
	"context"
	"time"

	"github.com/soundprediction/recall/pkg/types"
)

// This file defines focused interfaces following the Interface Segregation
// Principle. The composed Recall interface exists for consumers that need the
// whole surface; most callers should depend on the smallest interface that
// meets their needs.

// FactCache provides exact-match storage of question/answer/SQL triples.
type FactCache interface {
	// PutFact stores a triple, overwriting any earlier answer for the same
	// normalized question.
	PutFact(ctx context.Context, question, answer, sql string) (*types.FactRecord, error)

	// GetFact retrieves the triple for an exactly matching question, or
	// ErrNotFound.
	GetFact(ctx context.Context, question string) (*types.FactRecord, error)
}

// EpisodeIngestor adds source material to the graph for semantic retrieval.
type EpisodeIngestor interface {
	// AddEpisode ingests a single episode. The returned flag is false when
	// the episode was deduplicated against existing content.
	AddEpisode(ctx context.Context, episode types.Episode) (*types.Episode, bool, error)

	// Add ingests a batch of episodes, continuing past duplicates.
	Add(ctx context.Context, episodes []types.Episode) ([]*types.Episode, error)

	// GetEpisodes retrieves episodes created at or before reference,
	// newest first.
	GetEpisodes(ctx context.Context, reference time.Time, limit int) ([]*types.Episode, error)
}

// SemanticSearcher retrieves reranked facts by embedding similarity.
type SemanticSearcher interface {
	// Search returns scored facts for the query ordered by descending
	// relevance. An empty result is not an error.
	Search(ctx context.Context, query string, limit int) ([]types.ScoredFact, error)
}

// Answerer resolves a question through the cache-then-search pipeline.
type Answerer interface {
	// Ask answers a question, preferring the exact-match cache and falling
	// back to semantic retrieval with cache write-back.
	Ask(ctx context.Context, question string) (*types.Answer, error)
}

// GraphAdmin provides maintenance operations on the backing store.
type GraphAdmin interface {
	// BuildIndicesAndConstraints creates database indices and constraints.
	BuildIndicesAndConstraints(ctx context.Context) error

	// ClearGraph removes all nodes and edges from the graph.
	ClearGraph(ctx context.Context) error
}

// Recall is the full client surface.
type Recall interface {
	FactCache
	EpisodeIngestor
	SemanticSearcher
	Answerer
	GraphAdmin

	// Close closes all connections and cleans up resources.
	Close(ctx context.Context) error
}

var _ Recall = (*Client)(nil)
