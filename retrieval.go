package recall

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/soundprediction/recall/pkg/types"
)

// Search retrieves episodes by embedding similarity and reranks them with the
// cross-encoder. Results are ordered by descending reranker score; ties keep
// their similarity-search order, so rankings are deterministic for a fixed
// store. An empty result means the graph holds no relevant knowledge, which
// is not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]types.ScoredFact, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrMalformedInput)
	}
	if limit <= 0 {
		limit = c.config.TopK
	}

	queryEmbedding, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding failed: %v", ErrDependencyUnavailable, err)
	}

	episodes, _, err := c.driver.SearchEpisodesByEmbedding(ctx, queryEmbedding, limit)
	if err != nil {
		return nil, mapDriverError(err)
	}
	if len(episodes) == 0 {
		return []types.ScoredFact{}, nil
	}

	passages := make([]string, len(episodes))
	for i, episode := range episodes {
		passages[i] = episode.Content
	}

	ranked, err := c.reranker.Rank(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("%w: reranking failed: %v", ErrDependencyUnavailable, err)
	}

	scores := make(map[string]float64, len(ranked))
	for _, rp := range ranked {
		if _, ok := scores[rp.Passage]; !ok {
			scores[rp.Passage] = rp.Score
		}
	}

	// Rebuild in similarity order first so the stable sort below breaks
	// score ties by similarity rank.
	facts := make([]types.ScoredFact, 0, len(episodes))
	for rank, episode := range episodes {
		score, ok := scores[episode.Content]
		if !ok {
			continue
		}
		if score < c.config.MinScore {
			continue
		}
		facts = append(facts, types.ScoredFact{
			Fact: types.Fact{
				Text:        episode.Content,
				EpisodeUUID: episode.UUID,
			},
			Score:          score,
			SimilarityRank: rank,
		})
	}

	sort.SliceStable(facts, func(i, j int) bool {
		return facts[i].Score > facts[j].Score
	})

	return facts, nil
}
