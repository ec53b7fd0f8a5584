package recall

import (
	"context"
	"testing"

	"github.com/soundprediction/recall/pkg/crossencoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEpisodes(t *testing.T, client *Client) {
	t.Helper()
	ctx := context.Background()
	contents := []string{
		"Profit in the last week was $10,200 according to the finance database.",
		"The cafeteria introduced a new soup on Monday.",
		"Weekly profit is computed as SELECT SUM(profit) FROM finance WHERE week = 36;",
		"Quarterly planning starts in September.",
	}
	for _, content := range contents {
		_, _, err := client.AddEpisode(ctx, NewTextEpisode(content[:16], content, ""))
		require.NoError(t, err)
	}
}

func TestSearchReturnsRelevantFirst(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)
	seedEpisodes(t, client)

	facts, err := client.Search(context.Background(), "What was the profit in the last week?", 4)
	require.NoError(t, err)
	require.NotEmpty(t, facts)

	assert.Contains(t, facts[0].Fact.Text, "profit",
		"most relevant passage should mention profit, got %q", facts[0].Fact.Text)
	for i := 1; i < len(facts); i++ {
		assert.GreaterOrEqual(t, facts[i-1].Score, facts[i].Score, "scores must be descending")
	}
	for _, fact := range facts {
		assert.NotEmpty(t, fact.Fact.EpisodeUUID, "facts must carry provenance")
	}
}

func TestSearchDeterministicOrdering(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)
	seedEpisodes(t, client)
	ctx := context.Background()

	first, err := client.Search(ctx, "weekly profit", 4)
	require.NoError(t, err)
	second, err := client.Search(ctx, "weekly profit", 4)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Fact.Text, second[i].Fact.Text, "ordering must be stable across runs")
	}
}

func TestSearchEmptyStore(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)

	facts, err := client.Search(context.Background(), "anything at all", 5)
	require.NoError(t, err, "an empty store is not an error")
	assert.Empty(t, facts)
}

func TestSearchMinScoreFilters(t *testing.T) {
	client := newTestClient(t, newMockDriver(), &Config{MinScore: 0.99})
	seedEpisodes(t, client)

	facts, err := client.Search(context.Background(), "completely unrelated penguin habitats", 4)
	require.NoError(t, err)
	assert.Empty(t, facts, "nothing should clear a 0.99 score threshold")
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)

	_, err := client.Search(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestSearchEmbedderOutage(t *testing.T) {
	drv := newMockDriver()
	client, err := NewClient(drv, &mockEmbedder{fail: true},
		crossencoder.NewLocalRerankerClient(crossencoder.Config{}), nil, nil)
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "weekly profit", 5)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestSearchStoreOutage(t *testing.T) {
	drv := newMockDriver()
	client := newTestClient(t, drv, nil)
	seedEpisodes(t, client)

	drv.failAll = true
	_, err := client.Search(context.Background(), "weekly profit", 5)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}
