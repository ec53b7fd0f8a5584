package recall

import (
	"context"
	"fmt"
	"testing"

	"github.com/soundprediction/recall/pkg/crossencoder"
	"github.com/soundprediction/recall/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskCacheHit(t *testing.T) {
	drv := newMockDriver()
	client := newTestClient(t, drv, nil)
	ctx := context.Background()

	_, err := client.PutFact(ctx, "What was the profit in the last week?",
		"Profit in the last week was $10,200.", "SELECT SUM(profit) FROM finance WHERE week = 36;")
	require.NoError(t, err)

	searchesBefore := drv.searchCalls
	answer, err := client.Ask(ctx, "What was the profit in the last week?")
	require.NoError(t, err)

	assert.Equal(t, types.AnswerSourceCache, answer.Source)
	assert.Equal(t, "Profit in the last week was $10,200.", answer.Answer)
	assert.Equal(t, "SELECT SUM(profit) FROM finance WHERE week = 36;", answer.SQL)
	assert.Equal(t, searchesBefore, drv.searchCalls, "a cache hit must not trigger semantic search")
}

func TestAskFallsBackToSemantic(t *testing.T) {
	drv := newMockDriver()
	client := newTestClient(t, drv, nil)
	seedEpisodes(t, client)
	ctx := context.Background()

	answer, err := client.Ask(ctx, "What was the profit in the last week?")
	require.NoError(t, err)

	assert.Equal(t, types.AnswerSourceSemantic, answer.Source)
	assert.Contains(t, answer.Answer, "profit")
}

func TestAskFillsCacheAfterFallback(t *testing.T) {
	drv := newMockDriver()
	llm := &mockLLM{response: `{"answer": "Profit in the last week was $10,200.", "sql": "SELECT SUM(profit) FROM finance WHERE week = 36;"}`}
	client, err := NewClient(drv, &mockEmbedder{},
		crossencoder.NewLocalRerankerClient(crossencoder.Config{}), &Config{LLM: llm}, nil)
	require.NoError(t, err)
	seedEpisodes(t, client)
	ctx := context.Background()

	first, err := client.Ask(ctx, "What was the profit in the last week?")
	require.NoError(t, err)
	require.Equal(t, types.AnswerSourceSemantic, first.Source)

	// The synthesized answer must now be served from the cache, and it must
	// be the same answer.
	second, err := client.Ask(ctx, "What was the profit in the last week?")
	require.NoError(t, err)
	assert.Equal(t, types.AnswerSourceCache, second.Source)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, 1, llm.calls, "the second ask must not re-run synthesis")
}

func TestAskSynthesisParsesRepairedJSON(t *testing.T) {
	drv := newMockDriver()
	// Trailing commas and single quotes exercise the JSON repair path.
	llm := &mockLLM{response: `{'answer': 'Profit in the last week was $10,200.', 'sql': '',}`}
	client, err := NewClient(drv, &mockEmbedder{},
		crossencoder.NewLocalRerankerClient(crossencoder.Config{}), &Config{LLM: llm}, nil)
	require.NoError(t, err)
	seedEpisodes(t, client)

	answer, err := client.Ask(context.Background(), "What was the profit in the last week?")
	require.NoError(t, err)
	assert.Equal(t, "Profit in the last week was $10,200.", answer.Answer)
}

func TestAskNoKnowledgeIsNotFound(t *testing.T) {
	client := newTestClient(t, newMockDriver(), nil)

	_, err := client.Ask(context.Background(), "What was the profit in the last week?")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAskOutageNotMaskedAsNotFound(t *testing.T) {
	drv := newMockDriver()
	client := newTestClient(t, drv, nil)
	seedEpisodes(t, client)

	drv.failAll = true
	_, err := client.Ask(context.Background(), "What was the profit in the last week?")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestAskSynthesisOutage(t *testing.T) {
	drv := newMockDriver()
	llm := &mockLLM{err: fmt.Errorf("model endpoint down")}
	client, err := NewClient(drv, &mockEmbedder{},
		crossencoder.NewLocalRerankerClient(crossencoder.Config{}), &Config{LLM: llm}, nil)
	require.NoError(t, err)
	seedEpisodes(t, client)

	_, err = client.Ask(context.Background(), "What was the profit in the last week?")
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestAskCacheFillFailureStillAnswers(t *testing.T) {
	drv := newMockDriver()
	client := newTestClient(t, drv, nil)
	seedEpisodes(t, client)
	ctx := context.Background()

	// Fail only the fact write, not reads or search.
	drv.failPuts = true

	answer, err := client.Ask(ctx, "What was the profit in the last week?")
	require.NoError(t, err, "a failed cache fill must not fail the ask")
	assert.NotEmpty(t, answer.Answer)
	assert.Equal(t, types.AnswerSourceSemantic, answer.Source)
}
