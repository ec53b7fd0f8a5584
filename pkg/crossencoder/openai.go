package crossencoder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/soundprediction/recall/pkg/nlp"
	"github.com/soundprediction/recall/pkg/types"
)

// OpenAIRerankerClient scores passages by running a boolean classification
// prompt against a language model, one request per passage, concurrently.
type OpenAIRerankerClient struct {
	client    nlp.Client
	config    Config
	semaphore chan struct{}
}

// NewOpenAIRerankerClient creates a language model backed reranker.
func NewOpenAIRerankerClient(llmClient nlp.Client, config Config) *OpenAIRerankerClient {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}

	return &OpenAIRerankerClient{
		client:    llmClient,
		config:    config,
		semaphore: make(chan struct{}, config.MaxConcurrency),
	}
}

// Rank implements the Client interface.
func (c *OpenAIRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	type passageResult struct {
		passage string
		score   float64
		err     error
	}

	results := make([]passageResult, len(passages))
	var wg sync.WaitGroup

	for i, passage := range passages {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()

			c.semaphore <- struct{}{}
			defer func() { <-c.semaphore }()

			score, err := c.scorePassage(ctx, query, p)
			results[idx] = passageResult{passage: p, score: score, err: err}
		}(i, passage)
	}

	wg.Wait()

	ranked := make([]RankedPassage, 0, len(passages))
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("error scoring passage %d: %w", i, result.err)
		}
		ranked = append(ranked, RankedPassage{Passage: result.passage, Score: result.score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked, nil
}

// scorePassage asks the model whether the passage is relevant to the query and
// maps the answer onto a coarse score.
func (c *OpenAIRerankerClient) scorePassage(ctx context.Context, query, passage string) (float64, error) {
	messages := []types.Message{
		nlp.NewSystemMessage("You are an expert tasked with determining whether the passage is relevant to the query"),
		nlp.NewUserMessage(fmt.Sprintf(`Respond with "True" if PASSAGE is relevant to QUERY and "False" otherwise.
<PASSAGE>
%s
</PASSAGE>
<QUERY>
%s
</QUERY>`, passage, query)),
	}

	response, err := c.client.Chat(ctx, messages)
	if err != nil {
		return 0, fmt.Errorf("failed to get response: %w", err)
	}

	firstWord := response.Content
	if idx := strings.IndexAny(firstWord, " \n\t"); idx >= 0 {
		firstWord = firstWord[:idx]
	}

	switch strings.ToLower(firstWord) {
	case "true", "yes":
		return 0.8, nil
	case "false", "no":
		return 0.2, nil
	default:
		return 0.5, nil
	}
}

// Close implements the Client interface.
func (c *OpenAIRerankerClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
