package crossencoder

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"
)

// LocalRerankerClient scores passages with cosine similarity over term
// frequency vectors. It needs no external services, which makes it suitable
// for tests and air-gapped deployments.
type LocalRerankerClient struct {
	config Config
}

// NewLocalRerankerClient creates a local text similarity reranker.
func NewLocalRerankerClient(config Config) *LocalRerankerClient {
	return &LocalRerankerClient{config: config}
}

// Rank implements the Client interface.
func (c *LocalRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := termFrequencies(query)

	ranked := make([]RankedPassage, 0, len(passages))
	for _, passage := range passages {
		ranked = append(ranked, RankedPassage{
			Passage: passage,
			Score:   termCosine(queryTerms, termFrequencies(passage)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked, nil
}

// Close implements the Client interface.
func (c *LocalRerankerClient) Close() error {
	return nil
}

// termFrequencies tokenizes text into lowercase terms and counts them.
func termFrequencies(text string) map[string]float64 {
	freqs := make(map[string]float64)
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, term := range terms {
		freqs[term]++
	}
	return freqs
}

// termCosine computes cosine similarity between two term frequency maps.
func termCosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for term, fa := range a {
		normA += fa * fa
		if fb, ok := b[term]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range b {
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
