package recall

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soundprediction/recall/pkg/types"
)

// normalizeQuestion produces the cache key for a question: trimmed,
// lowercased, with interior whitespace collapsed to single spaces. Two
// questions differing only in case or spacing share a cache entry.
func normalizeQuestion(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(question))), " ")
}

// PutFact stores a question/answer/SQL triple in the graph. Writing the same
// question again overwrites the previous answer and provenance rather than
// accumulating parallel results. The write is atomic: a failure leaves no
// partial triple behind.
func (c *Client) PutFact(ctx context.Context, question, answer, sql string) (*types.FactRecord, error) {
	key := normalizeQuestion(question)
	if key == "" {
		return nil, fmt.Errorf("%w: question is empty", ErrMalformedInput)
	}
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: answer is empty", ErrMalformedInput)
	}

	now := time.Now().UTC()
	record := &types.FactRecord{
		Key:       key,
		Question:  strings.TrimSpace(question),
		Answer:    strings.TrimSpace(answer),
		SQL:       strings.TrimSpace(sql),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.driver.UpsertFact(ctx, record); err != nil {
		c.logger.Error("fact upsert failed", "key", key, "error", err)
		return nil, mapDriverError(err)
	}

	c.logger.Debug("fact cached", "key", key)
	return record, nil
}

// GetFact retrieves the cached triple for a question. Matching is exact on
// the normalized question text; no similarity is involved. A miss returns
// ErrNotFound, a backend outage returns ErrDependencyUnavailable.
func (c *Client) GetFact(ctx context.Context, question string) (*types.FactRecord, error) {
	key := normalizeQuestion(question)
	if key == "" {
		return nil, fmt.Errorf("%w: question is empty", ErrMalformedInput)
	}

	record, err := c.driver.GetFact(ctx, key)
	if err != nil {
		return nil, mapDriverError(err)
	}
	return record, nil
}

// ClearGraph removes all nodes and edges from the backing store, cached
// facts and episodes alike.
func (c *Client) ClearGraph(ctx context.Context) error {
	if err := c.driver.DeleteAll(ctx); err != nil {
		return mapDriverError(err)
	}
	c.logger.Info("graph cleared")
	return nil
}

// BuildIndicesAndConstraints creates database indices and constraints for
// lookup performance. Safe to call repeatedly.
func (c *Client) BuildIndicesAndConstraints(ctx context.Context) error {
	if err := c.driver.CreateIndices(ctx); err != nil {
		return mapDriverError(err)
	}
	return nil
}
