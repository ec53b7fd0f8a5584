package recall

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/recall/pkg/types"
)

// contentHash computes the dedup key for an episode. Structured episodes are
// hashed over a canonical serialization so key order in the source map does
// not produce distinct hashes.
func contentHash(episode *types.Episode) (string, error) {
	var payload string
	switch episode.Source {
	case types.SourceStructured:
		canonical, err := canonicalJSON(episode.Structured)
		if err != nil {
			return "", err
		}
		payload = canonical
	default:
		payload = episode.Content
	}

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON serializes a map with sorted keys. json.Marshal already sorts
// map keys at each level, so a single marshal is sufficient; the explicit
// sort of the top level documents the dependency on that behavior.
func canonicalJSON(m map[string]interface{}) (string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to serialize structured content: %w", err)
	}
	return string(data), nil
}

// embeddingText returns the text an episode is embedded under.
func embeddingText(episode *types.Episode) string {
	if episode.Name != "" {
		return episode.Name + "\n" + episode.Content
	}
	return episode.Content
}

// AddEpisode ingests a single episode: validate, hash, embed, and upsert.
// The returned flag is false when an episode with identical content already
// exists, in which case the stored episode is left untouched. Re-ingesting
// the same content never duplicates graph nodes and never re-embeds when the
// ledger is enabled.
func (c *Client) AddEpisode(ctx context.Context, episode types.Episode) (*types.Episode, bool, error) {
	if episode.Source == types.SourceStructured && episode.Content == "" && len(episode.Structured) > 0 {
		canonical, err := canonicalJSON(episode.Structured)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		episode.Content = canonical
	}

	if err := episode.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	hash, err := contentHash(&episode)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	episode.ContentHash = hash

	// The ledger short-circuits before any embedding work.
	if c.ledger != nil {
		seen, err := c.ledger.Seen(hash)
		if err != nil {
			c.logger.Warn("ledger lookup failed, continuing without dedup", "error", err)
		} else if seen {
			c.logger.Debug("episode already ingested", "content_hash", hash)
			return &episode, false, nil
		}
	}

	if episode.UUID == "" {
		episode.UUID = uuid.New().String()
	}
	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = time.Now().UTC()
	}
	// Reference is the point in time the content speaks about; without an
	// explicit one the ingestion time is the best available bound.
	if episode.Reference.IsZero() {
		episode.Reference = episode.CreatedAt
	}

	if len(episode.Embedding) == 0 {
		embedding, err := c.embedder.EmbedSingle(ctx, embeddingText(&episode))
		if err != nil {
			return nil, false, fmt.Errorf("%w: embedding failed: %v", ErrDependencyUnavailable, err)
		}
		episode.Embedding = embedding
	}

	storedUUID, created, err := c.driver.UpsertEpisode(ctx, &episode)
	if err != nil {
		return nil, false, mapDriverError(err)
	}
	if storedUUID != "" {
		// On a dedup hit against the graph the pre-existing node's UUID is
		// the real identity of this content.
		episode.UUID = storedUUID
	}

	if c.ledger != nil {
		if err := c.ledger.Record(hash, episode.UUID); err != nil {
			c.logger.Warn("ledger record failed", "content_hash", hash, "error", err)
		}
	}

	if created {
		c.logger.Info("episode ingested", "uuid", episode.UUID, "name", episode.Name)
	} else {
		c.logger.Debug("episode deduplicated", "content_hash", hash)
	}
	return &episode, created, nil
}

// Add ingests a batch of episodes. Duplicates are skipped, not errors; the
// first hard failure aborts the batch and reports how far it got.
func (c *Client) Add(ctx context.Context, episodes []types.Episode) ([]*types.Episode, error) {
	results := make([]*types.Episode, 0, len(episodes))
	for i := range episodes {
		episode, _, err := c.AddEpisode(ctx, episodes[i])
		if err != nil {
			return results, fmt.Errorf("episode %d of %d: %w", i+1, len(episodes), err)
		}
		results = append(results, episode)
	}
	return results, nil
}

// GetEpisodes retrieves episodes whose reference time is at or before the
// bound, newest first.
func (c *Client) GetEpisodes(ctx context.Context, reference time.Time, limit int) ([]*types.Episode, error) {
	if limit <= 0 {
		limit = 10
	}
	if reference.IsZero() {
		reference = time.Now().UTC()
	}

	episodes, err := c.driver.GetEpisodes(ctx, reference, limit)
	if err != nil {
		return nil, mapDriverError(err)
	}
	return episodes, nil
}

// NewTextEpisode is a convenience for ingesting plain text.
func NewTextEpisode(name, content, description string) types.Episode {
	return types.Episode{
		Name:        strings.TrimSpace(name),
		Content:     content,
		Source:      types.SourceText,
		Description: description,
	}
}
