package driver

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/soundprediction/recall/pkg/types"
	"github.com/soundprediction/recall/pkg/utils"
)

// GraphProvider represents the type of graph database provider.
type GraphProvider string

const (
	GraphProviderNeo4j    GraphProvider = "neo4j"
	GraphProviderFalkorDB GraphProvider = "falkordb"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found in graph")

	// ErrConflict is returned when a write loses to a concurrent
	// conflicting write, such as a uniqueness constraint violation.
	ErrConflict = errors.New("conflicting write")
)

// timeFormat is RFC3339 with fixed-width nanoseconds. Both backends compare
// and sort temporal properties as strings, so the stored form must order
// lexicographically the same way it orders chronologically; RFC3339Nano
// drops trailing fractional zeros and breaks that at second boundaries.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime renders a timestamp in the stored form. Times are normalized
// to UTC so every stored string carries the same zone suffix.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// NodeRef identifies a node by label and natural key for generic upserts.
// Labels and key fields are code-controlled identifiers; key values and
// properties are always bound as query parameters.
type NodeRef struct {
	Label    string
	KeyField string
	KeyValue interface{}
}

// QueryResult holds tabular query output: rows keyed by column name, plus
// the row count.
type QueryResult struct {
	Rows  []map[string]interface{}
	Count int
}

// GraphDriver defines the operations the answer cache needs from a property
// graph backend. All mutating operations use merge semantics and are
// idempotent under identical key values.
type GraphDriver interface {
	// Generic primitives.
	UpsertNode(ctx context.Context, ref NodeRef, properties map[string]interface{}) error
	UpsertEdge(ctx context.Context, from NodeRef, relType string, to NodeRef) error
	ExecuteRead(ctx context.Context, query string, params map[string]interface{}) (*QueryResult, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]interface{}) (*QueryResult, error)

	// Fact cache operations. UpsertFact performs the whole
	// Question/Result/SQL merge chain in a single write transaction so a
	// failed write never leaves a Question without its Result edge.
	UpsertFact(ctx context.Context, record *types.FactRecord) error
	GetFact(ctx context.Context, key string) (*types.FactRecord, error)

	// Episode operations. UpsertEpisode merges on content hash and returns
	// the UUID stored in the graph plus whether a new node was created; on
	// a dedup hit the stored UUID belongs to the pre-existing node.
	UpsertEpisode(ctx context.Context, episode *types.Episode) (string, bool, error)
	GetEpisodes(ctx context.Context, reference time.Time, limit int) ([]*types.Episode, error)
	SearchEpisodesByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*types.Episode, []float64, error)

	// Maintenance.
	CreateIndices(ctx context.Context) error
	DeleteAll(ctx context.Context) error
	VerifyConnectivity(ctx context.Context) error
	Provider() GraphProvider
	Close(ctx context.Context) error
}

// rankEpisodesByEmbedding orders episodes by cosine similarity to the query
// embedding, descending, and truncates to limit. Episodes without embeddings
// are skipped.
func rankEpisodesByEmbedding(episodes []*types.Episode, embedding []float32, limit int) ([]*types.Episode, []float64) {
	type scored struct {
		episode *types.Episode
		score   float64
	}

	ranked := make([]scored, 0, len(episodes))
	for _, ep := range episodes {
		if len(ep.Embedding) == 0 {
			continue
		}
		ranked = append(ranked, scored{ep, utils.CosineSimilarity(embedding, ep.Embedding)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]*types.Episode, len(ranked))
	scores := make([]float64, len(ranked))
	for i, r := range ranked {
		out[i] = r.episode
		scores[i] = r.score
	}
	return out, scores
}

// episodeFromRow builds an Episode from a generic result row.
func episodeFromRow(row map[string]interface{}) *types.Episode {
	return &types.Episode{
		UUID:        asString(row["uuid"]),
		Name:        asString(row["name"]),
		Content:     asString(row["content"]),
		Source:      types.SourceKind(asString(row["source"])),
		Description: asString(row["description"]),
		Reference:   parseTime(row["reference"]),
		CreatedAt:   parseTime(row["created_at"]),
		ContentHash: asString(row["content_hash"]),
		Embedding:   toFloat32Slice(row["embedding"]),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// parseTime reads a stored timestamp property. RFC3339Nano parsing accepts
// the fixed-width form formatTime writes.
func parseTime(v interface{}) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// toFloat64Slice converts an embedding to the []float64 form both backends
// accept as a list parameter.
func toFloat64Slice(v []float32) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// toFloat32Slice converts a list property returned by a backend into an
// embedding vector. FalkorDB returns doubles as strings; Neo4j returns
// float64 values.
func toFloat32Slice(v interface{}) []float32 {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]float32, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case float64:
			out = append(out, float32(x))
		case float32:
			out = append(out, x)
		case int64:
			out = append(out, float32(x))
		case string:
			f, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return nil
			}
			out = append(out, float32(f))
		default:
			return nil
		}
	}
	return out
}
