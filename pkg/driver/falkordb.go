package driver

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/soundprediction/recall/pkg/types"
)

// FalkorDBDriver implements the GraphDriver interface for FalkorDB, which
// speaks the Redis protocol (GRAPH.QUERY against a named graph key).
type FalkorDBDriver struct {
	client *redis.Client
	graph  string
}

// NewFalkorDBDriver creates a FalkorDB driver for the given address and
// graph name.
func NewFalkorDBDriver(addr, password, graph string) *FalkorDBDriver {
	if graph == "" {
		graph = "recall"
	}
	return &FalkorDBDriver{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		graph: graph,
	}
}

// run sends a query with its parameters serialized into a CYPHER prelude,
// which is how the FalkorDB protocol carries bound parameters. User values
// never splice into the query body itself.
func (f *FalkorDBDriver) run(ctx context.Context, query string, params map[string]interface{}) (*QueryResult, error) {
	full := query
	if len(params) > 0 {
		prelude, err := serializeParams(params)
		if err != nil {
			return nil, err
		}
		full = prelude + " " + query
	}

	res, err := f.client.Do(ctx, "GRAPH.QUERY", f.graph, full).Result()
	if err != nil {
		return nil, fmt.Errorf("falkordb query failed: %w", err)
	}
	return parseGraphReply(res)
}

// ExecuteRead runs a parameterized read query. FalkorDB executes each
// GRAPH.QUERY call atomically; there is no separate read transaction.
func (f *FalkorDBDriver) ExecuteRead(ctx context.Context, query string, params map[string]interface{}) (*QueryResult, error) {
	return f.run(ctx, query, params)
}

// ExecuteWrite runs a parameterized write query as a single atomic call.
func (f *FalkorDBDriver) ExecuteWrite(ctx context.Context, query string, params map[string]interface{}) (*QueryResult, error) {
	return f.run(ctx, query, params)
}

// UpsertNode merges a node identified by its NodeRef and applies properties.
func (f *FalkorDBDriver) UpsertNode(ctx context.Context, ref NodeRef, properties map[string]interface{}) error {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	_, err := f.run(ctx, upsertNodeQuery(ref), map[string]interface{}{
		"key":   ref.KeyValue,
		"props": properties,
	})
	return err
}

// UpsertEdge merges a directed relationship between two existing nodes.
func (f *FalkorDBDriver) UpsertEdge(ctx context.Context, from NodeRef, relType string, to NodeRef) error {
	_, err := f.run(ctx, upsertEdgeQuery(from, relType, to), map[string]interface{}{
		"from_key": from.KeyValue,
		"to_key":   to.KeyValue,
	})
	return err
}

// UpsertFact writes the Question/Result(/SQL) chain in one atomic
// GRAPH.QUERY call.
func (f *FalkorDBDriver) UpsertFact(ctx context.Context, record *types.FactRecord) error {
	if record == nil {
		return fmt.Errorf("cannot upsert nil fact record")
	}
	now := time.Now().UTC()
	if !record.UpdatedAt.IsZero() {
		now = record.UpdatedAt
	}
	_, err := f.run(ctx, upsertFactQuery, map[string]interface{}{
		"key":      record.Key,
		"question": record.Question,
		"answer":   record.Answer,
		"sql":      record.SQL,
		"now":      formatTime(now),
	})
	return err
}

// GetFact looks up a stored fact by its normalized question key.
func (f *FalkorDBDriver) GetFact(ctx context.Context, key string) (*types.FactRecord, error) {
	result, err := f.run(ctx, getFactQuery, map[string]interface{}{"key": key})
	if err != nil {
		return nil, err
	}
	if result.Count == 0 {
		return nil, ErrNotFound
	}
	return factFromRow(key, result.Rows[0]), nil
}

// UpsertEpisode merges an episode node on its content hash. It returns the
// UUID stored in the graph, which differs from the episode's own UUID when
// identical content already existed, plus whether a new node was created.
func (f *FalkorDBDriver) UpsertEpisode(ctx context.Context, episode *types.Episode) (string, bool, error) {
	if episode == nil {
		return "", false, fmt.Errorf("cannot upsert nil episode")
	}
	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = time.Now().UTC()
	}

	result, err := f.run(ctx, upsertEpisodeQuery, map[string]interface{}{
		"content_hash": episode.ContentHash,
		"uuid":         episode.UUID,
		"name":         episode.Name,
		"content":      episode.Content,
		"source":       string(episode.Source),
		"description":  episode.Description,
		"reference":    formatTime(episode.Reference),
		"created_at":   formatTime(episode.CreatedAt),
		"embedding":    toFloat64Slice(episode.Embedding),
	})
	if err != nil {
		return "", false, err
	}
	if result.Count == 0 {
		return "", false, fmt.Errorf("falkordb episode upsert returned no rows")
	}
	stored := asString(result.Rows[0]["uuid"])
	return stored, stored == episode.UUID, nil
}

// GetEpisodes returns episodes with reference time at or before the bound,
// newest first.
func (f *FalkorDBDriver) GetEpisodes(ctx context.Context, reference time.Time, limit int) ([]*types.Episode, error) {
	if limit <= 0 {
		limit = 20
	}
	result, err := f.run(ctx, getEpisodesQuery(limit), map[string]interface{}{
		"reference": formatTime(reference),
	})
	if err != nil {
		return nil, err
	}

	episodes := make([]*types.Episode, 0, result.Count)
	for _, row := range result.Rows {
		episodes = append(episodes, episodeFromRow(row))
	}
	return episodes, nil
}

// SearchEpisodesByEmbedding retrieves the limit nearest episodes by cosine
// similarity, computed client-side.
func (f *FalkorDBDriver) SearchEpisodesByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*types.Episode, []float64, error) {
	result, err := f.run(ctx, allEpisodeEmbeddingsQuery, nil)
	if err != nil {
		return nil, nil, err
	}

	episodes := make([]*types.Episode, 0, result.Count)
	for _, row := range result.Rows {
		episodes = append(episodes, episodeFromRow(row))
	}

	ranked, scores := rankEpisodesByEmbedding(episodes, embedding, limit)
	return ranked, scores, nil
}

// CreateIndices creates the lookup indices. FalkorDB errors on an existing
// index, so "already indexed" replies are treated as success.
func (f *FalkorDBDriver) CreateIndices(ctx context.Context) error {
	for _, stmt := range rangeIndexQueries(GraphProviderFalkorDB) {
		if _, err := f.run(ctx, stmt, nil); err != nil {
			if strings.Contains(err.Error(), "already indexed") {
				continue
			}
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// DeleteAll removes every node and edge in the working graph.
func (f *FalkorDBDriver) DeleteAll(ctx context.Context) error {
	_, err := f.run(ctx, deleteAllQuery, nil)
	return err
}

// VerifyConnectivity checks that the server is reachable.
func (f *FalkorDBDriver) VerifyConnectivity(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

// Provider returns the backend type.
func (f *FalkorDBDriver) Provider() GraphProvider {
	return GraphProviderFalkorDB
}

// Close releases the underlying connection pool.
func (f *FalkorDBDriver) Close(ctx context.Context) error {
	return f.client.Close()
}

// serializeParams renders bound parameters as the CYPHER prelude FalkorDB
// expects. Keys are emitted in sorted order so queries are deterministic.
func serializeParams(params map[string]interface{}) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("CYPHER")
	for _, k := range keys {
		v, err := serializeParamValue(params[k])
		if err != nil {
			return "", fmt.Errorf("parameter %q: %w", k, err)
		}
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(v)
	}
	return sb.String(), nil
}

// serializeParamValue renders a single parameter value as a Cypher literal
// with full string escaping, so arbitrary question/answer text (apostrophes,
// quotes, braces) round-trips safely.
func serializeParamValue(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return quoteString(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case time.Time:
		return quoteString(formatTime(x)), nil
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case []float32:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case []string:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = quoteString(s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case []interface{}:
		parts := make([]string, len(x))
		for i, item := range x {
			s, err := serializeParamValue(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			s, err := serializeParamValue(x[k])
			if err != nil {
				return "", err
			}
			parts = append(parts, k+": "+s)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	default:
		return "", fmt.Errorf("unsupported parameter type %T", v)
	}
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// parseGraphReply converts a GRAPH.QUERY reply into a QueryResult. Replies
// carry [header, rows, stats] for queries with a RETURN clause and just
// [stats] otherwise.
func parseGraphReply(res interface{}) (*QueryResult, error) {
	reply, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected falkordb reply type %T", res)
	}
	if len(reply) < 3 {
		return &QueryResult{}, nil
	}

	header, ok := reply[0].([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected falkordb header type %T", reply[0])
	}
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = asString(col)
	}

	rawRows, ok := reply[1].([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected falkordb row set type %T", reply[1])
	}

	rows := make([]map[string]interface{}, 0, len(rawRows))
	for _, rawRow := range rawRows {
		values, ok := rawRow.([]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected falkordb row type %T", rawRow)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		rows = append(rows, row)
	}
	return &QueryResult{Rows: rows, Count: len(rows)}, nil
}
