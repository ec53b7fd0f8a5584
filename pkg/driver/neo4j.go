package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/soundprediction/recall/pkg/types"
)

// Neo4jDriver implements the GraphDriver interface for Neo4j databases.
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver creates a new Neo4j driver instance.
func NewNeo4jDriver(uri, username, password, database string) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jDriver{
		client:   client,
		database: database,
	}, nil
}

func (n *Neo4jDriver) session(ctx context.Context) neo4j.SessionWithContext {
	return n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
}

// collectRows runs a query inside the given transaction and gathers every
// record into a QueryResult.
func (n *Neo4jDriver) collectRows(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]interface{}) (*QueryResult, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}
	return &QueryResult{Rows: rows, Count: len(rows)}, nil
}

// ExecuteRead runs a parameterized read query in a managed read transaction.
func (n *Neo4jDriver) ExecuteRead(ctx context.Context, query string, params map[string]interface{}) (*QueryResult, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return n.collectRows(ctx, tx, query, params)
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j read failed: %w", err)
	}
	return result.(*QueryResult), nil
}

// ExecuteWrite runs a parameterized write query in a managed write
// transaction.
func (n *Neo4jDriver) ExecuteWrite(ctx context.Context, query string, params map[string]interface{}) (*QueryResult, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return n.collectRows(ctx, tx, query, params)
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j write failed: %w", err)
	}
	return result.(*QueryResult), nil
}

// UpsertNode merges a node identified by its NodeRef and applies properties.
func (n *Neo4jDriver) UpsertNode(ctx context.Context, ref NodeRef, properties map[string]interface{}) error {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	_, err := n.ExecuteWrite(ctx, upsertNodeQuery(ref), map[string]interface{}{
		"key":   ref.KeyValue,
		"props": properties,
	})
	return err
}

// UpsertEdge merges a directed relationship between two existing nodes.
func (n *Neo4jDriver) UpsertEdge(ctx context.Context, from NodeRef, relType string, to NodeRef) error {
	_, err := n.ExecuteWrite(ctx, upsertEdgeQuery(from, relType, to), map[string]interface{}{
		"from_key": from.KeyValue,
		"to_key":   to.KeyValue,
	})
	return err
}

// UpsertFact writes the Question/Result(/SQL) chain in a single write
// transaction.
func (n *Neo4jDriver) UpsertFact(ctx context.Context, record *types.FactRecord) error {
	if record == nil {
		return fmt.Errorf("cannot upsert nil fact record")
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return n.upsertFactTx(ctx, tx, record)
	})
	if err != nil {
		return fmt.Errorf("neo4j fact upsert failed: %w", wrapWriteError(err))
	}
	return nil
}

// wrapWriteError surfaces constraint violations and transient serialization
// failures as ErrConflict so callers can tell a losing concurrent write from
// an unreachable backend.
func wrapWriteError(err error) error {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		if neoErr.Code == "Neo.ClientError.Schema.ConstraintValidationFailed" ||
			strings.Contains(neoErr.Code, "TransientError") {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}

func (n *Neo4jDriver) upsertFactTx(ctx context.Context, tx neo4j.ManagedTransaction, record *types.FactRecord) (any, error) {
	now := time.Now().UTC()
	if !record.UpdatedAt.IsZero() {
		now = record.UpdatedAt
	}
	_, err := tx.Run(ctx, upsertFactQuery, map[string]interface{}{
		"key":      record.Key,
		"question": record.Question,
		"answer":   record.Answer,
		"sql":      record.SQL,
		"now":      formatTime(now),
	})
	return nil, err
}

// GetFact looks up a stored fact by its normalized question key.
func (n *Neo4jDriver) GetFact(ctx context.Context, key string) (*types.FactRecord, error) {
	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return n.getFactTx(ctx, tx, key)
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j fact lookup failed: %w", err)
	}
	record := result.(*QueryResult)
	if record.Count == 0 {
		return nil, ErrNotFound
	}
	return factFromRow(key, record.Rows[0]), nil
}

func (n *Neo4jDriver) getFactTx(ctx context.Context, tx neo4j.ManagedTransaction, key string) (any, error) {
	return n.collectRows(ctx, tx, getFactQuery, map[string]interface{}{"key": key})
}

func factFromRow(key string, row map[string]interface{}) *types.FactRecord {
	return &types.FactRecord{
		Key:       key,
		Question:  asString(row["question"]),
		Answer:    asString(row["answer"]),
		SQL:       asString(row["sql"]),
		CreatedAt: parseTime(row["created_at"]),
		UpdatedAt: parseTime(row["updated_at"]),
	}
}

// UpsertEpisode merges an episode node on its content hash. It returns the
// UUID stored in the graph, which differs from the episode's own UUID when
// identical content already existed, plus whether a new node was created.
func (n *Neo4jDriver) UpsertEpisode(ctx context.Context, episode *types.Episode) (string, bool, error) {
	if episode == nil {
		return "", false, fmt.Errorf("cannot upsert nil episode")
	}
	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = time.Now().UTC()
	}

	session := n.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return n.upsertEpisodeTx(ctx, tx, episode)
	})
	if err != nil {
		return "", false, fmt.Errorf("neo4j episode upsert failed: %w", wrapWriteError(err))
	}

	record := result.(*QueryResult)
	if record.Count == 0 {
		return "", false, fmt.Errorf("neo4j episode upsert returned no rows")
	}
	stored := asString(record.Rows[0]["uuid"])
	return stored, stored == episode.UUID, nil
}

func (n *Neo4jDriver) upsertEpisodeTx(ctx context.Context, tx neo4j.ManagedTransaction, episode *types.Episode) (any, error) {
	return n.collectRows(ctx, tx, upsertEpisodeQuery, map[string]interface{}{
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
}

// GetEpisodes returns episodes with reference time at or before the bound,
// newest first.
func (n *Neo4jDriver) GetEpisodes(ctx context.Context, reference time.Time, limit int) ([]*types.Episode, error) {
	if limit <= 0 {
		limit = 20
	}
	result, err := n.ExecuteRead(ctx, getEpisodesQuery(limit), map[string]interface{}{
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
// similarity. Similarity is computed client-side so behavior matches across
// backends regardless of native vector index support.
func (n *Neo4jDriver) SearchEpisodesByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*types.Episode, []float64, error) {
	result, err := n.ExecuteRead(ctx, allEpisodeEmbeddingsQuery, nil)
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

// CreateIndices creates the uniqueness constraints and indices the lookup
// paths depend on. Safe to call repeatedly.
func (n *Neo4jDriver) CreateIndices(ctx context.Context) error {
	for _, stmt := range rangeIndexQueries(GraphProviderNeo4j) {
		if _, err := n.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// DeleteAll removes every node and edge in the working database.
func (n *Neo4jDriver) DeleteAll(ctx context.Context) error {
	_, err := n.ExecuteWrite(ctx, deleteAllQuery, nil)
	return err
}

// VerifyConnectivity checks that the database is reachable.
func (n *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	return n.client.VerifyConnectivity(ctx)
}

// Provider returns the backend type.
func (n *Neo4jDriver) Provider() GraphProvider {
	return GraphProviderNeo4j
}

// Close releases the underlying connection pool.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}
