package driver

import "fmt"

// Shared Cypher used by both backends. Every user-supplied value is bound as
// a parameter; only code-controlled identifiers are ever spliced into query
// text.

// upsertFactQuery merges the full Question/Result(/SQL) chain in one
// statement. The Result node is merged through its DERIVES edge so repeated
// puts for the same question overwrite the existing answer rather than
// accumulating Result nodes (overwrite-latest conflict policy). The prior
// SQL node is always detached first so a re-put with empty SQL removes it
// instead of leaving the stale query attached.
const upsertFactQuery = `
MERGE (q:Question {key: $key})
ON CREATE SET q.created_at = $now
SET q.text = $question
MERGE (q)-[:DERIVES]->(r:Result)
SET r.answer = $answer, r.updated_at = $now
WITH r
OPTIONAL MATCH (r)-[:GENERATED_BY]->(stale:SQL)
DETACH DELETE stale
WITH r
FOREACH (_ IN CASE WHEN $sql = '' THEN [] ELSE [1] END |
    MERGE (r)-[:GENERATED_BY]->(s:SQL)
    SET s.query = $sql
)`

const getFactQuery = `
MATCH (q:Question {key: $key})-[:DERIVES]->(r:Result)
OPTIONAL MATCH (r)-[:GENERATED_BY]->(s:SQL)
RETURN q.text AS question, r.answer AS answer, s.query AS sql,
       q.created_at AS created_at, r.updated_at AS updated_at
LIMIT 1`

// upsertEpisodeQuery merges on content hash so re-ingesting identical
// content is a no-op. Properties are only written on create; episodes are
// immutable after ingestion.
const upsertEpisodeQuery = `
MERGE (e:Episodic {content_hash: $content_hash})
ON CREATE SET e.uuid = $uuid, e.name = $name, e.content = $content,
              e.source = $source, e.description = $description,
              e.reference = $reference, e.created_at = $created_at,
              e.embedding = $embedding
RETURN e.uuid AS uuid`

const episodeColumns = `e.uuid AS uuid, e.name AS name, e.content AS content,
       e.source AS source, e.description AS description,
       e.reference AS reference, e.created_at AS created_at,
       e.content_hash AS content_hash, e.embedding AS embedding`

const deleteAllQuery = `MATCH (n) DETACH DELETE n`

// getEpisodesQuery returns episodes with reference time at or before the
// supplied bound, newest first. The limit is a code-controlled integer.
func getEpisodesQuery(limit int) string {
	return fmt.Sprintf(`
MATCH (e:Episodic)
WHERE e.reference <= $reference
RETURN %s
ORDER BY e.reference DESC
LIMIT %d`, episodeColumns, limit)
}

const allEpisodeEmbeddingsQuery = `
MATCH (e:Episodic)
WHERE e.embedding IS NOT NULL
RETURN ` + episodeColumns

// upsertNodeQuery builds the generic merge for a NodeRef. Label and key
// field come from code, never from user input.
func upsertNodeQuery(ref NodeRef) string {
	return fmt.Sprintf(`MERGE (n:%s {%s: $key}) SET n += $props`, ref.Label, ref.KeyField)
}

func upsertEdgeQuery(from NodeRef, relType string, to NodeRef) string {
	return fmt.Sprintf(`
MATCH (a:%s {%s: $from_key})
MATCH (b:%s {%s: $to_key})
MERGE (a)-[:%s]->(b)`, from.Label, from.KeyField, to.Label, to.KeyField, relType)
}

// rangeIndexQueries returns the idempotent index and constraint statements
// for a provider. Question keys and episode content hashes are the natural
// keys every lookup path depends on.
func rangeIndexQueries(provider GraphProvider) []string {
	switch provider {
	case GraphProviderNeo4j:
		return []string{
			`CREATE CONSTRAINT question_key IF NOT EXISTS FOR (q:Question) REQUIRE q.key IS UNIQUE`,
			`CREATE CONSTRAINT episode_content_hash IF NOT EXISTS FOR (e:Episodic) REQUIRE e.content_hash IS UNIQUE`,
			`CREATE INDEX episode_reference IF NOT EXISTS FOR (e:Episodic) ON (e.reference)`,
		}
	case GraphProviderFalkorDB:
		// FalkorDB has no IF NOT EXISTS clause; callers swallow the
		// "already indexed" error to stay idempotent.
		return []string{
			`CREATE INDEX FOR (q:Question) ON (q.key)`,
			`CREATE INDEX FOR (e:Episodic) ON (e.content_hash)`,
			`CREATE INDEX FOR (e:Episodic) ON (e.reference)`,
		}
	default:
		return nil
	}
}
