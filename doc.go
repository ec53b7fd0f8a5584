/*
Package recall implements a graph-backed answer cache with semantic fallback.

Question, answer, and SQL provenance triples are stored in a property graph
(Neo4j or FalkorDB). Lookups first attempt an exact match against the cached
triples; on a miss, retrieval falls back to embedding similarity search over
ingested episodes, reranked by a cross-encoder, and the synthesized answer is
written back to the cache so the next identical question is a hit.

The main entry point is Client, created with NewClient:

	drv, err := driver.NewNeo4jDriver("bolt://localhost:7687", "neo4j", "password", "neo4j")
	if err != nil { ... }

	emb, err := embedder.NewOpenAIClient(embedder.Config{APIKey: apiKey})
	if err != nil { ... }

	reranker := crossencoder.NewEmbeddingRerankerClient(emb, crossencoder.Config{})

	client, err := recall.NewClient(drv, emb, reranker, nil, nil)
	if err != nil { ... }

	answer, err := client.Ask(ctx, "What was the profit in the last week?")
*/
package recall
