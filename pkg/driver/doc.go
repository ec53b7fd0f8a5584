// Package driver provides graph database driver implementations for recall.
//
// This package defines the GraphDriver interface and provides implementations
// for Neo4j and FalkorDB.
//
// # Supported Databases
//
// The following graph databases are supported:
//   - Neo4j: full-featured graph database, accessed over Bolt
//   - FalkorDB: Redis-based graph database, accessed over the Redis protocol
//
// # Usage
//
// Create a driver using the appropriate constructor:
//
//	// Neo4j
//	d, err := driver.NewNeo4jDriver(uri, username, password, database)
//
//	// FalkorDB
//	d := driver.NewFalkorDBDriver("localhost:6379", "", "recall")
//
// # Parameter Binding
//
// All property values are bound as parameters. For Neo4j this uses the Bolt
// protocol's native parameter maps; for FalkorDB parameters are serialized
// into the CYPHER prelude with full string escaping. User-controlled text is
// never interpolated into query source.
//
// # Thread Safety
//
// Both implementations are safe for concurrent use from multiple goroutines.
// Connections are pooled by the underlying clients.
package driver
