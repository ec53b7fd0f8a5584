// Package checkpoint persists ingestion progress so re-running an ingest over
// the same source does not re-embed or re-write episodes that were already
// committed to the graph.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Ledger records which episode content hashes have been ingested. It is keyed
// by content hash so renamed or re-ordered source files still deduplicate.
type Ledger struct {
	db *badger.DB
}

// OpenLedger opens (or creates) a ledger at dir. An empty dir places the
// ledger under the OS temp directory.
func OpenLedger(dir string) (*Ledger, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "recall-ledger")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Seen reports whether the content hash has been recorded.
func (l *Ledger) Seen(contentHash string) (bool, error) {
	if contentHash == "" {
		return false, fmt.Errorf("content hash is empty")
	}

	err := l.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(contentHash))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup failed: %w", err)
	}
	return true, nil
}

// Record marks the content hash as ingested, storing the episode UUID and
// ingest time as the value.
func (l *Ledger) Record(contentHash, episodeUUID string) error {
	if contentHash == "" {
		return fmt.Errorf("content hash is empty")
	}

	value := fmt.Sprintf("%s %s", episodeUUID, time.Now().UTC().Format(time.RFC3339))
	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(contentHash), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("ledger write failed: %w", err)
	}
	return nil
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.db.Close()
}
