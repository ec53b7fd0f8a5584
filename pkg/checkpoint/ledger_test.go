package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	ledger, err := OpenLedger(t.TempDir())
	require.NoError(t, err)
	defer ledger.Close()

	t.Run("unseen hash", func(t *testing.T) {
		seen, err := ledger.Seen("deadbeef")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("record then seen", func(t *testing.T) {
		require.NoError(t, ledger.Record("cafe0001", "episode-uuid-1"))

		seen, err := ledger.Seen("cafe0001")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("record is idempotent", func(t *testing.T) {
		require.NoError(t, ledger.Record("cafe0002", "episode-uuid-2"))
		require.NoError(t, ledger.Record("cafe0002", "episode-uuid-2"))

		seen, err := ledger.Seen("cafe0002")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("empty hash rejected", func(t *testing.T) {
		_, err := ledger.Seen("")
		assert.Error(t, err)
		assert.Error(t, ledger.Record("", "uuid"))
	})
}

func TestLedgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	require.NoError(t, ledger.Record("feedface", "episode-uuid-3"))
	require.NoError(t, ledger.Close())

	reopened, err := OpenLedger(dir)
	require.NoError(t, err)
	defer reopened.Close()

	seen, err := reopened.Seen("feedface")
	require.NoError(t, err)
	assert.True(t, seen)
}
