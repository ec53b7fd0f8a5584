package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetHandlerBuffersErrors(t *testing.T) {
	dir := t.TempDir()

	next := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	handler, err := NewParquetHandler(next, dir)
	require.NoError(t, err)

	logger := slog.New(handler)
	logger.Info("not archived")
	logger.Error("archived", "question", "what was the profit")

	handler.mu.Lock()
	buffered := len(handler.buffer)
	handler.mu.Unlock()
	assert.Equal(t, 1, buffered, "only error records should be buffered")

	require.NoError(t, handler.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".parquet"))

	info, err := os.Stat(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestParquetHandlerFlushEmpty(t *testing.T) {
	handler, err := NewParquetHandler(slog.NewTextHandler(os.Stderr, nil), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, handler.Flush())
}

func TestParquetHandlerWithAttrs(t *testing.T) {
	handler, err := NewParquetHandler(slog.NewTextHandler(os.Stderr, nil), t.TempDir())
	require.NoError(t, err)

	child := handler.WithAttrs([]slog.Attr{slog.String("component", "ingest")})
	require.NotNil(t, child)
	assert.True(t, child.Enabled(context.Background(), slog.LevelError))
}
