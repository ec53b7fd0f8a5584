package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeOrdersLexicographically(t *testing.T) {
	// Backends compare stored timestamps as strings, so chronological order
	// must survive the string comparison, including at second boundaries
	// where a variable-width fraction would sort whole seconds after
	// sub-second instants.
	times := []time.Time{
		time.Date(2026, 8, 31, 9, 59, 59, 999999999, time.UTC),
		time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 10, 0, 0, 500000000, time.UTC),
		time.Date(2026, 8, 31, 10, 0, 1, 0, time.UTC),
	}

	for i := 1; i < len(times); i++ {
		earlier, later := formatTime(times[i-1]), formatTime(times[i])
		assert.Less(t, earlier, later, "%v must sort before %v", times[i-1], times[i])
	}
}

func TestFormatTimeNormalizesZone(t *testing.T) {
	zone := time.FixedZone("CEST", 2*60*60)
	local := time.Date(2026, 8, 31, 12, 0, 0, 0, zone)
	utc := local.UTC()

	assert.Equal(t, formatTime(utc), formatTime(local))
	assert.Equal(t, "2026-08-31T10:00:00.000000000Z", formatTime(local))
}

func TestFormatTimeRoundTrip(t *testing.T) {
	want := time.Date(2026, 8, 31, 10, 0, 0, 500000000, time.UTC)
	got := parseTime(formatTime(want))
	require.True(t, got.Equal(want), "got %v, want %v", got, want)
}
