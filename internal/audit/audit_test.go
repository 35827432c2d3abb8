package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchemaAndRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	trail, err := Open(path)
	require.NoError(t, err)
	defer trail.Close()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, trail.Record(now, "Flood", "1.2.3.4", "ban"))
	require.NoError(t, trail.Record(now, "Flood", "1.2.3.4", "ban"))
	require.NoError(t, trail.Record(now, "Multiport", "5.6.7.8", "ban"))

	n, err := trail.CountByAddress("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = trail.CountByAddress("9.9.9.9")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReopenPreservesPriorEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	trail, err := Open(path)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, trail.Record(now, "First packet", "1.1.1.1", "observe"))
	require.NoError(t, trail.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.CountByAddress("1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
