package telemetry

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)

	err = InitTelemetrySchema(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestNewSQLiteMetricsStore_NilDB(t *testing.T) {
	_, err := NewSQLiteMetricsStore(nil)
	assert.Error(t, err)
}

func TestSQLiteMetricsStore_LatencyCounts(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewSQLiteMetricsStore(db)
	require.NoError(t, err)

	err = store.SaveLatencyCounts("2026-07-29", map[LatencyBucket]int64{
		BucketP10: 5,
		BucketP50: 2,
	})
	require.NoError(t, err)

	err = store.SaveLatencyCounts("2026-07-29", map[LatencyBucket]int64{
		BucketP10: 3,
	})
	require.NoError(t, err)

	counts, err := store.GetLatencyCounts("2026-07-29", "2026-07-29")
	require.NoError(t, err)
	assert.Equal(t, int64(8), counts[BucketP10])
	assert.Equal(t, int64(2), counts[BucketP50])
}

func TestSQLiteMetricsStore_ZeroResultLibraries(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewSQLiteMetricsStore(db)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, store.AddZeroResultLibrary("lib-1", now))
	require.NoError(t, store.AddZeroResultLibrary("lib-2", now))

	libs, err := store.GetZeroResultLibraries(10)
	require.NoError(t, err)
	require.Len(t, libs, 2)
	assert.Equal(t, "lib-2", libs[0]) // newest first
}

func TestSQLiteMetricsStore_ZeroResultLibraries_TrimsTo100(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewSQLiteMetricsStore(db)
	require.NoError(t, err)

	now := time.Now()
	for i := 0; i < 105; i++ {
		require.NoError(t, store.AddZeroResultLibrary("lib", now))
	}

	libs, err := store.GetZeroResultLibraries(1000)
	require.NoError(t, err)
	assert.Len(t, libs, 100)
}

func TestSQLiteMetricsStore_Close(t *testing.T) {
	db := setupTestDB(t)
	store, err := NewSQLiteMetricsStore(db)
	require.NoError(t, err)
	assert.NoError(t, store.Close())

	// db remains usable after store.Close since it's shared.
	require.NoError(t, db.Ping())
}
