package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vdberrors "github.com/vectorlite/vectorlite/internal/errors"
)

func openTestRegistry(t *testing.T) *ListRegistry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	reg, err := OpenListRegistry(path)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestListRegistry_RecordAndList(t *testing.T) {
	reg := openTestRegistry(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, reg.Record("snap1", "/data/snapshots/snap1.json", now))
	require.NoError(t, reg.Record("snap2", "/data/snapshots/snap2.json", now.Add(time.Minute)))

	list, err := reg.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "snap2", list[0].Name)
	assert.Equal(t, "snap1", list[1].Name)
}

func TestListRegistry_RecordUpsertsExistingName(t *testing.T) {
	reg := openTestRegistry(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, reg.Record("snap1", "/old/path.json", now))
	require.NoError(t, reg.Record("snap1", "/new/path.json", now))

	list, err := reg.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/new/path.json", list[0].Path)
}

func TestListRegistry_ForgetRemovesEntry(t *testing.T) {
	reg := openTestRegistry(t)
	require.NoError(t, reg.Record("snap1", "/p.json", time.Now().UTC()))

	require.NoError(t, reg.Forget("snap1"))

	list, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListRegistry_ForgetMissingReturnsSnapshotNotFound(t *testing.T) {
	reg := openTestRegistry(t)
	err := reg.Forget("missing")
	assert.True(t, vdberrors.Is(err, vdberrors.KindSnapshotNotFound))
}
