package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd_RegistersAllSubcommands(t *testing.T) {
	// Given: the root command
	rootCmd := NewRootCmd()

	// When: looking up each top-level subcommand
	names := []string{"serve", "library", "snapshot", "browse", "doctor", "config", "version"}

	// Then: all of them should resolve
	for _, name := range names {
		found, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, "expected %q to be registered", name)
		assert.Equal(t, name, found.Name())
	}
}

func TestOpenVectorDB_BuildsFromConfig(t *testing.T) {
	// Given: a config pointed at an isolated data dir
	t.Setenv("DATA_DIR", t.TempDir())
	cfg, err := loadConfig()
	require.NoError(t, err)

	// When: opening the vector database from it
	db, err := openVectorDB(cfg)

	// Then: it should open cleanly and start with no libraries
	require.NoError(t, err)
	defer db.Close()
	assert.Empty(t, db.ListLibraries())
}
