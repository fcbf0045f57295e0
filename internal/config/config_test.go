package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "cosine", cfg.DefaultMetric)
	assert.Equal(t, "linear", cfg.DefaultIndex)
	assert.Equal(t, 16, cfg.LSHNumPlanes)
	assert.Equal(t, 4, cfg.LSHNumTables)
	assert.Equal(t, int64(42), cfg.LSHSeed)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Contains(t, cfg.DataDir, "vectorlite")

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	assert.Equal(t, 5, cfg.Logging.MaxFiles)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Contains(t, cfg.Server.CORSOrigins, "*")
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "cosine", cfg.DefaultMetric)
}

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
default_metric: euclidean
default_index: kdtree
lsh_num_planes: 24
lsh_num_tables: 8
`
	err := os.WriteFile(filepath.Join(tmpDir, ".vectorlite.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "euclidean", cfg.DefaultMetric)
	assert.Equal(t, "kdtree", cfg.DefaultIndex)
	assert.Equal(t, 24, cfg.LSHNumPlanes)
	assert.Equal(t, 8, cfg.LSHNumTables)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `
default_index: lsh
`
	err := os.WriteFile(filepath.Join(tmpDir, ".vectorlite.yml"), []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "lsh", cfg.DefaultIndex)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	tmpDir := t.TempDir()
	yamlContent := "default_index: kdtree\n"
	ymlContent := "default_index: lsh\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".vectorlite.yaml"), []byte(yamlContent), 0o644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(tmpDir, ".vectorlite.yml"), []byte(ymlContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "kdtree", cfg.DefaultIndex)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := `
default_metric: [invalid yaml syntax
`
	err := os.WriteFile(filepath.Join(tmpDir, ".vectorlite.yaml"), []byte(invalidContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidMetric_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	invalidContent := `
default_metric: manhattan
`
	err := os.WriteFile(filepath.Join(tmpDir, ".vectorlite.yaml"), []byte(invalidContent), 0o644)
	require.NoError(t, err)

	cfg, err := Load(tmpDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "default_metric")
}

func TestLoad_EnvVarOverridesMetric(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "default_metric: cosine\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".vectorlite.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)
	t.Setenv("DEFAULT_METRIC", "dot")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "dot", cfg.DefaultMetric)
}

func TestLoad_EnvVarOverridesDataDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DATA_DIR", "/tmp/custom-vectorlite-data")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-vectorlite-data", cfg.DataDir)
}

func TestLoad_EnvVarOverridesLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvVarOverridesLSHParams(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := "lsh_num_planes: 16\nlsh_num_tables: 4\n"
	err := os.WriteFile(filepath.Join(tmpDir, ".vectorlite.yaml"), []byte(configContent), 0o644)
	require.NoError(t, err)
	t.Setenv("LSH_NUM_PLANES", "32")
	t.Setenv("LSH_NUM_TABLES", "6")
	t.Setenv("LSH_SEED", "7")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, 32, cfg.LSHNumPlanes)
	assert.Equal(t, 6, cfg.LSHNumTables)
	assert.Equal(t, int64(7), cfg.LSHSeed)
}

func TestLoad_EnvVarEmptyString_DoesNotOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("DEFAULT_METRIC", "")

	cfg, err := Load(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "cosine", cfg.DefaultMetric)
}

func TestGetUserConfigPath_DefaultsToXDGLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path := GetUserConfigPath()

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	expected := filepath.Join(home, ".config", "vectorlite", "config.yaml")
	assert.Equal(t, expected, path)
}

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	customConfig := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", customConfig)

	path := GetUserConfigPath()

	expected := filepath.Join(customConfig, "vectorlite", "config.yaml")
	assert.Equal(t, expected, path)
}

func TestGetUserConfigDir_ReturnsParentOfConfigPath(t *testing.T) {
	dir := GetUserConfigDir()
	path := GetUserConfigPath()

	assert.Equal(t, filepath.Dir(path), dir)
}

func TestUserConfigExists_ReturnsFalseWhenMissing(t *testing.T) {
	emptyDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", emptyDir)

	exists := UserConfigExists()

	assert.False(t, exists)
}

func TestUserConfigExists_ReturnsTrueWhenPresent(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	vectorliteDir := filepath.Join(configDir, "vectorlite")
	require.NoError(t, os.MkdirAll(vectorliteDir, 0o755))
	configPath := filepath.Join(vectorliteDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("default_metric: cosine"), 0o644))

	exists := UserConfigExists()

	assert.True(t, exists)
}

func TestLoad_UserConfigOverridesDefaults(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	vectorliteDir := filepath.Join(configDir, "vectorlite")
	require.NoError(t, os.MkdirAll(vectorliteDir, 0o755))
	userConfig := "default_index: kdtree\n"
	require.NoError(t, os.WriteFile(filepath.Join(vectorliteDir, "config.yaml"), []byte(userConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "kdtree", cfg.DefaultIndex)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	vectorliteDir := filepath.Join(configDir, "vectorlite")
	require.NoError(t, os.MkdirAll(vectorliteDir, 0o755))
	userConfig := "default_index: kdtree\ndefault_metric: euclidean\n"
	require.NoError(t, os.WriteFile(filepath.Join(vectorliteDir, "config.yaml"), []byte(userConfig), 0o644))

	projectConfig := "default_index: lsh\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".vectorlite.yaml"), []byte(projectConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "lsh", cfg.DefaultIndex)
	assert.Equal(t, "euclidean", cfg.DefaultMetric)
}

func TestLoad_EnvVarOverridesUserAndProjectConfig(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("DEFAULT_INDEX", "lsh")

	vectorliteDir := filepath.Join(configDir, "vectorlite")
	require.NoError(t, os.MkdirAll(vectorliteDir, 0o755))
	userConfig := "default_index: kdtree\n"
	require.NoError(t, os.WriteFile(filepath.Join(vectorliteDir, "config.yaml"), []byte(userConfig), 0o644))

	projectConfig := "default_index: linear\n"
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".vectorlite.yaml"), []byte(projectConfig), 0o644))

	cfg, err := Load(projectDir)

	require.NoError(t, err)
	assert.Equal(t, "lsh", cfg.DefaultIndex)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	configDir := t.TempDir()
	projectDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	vectorliteDir := filepath.Join(configDir, "vectorlite")
	require.NoError(t, os.MkdirAll(vectorliteDir, 0o755))
	invalidConfig := "default_index: [invalid yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(vectorliteDir, "config.yaml"), []byte(invalidConfig), 0o644))

	cfg, err := Load(projectDir)

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "user config")
}
