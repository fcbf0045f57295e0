package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries the options vectorlited needs to construct the vector
// database core plus the ambient logging/server sections the teacher always
// ships regardless of what the distilled core spec scopes out.
type Config struct {
	DataDir       string        `yaml:"data_dir" json:"data_dir"`
	DefaultMetric string        `yaml:"default_metric" json:"default_metric"`
	DefaultIndex  string        `yaml:"default_index" json:"default_index"`
	LSHNumPlanes  int           `yaml:"lsh_num_planes" json:"lsh_num_planes"`
	LSHNumTables  int           `yaml:"lsh_num_tables" json:"lsh_num_tables"`
	LSHSeed       int64         `yaml:"lsh_seed" json:"lsh_seed"`
	Logging       LoggingConfig `yaml:"logging" json:"logging"`
	Server        ServerConfig  `yaml:"server" json:"server"`
}

// LoggingConfig configures the rotating file logger (internal/logging).
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	FilePath  string `yaml:"file_path" json:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
}

// ServerConfig configures the HTTP shell (internal/httpapi).
type ServerConfig struct {
	ListenAddr  string   `yaml:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`
}

// NewConfig returns a Config with sensible defaults, mirroring the original
// Python service's DATA_DIR/DEFAULT_METRIC/DEFAULT_INDEX/LSH_* defaults.
func NewConfig() *Config {
	return &Config{
		DataDir:       defaultDataDir(),
		DefaultMetric: "cosine",
		DefaultIndex:  "linear",
		LSHNumPlanes:  16,
		LSHNumTables:  4,
		LSHSeed:       42,
		Logging: LoggingConfig{
			Level:     "info",
			FilePath:  defaultLogPath(),
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Server: ServerConfig{
			ListenAddr:  ":8080",
			CORSOrigins: []string{"*"},
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".vectorlite", "data")
	}
	return filepath.Join(home, ".vectorlite", "data")
}

func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".vectorlite", "logs", "server.log")
	}
	return filepath.Join(home, ".vectorlite", "logs", "server.log")
}

// GetUserConfigPath returns the user/global configuration file path,
// honoring XDG_CONFIG_HOME like the teacher's config resolution does.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vectorlite", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "vectorlite", "config.yaml")
	}
	return filepath.Join(home, ".config", "vectorlite", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds a Config in order of increasing precedence:
//  1. hardcoded defaults
//  2. user/global config (~/.config/vectorlite/config.yaml)
//  3. project config (.vectorlite.yaml in dir)
//  4. environment variable overrides
//
// The final config is validated before being returned.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// LoadUserConfig loads the user configuration file, returning nil if absent.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".vectorlite.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".vectorlite.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.DefaultMetric != "" {
		c.DefaultMetric = other.DefaultMetric
	}
	if other.DefaultIndex != "" {
		c.DefaultIndex = other.DefaultIndex
	}
	if other.LSHNumPlanes != 0 {
		c.LSHNumPlanes = other.LSHNumPlanes
	}
	if other.LSHNumTables != 0 {
		c.LSHNumTables = other.LSHNumTables
	}
	if other.LSHSeed != 0 {
		c.LSHSeed = other.LSHSeed
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}

	if other.Server.ListenAddr != "" {
		c.Server.ListenAddr = other.Server.ListenAddr
	}
	if len(other.Server.CORSOrigins) > 0 {
		c.Server.CORSOrigins = other.Server.CORSOrigins
	}
}

// applyEnvOverrides applies environment variable overrides, at highest
// precedence, using the names the original Python service used
// (DATA_DIR, DEFAULT_METRIC, DEFAULT_INDEX, LSH_NUM_PLANES, LSH_NUM_TABLES,
// LSH_SEED, LOG_LEVEL).
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("DEFAULT_METRIC"); v != "" {
		c.DefaultMetric = v
	}
	if v := os.Getenv("DEFAULT_INDEX"); v != "" {
		c.DefaultIndex = v
	}
	if v := os.Getenv("LSH_NUM_PLANES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.LSHNumPlanes = n
		}
	}
	if v := os.Getenv("LSH_NUM_TABLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.LSHNumTables = n
		}
	}
	if v := os.Getenv("LSH_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.LSHSeed = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VECTORLITE_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
}

var validMetrics = map[string]bool{"cosine": true, "euclidean": true, "dot": true}
var validIndexes = map[string]bool{"linear": true, "kdtree": true, "lsh": true}
var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration for consistency before it is used to
// construct the vector database core.
func (c *Config) Validate() error {
	if !validMetrics[strings.ToLower(c.DefaultMetric)] {
		return fmt.Errorf("default_metric must be 'cosine', 'euclidean', or 'dot', got %q", c.DefaultMetric)
	}
	if !validIndexes[strings.ToLower(c.DefaultIndex)] {
		return fmt.Errorf("default_index must be 'linear', 'kdtree', or 'lsh', got %q", c.DefaultIndex)
	}
	if c.LSHNumPlanes <= 0 {
		return fmt.Errorf("lsh_num_planes must be positive, got %d", c.LSHNumPlanes)
	}
	if c.LSHNumTables <= 0 {
		return fmt.Errorf("lsh_num_tables must be positive, got %d", c.LSHNumTables)
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %q", c.Logging.Level)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
