package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/fathom/internal/report"
	"github.com/harrison/fathom/internal/rules"
	"github.com/harrison/fathom/internal/walker"
)

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every finished walk in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`
}

// WatchConfig represents watch mode configuration
type WatchConfig struct {
	// Debounce is how long the tree must be quiet before a re-walk
	Debounce time.Duration `yaml:"debounce"`
}

// Config represents fathom configuration options
type Config struct {
	// MaxConcurrency caps concurrent filesystem calls (0 = walker default)
	MaxConcurrency int `yaml:"max_concurrency"`

	// Timeout bounds a single walk (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs will be written
	LogDir string `yaml:"log_dir"`

	// Format selects the report format (text, json, yaml, markdown, html)
	Format string `yaml:"format"`

	// Output is the report file path; empty writes to stdout
	Output string `yaml:"output"`

	// Filter holds the declarative exclusion rules
	Filter rules.Spec `yaml:"filter"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`

	// Watch contains watch mode configuration
	Watch WatchConfig `yaml:"watch"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: walker.DefaultMaxConcurrency,
		Timeout:        0,
		LogLevel:       "info",
		LogDir:         filepath.Join(DirName, "logs"),
		Format:         string(report.FormatText),
		Output:         "",
		History: HistoryConfig{
			Enabled: false,
			DBPath:  filepath.Join(DirName, "history.db"),
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are strings in the file
	type yamlConfig struct {
		MaxConcurrency *int       `yaml:"max_concurrency"`
		Timeout        string     `yaml:"timeout"`
		LogLevel       string     `yaml:"log_level"`
		LogDir         string     `yaml:"log_dir"`
		Format         string     `yaml:"format"`
		Output         string     `yaml:"output"`
		Filter         rules.Spec `yaml:"filter"`
		History        struct {
			Enabled *bool   `yaml:"enabled"`
			DBPath  *string `yaml:"db_path"`
		} `yaml:"history"`
		Watch struct {
			Debounce string `yaml:"debounce"`
		} `yaml:"watch"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply values present in the file over the defaults
	if yamlCfg.MaxConcurrency != nil {
		cfg.MaxConcurrency = *yamlCfg.MaxConcurrency
	}
	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.Format != "" {
		cfg.Format = yamlCfg.Format
	}
	if yamlCfg.Output != "" {
		cfg.Output = yamlCfg.Output
	}
	if !yamlCfg.Filter.IsEmpty() {
		cfg.Filter = yamlCfg.Filter
	}
	if yamlCfg.History.Enabled != nil {
		cfg.History.Enabled = *yamlCfg.History.Enabled
	}
	if yamlCfg.History.DBPath != nil {
		// Explicitly set db_path, even if empty string
		cfg.History.DBPath = *yamlCfg.History.DBPath
	}
	if yamlCfg.Watch.Debounce != "" {
		debounce, err := time.ParseDuration(yamlCfg.Watch.Debounce)
		if err != nil {
			return nil, fmt.Errorf("invalid watch.debounce format %q: %w", yamlCfg.Watch.Debounce, err)
		}
		cfg.Watch.Debounce = debounce
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .fathom/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, DirName, "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(maxConcurrency *int, timeout *time.Duration, logLevel, logDir, format, output *string, history *bool) {
	if maxConcurrency != nil {
		c.MaxConcurrency = *maxConcurrency
	}
	if timeout != nil {
		c.Timeout = *timeout
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if format != nil {
		c.Format = *format
	}
	if output != nil {
		c.Output = *output
	}
	if history != nil {
		c.History.Enabled = *history
	}
}

// ResolvePaths makes relative log and history paths relative to base.
func (c *Config) ResolvePaths(base string) {
	if c.LogDir != "" && !filepath.IsAbs(c.LogDir) {
		c.LogDir = filepath.Join(base, c.LogDir)
	}
	if c.History.DBPath != "" && !filepath.IsAbs(c.History.DBPath) {
		c.History.DBPath = filepath.Join(base, c.History.DBPath)
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	// Timeout can be 0 (no timeout) or positive, negative is invalid
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	if _, err := rules.Compile(c.Filter); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %v", c.Watch.Debounce)
	}

	return nil
}
