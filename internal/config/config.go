// Package config loads tool configuration. Settings come from three
// layers, most specific last: built-in defaults, the [tool.pysema]
// table of the project's pyproject.toml, and .pysema/config.json.
// Keys are camelCase in both files, following the convention Python
// type checkers already use for their pyproject tables.
package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"pysema/internal/errors"
	"pysema/internal/resolver"
	"pysema/internal/slogutil"
)

// CurrentVersion is the config schema version this build reads.
const CurrentVersion = 1

// Config is the complete tool configuration.
type Config struct {
	Version  int            `json:"version" mapstructure:"version"`
	Search   SearchConfig   `json:"search" mapstructure:"search"`
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis"`
	Watcher  WatcherConfig  `json:"watcher" mapstructure:"watcher"`
	Export   ExportConfig   `json:"export" mapstructure:"export"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// SearchConfig shapes module resolution. Relative paths are resolved
// against the project root.
type SearchConfig struct {
	ExtraPaths      []string `json:"extraPaths" mapstructure:"extraPaths"`
	StubPath        string   `json:"stubPath" mapstructure:"stubPath"`
	ThirdPartyPaths []string `json:"thirdPartyPaths" mapstructure:"thirdPartyPaths"`
}

// AnalysisConfig controls analysis behavior. Exclude lists directory
// names skipped while walking the project.
type AnalysisConfig struct {
	TransitiveInvalidation bool     `json:"transitiveInvalidation" mapstructure:"transitiveInvalidation"`
	Exclude                []string `json:"exclude" mapstructure:"exclude"`
	DisabledRules          []string `json:"disabledRules" mapstructure:"disabledRules"`
}

// WatcherConfig controls the polling file watcher.
type WatcherConfig struct {
	IntervalMs int `json:"intervalMs" mapstructure:"intervalMs"`
	DebounceMs int `json:"debounceMs" mapstructure:"debounceMs"`
}

// ExportConfig controls index export.
type ExportConfig struct {
	ScipPath string `json:"scipPath" mapstructure:"scipPath"`
}

// LoggingConfig controls log output. MaxSize uses unit suffixes
// ("10MB"); an empty File logs to stderr only.
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Analysis: AnalysisConfig{
			Exclude: []string{".git", "__pycache__", ".venv", "venv", "node_modules", ".pysema"},
		},
		Watcher: WatcherConfig{
			IntervalMs: 1000,
			DebounceMs: 300,
		},
		Export: ExportConfig{
			ScipPath: ".pysema/index.scip",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// Load reads the configuration for a project. Missing files fall
// back to defaults; present but malformed files are errors.
func Load(projectRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	overlay, err := readPyproject(projectRoot)
	if err != nil {
		return nil, err
	}
	if overlay != nil {
		if err := v.MergeConfigMap(overlay); err != nil {
			return nil, errors.New(errors.ConfigInvalid, "merge pyproject settings", err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ".pysema"))
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.New(errors.ConfigInvalid, "read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "unmarshal configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("analysis.exclude", def.Analysis.Exclude)
	v.SetDefault("watcher.intervalMs", def.Watcher.IntervalMs)
	v.SetDefault("watcher.debounceMs", def.Watcher.DebounceMs)
	v.SetDefault("export.scipPath", def.Export.ScipPath)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.maxSize", def.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", def.Logging.MaxBackups)
}

// readPyproject extracts the [tool.pysema] table, nil when the file
// or the table is absent.
func readPyproject(projectRoot string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(projectRoot, "pyproject.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New(errors.ConfigInvalid, "read pyproject.toml", err)
	}

	var doc struct {
		Tool struct {
			Pysema map[string]any `toml:"pysema"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "parse pyproject.toml", err)
	}
	if len(doc.Tool.Pysema) == 0 {
		return nil, nil
	}
	return doc.Tool.Pysema, nil
}

// Validate rejects configurations this build cannot honor.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return errors.Newf(errors.ConfigInvalid,
			"unsupported config version %d, this build reads version %d", c.Version, CurrentVersion)
	}
	if c.Watcher.IntervalMs <= 0 {
		return errors.Newf(errors.ConfigInvalid, "watcher.intervalMs must be positive, got %d", c.Watcher.IntervalMs)
	}
	if c.Watcher.DebounceMs < 0 {
		return errors.Newf(errors.ConfigInvalid, "watcher.debounceMs must not be negative, got %d", c.Watcher.DebounceMs)
	}
	if c.Logging.MaxSize != "" && slogutil.ParseSize(c.Logging.MaxSize) <= 0 {
		return errors.Newf(errors.ConfigInvalid, "logging.maxSize %q is not a valid size", c.Logging.MaxSize)
	}
	return nil
}

// Save writes the configuration to .pysema/config.json, creating the
// directory if needed.
func (c *Config) Save(projectRoot string) error {
	dir := filepath.Join(projectRoot, ".pysema")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New(errors.ConfigInvalid, "create config directory", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.ConfigInvalid, "marshal configuration", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), append(data, '\n'), 0o644)
}

// ResolverConfig maps the search section onto resolver search paths.
func (c *Config) ResolverConfig(projectRoot string) resolver.Config {
	return resolver.Config{
		ProjectRoot:     projectRoot,
		ExtraPaths:      absAll(projectRoot, c.Search.ExtraPaths),
		CustomStubRoot:  absOne(projectRoot, c.Search.StubPath),
		ThirdPartyRoots: absAll(projectRoot, c.Search.ThirdPartyPaths),
	}
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	return slogutil.LevelFromString(c.Logging.Level)
}

func absOne(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func absAll(root string, in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		out = append(out, absOne(root, p))
	}
	return out
}
