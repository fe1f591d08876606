// Package config loads hdlcov settings from YAML files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for hdlcov.
type Config struct {
	// Coverage families to instrument.
	Line   bool `yaml:"line" env:"HDLCOV_LINE"`
	Toggle bool `yaml:"toggle" env:"HDLCOV_TOGGLE"`
	User   bool `yaml:"user" env:"HDLCOV_USER"`

	// Underscore also covers signals whose names begin with an
	// underscore.
	Underscore bool `yaml:"underscore" env:"HDLCOV_UNDERSCORE"`

	// MaxWidth is the largest width times element count a signal may
	// have and still receive toggle points.
	MaxWidth int `yaml:"max_width" env:"HDLCOV_MAX_WIDTH"`

	// Trace synthesizes a traced counter variable per increment.
	Trace bool `yaml:"trace" env:"HDLCOV_TRACE"`

	// Parallel is the number of netlists instrumented concurrently.
	// Zero picks one worker per CPU.
	Parallel int `yaml:"parallel" env:"HDLCOV_PARALLEL"`

	// Exclude holds regular expressions matched against netlist paths;
	// matching files are skipped.
	Exclude []string `yaml:"exclude" env:"HDLCOV_EXCLUDE"`

	// Out is the directory instrumented netlists are written to.
	Out string `yaml:"out" env:"HDLCOV_OUT"`

	// Reports is the directory run reports are kept in.
	Reports string `yaml:"reports" env:"HDLCOV_REPORTS"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" env:"HDLCOV_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Line:     true,
		MaxWidth: 256,
		Out:      ".hdlcov-out",
		Reports:  ".hdlcov-reports",
	}
}

// globalConfigFilePath returns the global config file path (~/.hdlcov/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hdlcov/config.yaml"
	}
	return filepath.Join(home, ".hdlcov", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.hdlcov.yaml)
func projectConfigFilePath() string {
	return ".hdlcov.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.hdlcov.yaml)
// 3. Global config (~/.hdlcov/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path, creating
// parent directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HDLCOV_LINE"); v != "" {
		cfg.Line = parseBool(v)
	}
	if v := os.Getenv("HDLCOV_TOGGLE"); v != "" {
		cfg.Toggle = parseBool(v)
	}
	if v := os.Getenv("HDLCOV_USER"); v != "" {
		cfg.User = parseBool(v)
	}
	if v := os.Getenv("HDLCOV_UNDERSCORE"); v != "" {
		cfg.Underscore = parseBool(v)
	}
	if v := os.Getenv("HDLCOV_MAX_WIDTH"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxWidth = i
		}
	}
	if v := os.Getenv("HDLCOV_TRACE"); v != "" {
		cfg.Trace = parseBool(v)
	}
	if v := os.Getenv("HDLCOV_PARALLEL"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Parallel = i
		}
	}
	if v := os.Getenv("HDLCOV_EXCLUDE"); v != "" {
		var patterns []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		cfg.Exclude = patterns
	}
	if v := os.Getenv("HDLCOV_OUT"); v != "" {
		cfg.Out = v
	}
	if v := os.Getenv("HDLCOV_REPORTS"); v != "" {
		cfg.Reports = v
	}
	if v := os.Getenv("HDLCOV_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields.
func (c *Config) Validate() error {
	if c.MaxWidth <= 0 {
		return fmt.Errorf("max_width must be positive")
	}
	if c.Parallel < 0 {
		return fmt.Errorf("parallel must be non-negative")
	}
	if c.Out == "" {
		return fmt.Errorf("out directory must not be empty")
	}
	if c.Reports == "" {
		return fmt.Errorf("reports directory must not be empty")
	}
	return nil
}

// parseBool interprets common truthy spellings.
func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}

// parseInt attempts to parse a string as int.
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
