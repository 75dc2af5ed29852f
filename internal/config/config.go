// Package config loads the engine configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"cascade-engine/internal/derive/builtin"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

const (
	defaultStorePath   = "cascade-store.yaml"
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultConcurrency = 4
)

// DefaultYAML documents every key with its default value.
const DefaultYAML = `# cascade engine configuration

# Prefill table. Empty uses the built-in table.
mapping_table: ""

# YAML document holding projects and scoping snapshots.
store_path: cascade-store.yaml

# debug, info, warn or error; console or json.
log_level: info
log_format: console

# Projects resolved at once by a batch preview.
preview_concurrency: 4

# Floor area one scan position covers, in square feet.
scan_throughput_sqft: 1500

# Size tiers by estimated square footage, inclusive upper bounds.
size_tiers:
  - name: S
    max_sf: 10000
  - name: M
    max_sf: 50000
  - name: L
    max_sf: 150000
  - name: XL
    max_sf: .inf
`

// Config is the runtime configuration.
type Config struct {
	MappingTable       string         `yaml:"mapping_table"`
	StorePath          string         `yaml:"store_path"`
	LogLevel           string         `yaml:"log_level"`
	LogFormat          string         `yaml:"log_format"`
	PreviewConcurrency int            `yaml:"preview_concurrency"`
	ScanThroughputSqft float64        `yaml:"scan_throughput_sqft"`
	SizeTiers          []builtin.Tier `yaml:"size_tiers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StorePath:          defaultStorePath,
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
		PreviewConcurrency: defaultConcurrency,
		ScanThroughputSqft: builtin.DefaultScanThroughput,
		SizeTiers:          builtin.DefaultTiers(),
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q is not one of console, json", c.LogFormat))
	}

	if c.PreviewConcurrency < 1 {
		problems = append(problems, "preview_concurrency must be at least 1")
	}

	if c.ScanThroughputSqft <= 0 || math.IsInf(c.ScanThroughputSqft, 0) || math.IsNaN(c.ScanThroughputSqft) {
		problems = append(problems, "scan_throughput_sqft must be a positive number")
	}

	prev := math.Inf(-1)

	for i, t := range c.SizeTiers {
		if strings.TrimSpace(t.Name) == "" {
			problems = append(problems, fmt.Sprintf("size_tiers[%d] has no name", i))
		}

		if t.MaxSF <= prev {
			problems = append(problems, fmt.Sprintf("size_tiers[%d] max_sf must be above the previous tier", i))
		}

		prev = t.MaxSF
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}

	return nil
}

// DerivationOptions returns the tuning of the stock derivations.
func (c Config) DerivationOptions() builtin.Options {
	return builtin.Options{
		ScanThroughput: c.ScanThroughputSqft,
		Tiers:          c.SizeTiers,
	}
}
