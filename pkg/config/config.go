// Package config loads hiweave run configuration from TOML or YAML files.
//
// A file only needs the keys it changes; everything else keeps the value
// from [Default]. The format is chosen by extension (.toml, .yaml, .yml).
//
//	[build]
//	cutoff = 0.75
//
//	[pick]
//	percentage_edges = 50
//
// Command-line flags are applied on top of the loaded values by the CLI.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/hiweave/pkg/errors"
	"github.com/matzehuels/hiweave/pkg/weave"
)

// Input formats accepted by [InputConfig.Format].
const (
	FormatLabels = "labels"
	FormatBits   = "bits"
)

// Cache backends accepted by [CacheConfig.Backend].
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full run configuration.
type Config struct {
	Input   InputConfig `toml:"input" yaml:"input"`
	Build   BuildConfig `toml:"build" yaml:"build"`
	Pick    PickConfig  `toml:"pick" yaml:"pick"`
	Cache   CacheConfig `toml:"cache" yaml:"cache"`
	Workers int         `toml:"workers" yaml:"workers" validate:"gte=0"`
}

// InputConfig describes how partition files are read.
type InputConfig struct {
	Format       string    `toml:"format" yaml:"format" validate:"oneof=labels bits"`
	Terminals    string    `toml:"terminals" yaml:"terminals"`
	AssumeLevels bool      `toml:"assume_levels" yaml:"assume_levels"`
	LevelKeys    []float64 `toml:"level_keys" yaml:"level_keys"`
}

// BuildConfig mirrors [weave.BuildOptions].
type BuildConfig struct {
	Cutoff float64 `toml:"cutoff" yaml:"cutoff" validate:"gte=0.5,lte=1"`
}

// PickConfig mirrors [weave.PickOptions] without manual edges.
type PickConfig struct {
	PercentageEdges         float64 `toml:"percentage_edges" yaml:"percentage_edges" validate:"gte=0,lte=100"`
	PercentageTerminalEdges float64 `toml:"percentage_terminal_edges" yaml:"percentage_terminal_edges" validate:"gte=0,lte=100"`
	StrictSingleBranch      bool    `toml:"strict_single_branch" yaml:"strict_single_branch"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend   string   `toml:"backend" yaml:"backend" validate:"oneof=file redis none"`
	Dir       string   `toml:"dir" yaml:"dir"`
	RedisAddr string   `toml:"redis_addr" yaml:"redis_addr" validate:"required_if=Backend redis"`
	TTL       Duration `toml:"ttl" yaml:"ttl"`
}

// Duration is a time.Duration written as a string ("24h", "90m") in
// config files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{Format: FormatLabels},
		Build: BuildConfig{Cutoff: weave.DefaultCutoff},
		Pick: PickConfig{
			PercentageEdges:         weave.DefaultPercentageEdges,
			PercentageTerminalEdges: weave.DefaultPercentageTerminalEdges,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     Duration{24 * time.Hour},
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	if cfg.Input.Terminals != "" && !filepath.IsAbs(cfg.Input.Terminals) {
		cfg.Input.Terminals = filepath.Join(filepath.Dir(path), cfg.Input.Terminals)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext (".toml", ".yaml" or
// ".yml") over the defaults. Unknown keys are rejected.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported config format %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if err := errors.ValidateStruct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	return nil
}

// BuildOptions returns the weave build options.
func (c *Config) BuildOptions() weave.BuildOptions {
	return weave.BuildOptions{Cutoff: c.Build.Cutoff}
}

// PickOptions returns the weave pick options.
func (c *Config) PickOptions() weave.PickOptions {
	return weave.PickOptions{
		PercentageEdges:         c.Pick.PercentageEdges,
		PercentageTerminalEdges: c.Pick.PercentageTerminalEdges,
		StrictSingleBranch:      c.Pick.StrictSingleBranch,
	}
}
