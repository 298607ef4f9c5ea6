// Package config loads layout host configuration from TOML files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/layout-host/errors"
	"github.com/wippyai/layout-host/handle"
)

const (
	EnvLogLevel  = "LAYOUTHOST_LOG_LEVEL"
	EnvLogFormat = "LAYOUTHOST_LOG_FORMAT"
	EnvEngine    = "LAYOUTHOST_ENGINE"
)

// Engine kinds.
const (
	EngineWasm = "wasm"
	EngineMmap = "mmap"
)

// Config is the full layout host configuration.
type Config struct {
	Context    Context    `toml:"context"`
	Engine     Engine     `toml:"engine"`
	Dispatcher Dispatcher `toml:"dispatcher"`
	Log        Log        `toml:"log"`
	Metrics    Metrics    `toml:"metrics"`
	Workload   Workload   `toml:"workload"`
}

// Context configures each layout context.
type Context struct {
	InitialCapacity int `toml:"initial_capacity"`
}

// Engine selects and sizes the native engine.
type Engine struct {
	Kind             string `toml:"kind"`
	ModulePath       string `toml:"module_path"`
	MemoryLimitPages uint32 `toml:"memory_limit_pages"`
	PageSize         int    `toml:"page_size"`
	BreakRecordSize  int    `toml:"break_record_size"`
}

// Dispatcher configures the owner goroutine.
type Dispatcher struct {
	QueueLimit      int           `toml:"queue_limit"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `toml:"level"`
	Format      string `toml:"format"`
	Development bool   `toml:"development"`
}

// Metrics configures the prometheus endpoint.
type Metrics struct {
	Listen  string `toml:"listen"`
	Enabled bool   `toml:"enabled"`
}

// Workload configures the synthetic workload run by layoutctl.
type Workload struct {
	Paragraphs        int           `toml:"paragraphs"`
	PagesPerParagraph int           `toml:"pages_per_paragraph"`
	ExplicitRatio     float64       `toml:"explicit_ratio"`
	Contexts          int           `toml:"contexts"`
	Settle            time.Duration `toml:"settle"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Context: Context{InitialCapacity: handle.DefaultCapacity},
		Engine:  Engine{Kind: EngineWasm},
		Dispatcher: Dispatcher{
			QueueLimit:      1024,
			ShutdownTimeout: 5 * time.Second,
		},
		Log:     Log{Level: "info", Format: "console"},
		Metrics: Metrics{Listen: ":9090"},
		Workload: Workload{
			Paragraphs:        8,
			PagesPerParagraph: 4,
			ExplicitRatio:     0.5,
			Contexts:          1,
			Settle:            250 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load layout host config: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes a TOML document over the defaults, applies environment
// overrides and validates the result.
func Parse(doc string) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(doc, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidConfig, err, "decode toml")
	}

	// a listen address on its own turns the endpoint on
	if meta.IsDefined("metrics", "listen") && !meta.IsDefined("metrics", "enabled") {
		cfg.Metrics.Enabled = true
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, errors.InvalidConfig("unknown keys: %s", strings.Join(keys, ", "))
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from LAYOUTHOST_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvEngine)); v != "" {
		c.Engine.Kind = strings.ToLower(v)
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Context.InitialCapacity < 0:
		return errors.InvalidConfig("context.initial_capacity must not be negative")
	case c.Context.InitialCapacity > handle.MaxCapacity:
		return errors.InvalidConfig("context.initial_capacity exceeds %d", handle.MaxCapacity)
	case c.Engine.Kind != EngineWasm && c.Engine.Kind != EngineMmap:
		return errors.InvalidConfig("engine.kind %q is not one of %q, %q", c.Engine.Kind, EngineWasm, EngineMmap)
	case c.Engine.PageSize < 0 || c.Engine.BreakRecordSize < 0:
		return errors.InvalidConfig("engine sizes must not be negative")
	case c.Dispatcher.QueueLimit < 0:
		return errors.InvalidConfig("dispatcher.queue_limit must not be negative")
	case c.Dispatcher.ShutdownTimeout <= 0:
		return errors.InvalidConfig("dispatcher.shutdown_timeout must be positive")
	case c.Workload.Paragraphs < 0 || c.Workload.PagesPerParagraph < 0 || c.Workload.Contexts < 0:
		return errors.InvalidConfig("workload counts must not be negative")
	case c.Workload.Settle < 0:
		return errors.InvalidConfig("workload.settle must not be negative")
	case c.Workload.ExplicitRatio < 0 || c.Workload.ExplicitRatio > 1:
		return errors.InvalidConfig("workload.explicit_ratio must be within [0, 1]")
	case c.Metrics.Enabled && c.Metrics.Listen == "":
		return errors.InvalidConfig("metrics.listen is required when metrics are enabled")
	}
	if _, ok := ParseLevel(c.Log.Level); !ok {
		return errors.InvalidConfig("log.level %q is not recognised", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return errors.InvalidConfig("log.format %q is not one of \"json\", \"console\"", c.Log.Format)
	}
	return nil
}
