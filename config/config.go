// Package config handles watcalc.toml configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wat-calc/engine"
	"github.com/wippyai/wat-calc/errors"
	"github.com/wippyai/wat-calc/wat"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "watcalc.toml"

// Config represents a watcalc.toml file.
type Config struct {
	Assembler Assembler `toml:"assembler"`
	Engine    Engine    `toml:"engine"`
	Log       Log       `toml:"log"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// Assembler sets region capacities in bytes.
type Assembler struct {
	InputCap  uint32 `toml:"input-cap"`
	OutputCap uint32 `toml:"output-cap"`
	CodeCap   uint32 `toml:"code-cap"`
}

// Engine configures evaluation.
type Engine struct {
	TimeoutMS        int64  `toml:"timeout-ms"`
	MemoryLimitPages uint32 `toml:"memory-limit-pages"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // console or json
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Assembler.InputCap == 0 {
		c.Assembler.InputCap = wat.DefaultInputCap
	}
	if c.Assembler.OutputCap == 0 {
		c.Assembler.OutputCap = wat.DefaultOutputCap
	}
	if c.Assembler.CodeCap == 0 {
		c.Assembler.CodeCap = wat.DefaultCodeCap
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Load parses the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Path(path).
			Cause(err).
			Detail("cannot read config").
			Build()
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path(path).
			Cause(err).
			Detail("parse error").
			Build()
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path(path).
			Detailf("unknown keys: %s", strings.Join(keys, ", ")).
			Build()
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "cannot resolve path "+path)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a watcalc.toml file and loads
// it. When none is found it returns Default().
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "cannot resolve path "+startDir)
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	for _, region := range []struct {
		key  string
		size uint32
	}{
		{"input-cap", c.Assembler.InputCap},
		{"output-cap", c.Assembler.OutputCap},
		{"code-cap", c.Assembler.CodeCap},
	} {
		if region.size > wat.MaxRegionCap {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path("assembler", region.key).
				Value(region.size).
				Detailf("must not exceed %d bytes", wat.MaxRegionCap).
				Build()
		}
	}
	if c.Engine.TimeoutMS < 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("engine", "timeout-ms").
			Value(c.Engine.TimeoutMS).
			Detail("must not be negative").
			Build()
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("log", "level").
			Value(c.Log.Level).
			Cause(err).
			Build()
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("log", "format").
			Value(c.Log.Format).
			Detail("want console or json").
			Build()
	}
	return nil
}

// AssemblerOptions converts the assembler section to wat.Options.
func (c *Config) AssemblerOptions() wat.Options {
	return wat.Options{
		InputCap:  c.Assembler.InputCap,
		OutputCap: c.Assembler.OutputCap,
		CodeCap:   c.Assembler.CodeCap,
	}
}

// EngineConfig converts the engine section to engine.Config.
func (c *Config) EngineConfig() *engine.Config {
	return &engine.Config{
		MemoryLimitPages: c.Engine.MemoryLimitPages,
		Timeout:          time.Duration(c.Engine.TimeoutMS) * time.Millisecond,
	}
}

// NewLogger builds a zap logger writing to stderr.
func NewLogger(l Log) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}

	var zc zap.Config
	if l.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
