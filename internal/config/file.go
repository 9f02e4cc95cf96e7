package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"buildlog/internal/event"
)

// FileConfig is the on-disk logger configuration, in TOML or YAML.
//
//	[logger]
//	verbosity = "detailed"
//	parameters = "summary;performancesummary"
//	color = "auto"
//
//	[structured]
//	path = "build.ndjson"
type FileConfig struct {
	Logger     LoggerSection     `toml:"logger" yaml:"logger"`
	Structured StructuredSection `toml:"structured" yaml:"structured"`
}

// LoggerSection configures rendering.
type LoggerSection struct {
	Verbosity  string `toml:"verbosity" yaml:"verbosity"`
	Parameters string `toml:"parameters" yaml:"parameters"`
	Color      string `toml:"color" yaml:"color"`
}

// StructuredSection configures the structured block stream.
type StructuredSection struct {
	Path   string `toml:"path" yaml:"path"`
	Format string `toml:"format" yaml:"format"`
}

// LoadFile decodes path as YAML when it ends in .yaml or .yml and as TOML otherwise.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return FileConfig{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return FileConfig{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return FileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return FileConfig{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
	}
	if err := cfg.validate(); err != nil {
		return FileConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *FileConfig) validate() error {
	switch strings.ToLower(c.Logger.Color) {
	case "", "auto", "on", "off":
	default:
		return fmt.Errorf("invalid color %q (expected: auto|on|off)", c.Logger.Color)
	}
	switch strings.ToLower(c.Structured.Format) {
	case "", "ndjson", "teamcity":
	default:
		return fmt.Errorf("invalid structured format %q (expected: ndjson|teamcity)", c.Structured.Format)
	}
	return nil
}

// Apply copies the file settings into p. The parameter string is applied after
// the verbosity so that an explicit "verbosity=" item wins.
func (c FileConfig) Apply(p *Parameters) error {
	if c.Logger.Verbosity != "" {
		v, err := event.ParseVerbosity(c.Logger.Verbosity)
		if err != nil {
			return err
		}
		p.Verbosity = v
	}
	switch strings.ToLower(c.Logger.Color) {
	case "on":
		p.ColorMode = ColorANSI
	case "off":
		p.ColorMode = ColorNone
	}
	if c.Logger.Parameters != "" {
		if err := ParseParameters(c.Logger.Parameters, p); err != nil {
			return err
		}
	}
	return nil
}
