package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/pfexport/core/metrics"
	"github.com/kilianp07/pfexport/infra/host"
	"github.com/kilianp07/pfexport/infra/mqtt"
)

// EnvPrefix marks environment overrides: PFX_EXPORT__NAME sets export.name.
const EnvPrefix = "PFX_"

type Config struct {
	Export    ExportConfig    `json:"export"`
	Normalize NormalizeConfig `json:"normalize"`
	Output    OutputConfig    `json:"output"`
	Host      host.Config     `json:"host"`
	Metrics   metrics.Config  `json:"metrics"`
	MQTT      mqtt.Config     `json:"mqtt"`
	Logging   LoggingConfig   `json:"logging"`
	Sentry    SentryConfig    `json:"sentry"`
}

// Load reads the configuration file at path, applies environment overrides,
// defaults and validation. An empty path loads defaults and environment
// overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Export.SetDefaults()
	c.Normalize.SetDefaults()
	c.Host.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
}

// tableFormat requires the default result layout when the result file is
// read back after the export.
func (c Config) tableFormat() error {
	if !c.Normalize.Enabled && !c.Output.Any() {
		return nil
	}
	return c.Export.ValidateTableFormat()
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"export", c.Export.Validate},
		{"export", c.tableFormat},
		{"normalize", c.Normalize.Validate},
		{"host", c.Host.Validate},
		{"mqtt", c.MQTT.Validate},
		{"logging", c.Logging.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	return nil
}
