package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pfexport/core/export"
	"github.com/kilianp07/pfexport/core/normalize"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `export:
  name: "FRT_case1"
  path: "C:/results"
  ref_name: "uRef"
  ref_scale: 2.0
normalize:
  enabled: true
  header_row: 0
  columns:
    - label: "m:P:bus2 in MW"
      name: "P[MW]"
    - label: "m:u2:bus2 in p.u."
output:
  xlsx: true
  preview: true
host:
  mode: "demo"
metrics:
  sinks:
    - type: "nop"
mqtt:
  broker: "tcp://localhost:1883"
  qos: 1
logging:
  level: "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	mapping := cfg.Normalize.Mapping()
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"export.name", cfg.Export.Name, "FRT_case1"},
		{"export.path", cfg.Export.Path, "C:/results"},
		{"export.ref_scale", cfg.Export.RefScale, 2.0},
		{"export.graph_command", cfg.Export.GraphCommand, export.DefaultGraphCommand},
		{"normalize.enabled", cfg.Normalize.Enabled, true},
		{"normalize.header_row", cfg.Normalize.Row(), 0},
		{"normalize.columns add", mapping["m:P:bus2 in MW"], "P[MW]"},
		{"normalize.columns remove", len(mapping), len(normalize.DefaultMapping())},
		{"output.xlsx", cfg.Output.XLSX, true},
		{"output.any", cfg.Output.Any(), true},
		{"host.mode", cfg.Host.Mode, "demo"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"mqtt.topic", cfg.MQTT.Topic, "pfexport/reports"},
		{"mqtt.qos", cfg.MQTT.QoS, byte(1)},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.format", cfg.Logging.Format, "json"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}

	p := cfg.Export.Params()
	assert.Equal(t, export.Params{Name: "FRT_case1", Path: "C:/results", RefName: "uRef", RefScale: 2}, p)
	assert.Equal(t, export.DefaultCSVOptions(), cfg.Export.CSVOptions())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bridge", cfg.Host.Mode)
	assert.Equal(t, "http://127.0.0.1:8765", cfg.Host.Bridge.URL)
	assert.Equal(t, normalize.DefaultHeaderRow, cfg.Normalize.Row())
	assert.False(t, cfg.Normalize.Enabled)
	assert.False(t, cfg.MQTT.Enabled())
	assert.Equal(t, 1, *cfg.Export.CSV.Header)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "config.json", `{"export": {"name": "from_file"}, "host": {"mode": "demo"}}`)
	t.Setenv("PFX_EXPORT__NAME", "from_env")
	t.Setenv("PFX_HOST__BRIDGE__URL", "http://10.0.0.5:8765")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Export.Name)
	assert.Equal(t, "http://10.0.0.5:8765", cfg.Host.Bridge.URL)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"format":     "",
		"host mode":  "host:\n  mode: \"com\"\n",
		"separators": "export:\n  csv:\n    decimal_sep: \";\"\n",
		"header row": "normalize:\n  header_row: -1\n",
		"column":     "normalize:\n  columns:\n    - name: \"x\"\n",
		"log level":  "logging:\n  level: \"loud\"\n",
		"sentry":     "sentry:\n  traces_sample_rate: 2\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			file := "config.yaml"
			if name == "format" {
				file = "config.toml"
			}
			_, err := Load(writeConfig(t, file, data))
			assert.Error(t, err)
		})
	}
}

func TestExportConfigCSVOptions(t *testing.T) {
	header := 0
	c := ExportConfig{CSV: CSVConfig{Header: &header, DecimalSep: ".", ColumnSep: ","}}
	c.SetDefaults()
	require.NoError(t, c.Validate())
	opts := c.CSVOptions()
	assert.Equal(t, 0, opts.Header)
	assert.Equal(t, ".", opts.DecimalSep)
	assert.Equal(t, ",", opts.ColumnSep)
	assert.True(t, opts.CustomSeparators)
}

func TestTableFormatRequiredWhenResultIsReadBack(t *testing.T) {
	custom := "export:\n  csv:\n    decimal_sep: \".\"\n    column_sep: \",\"\n"
	cases := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"custom separators, export only", custom, false},
		{"custom separators, normalize", custom + "normalize:\n  enabled: true\n", true},
		{"custom separators, xlsx", custom + "output:\n  xlsx: true\n", true},
		{"header mode 0, normalize", "export:\n  csv:\n    header: 0\nnormalize:\n  enabled: true\n", true},
		{"defaults, normalize", "normalize:\n  enabled: true\noutput:\n  preview: true\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", tc.data))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrTableFormat)
				return
			}
			assert.NoError(t, err)
		})
	}
}
